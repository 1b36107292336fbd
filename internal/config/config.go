package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when storage credentials are left empty.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvBucketName      = "S3_BUCKET_NAME"
)

// CameraConfig describes which capture device to open.
// Type selects a concrete implementation ("v4l2" or "mock").
type CameraConfig struct {
	Type           string `yaml:"type"`             // "v4l2" or "mock"
	Device         string `yaml:"device"`           // e.g., "/dev/video0"
	Width          int    `yaml:"width"`            // requested frame width (px)
	Height         int    `yaml:"height"`           // requested frame height (px)
	FrameTimeoutMs int    `yaml:"frame_timeout_ms"` // max wait for a frame (ms)
	Deny           bool   `yaml:"deny"`             // mock only: refuse access like a denied permission prompt
}

// StorageConfig holds the S3 bucket and credentials used for uploads.
type StorageConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`       // optional, for S3-compatible services
	UsePathStyle    bool   `yaml:"use_path_style"` // usually true with a custom endpoint
}

// TriggerConfig describes an optional physical shutter button.
type TriggerConfig struct {
	Enabled    bool `yaml:"enabled"`
	Pin        int  `yaml:"pin"`         // BCM pin, button pulls it LOW when pressed
	PollMs     int  `yaml:"poll_ms"`     // polling interval (ms)
	DebounceMs int  `yaml:"debounce_ms"` // minimum time between two presses (ms)
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Storage  StorageConfig  `yaml:"storage"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath checks that path points to a .yaml file inside a
// configs/ directory and does not escape it.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(filepath.ToSlash(path), "..") {
		return fmt.Errorf("config path must not contain '..': %s", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path must have .yaml extension: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file must be inside a configs/ directory: %s", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data, applies environment fallbacks and defaults,
// and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Credentials left empty in the file come from the environment
	if cfg.Storage.AccessKeyID == "" {
		cfg.Storage.AccessKeyID = os.Getenv(EnvAccessKeyID)
	}
	if cfg.Storage.SecretAccessKey == "" {
		cfg.Storage.SecretAccessKey = os.Getenv(EnvSecretAccessKey)
	}
	if cfg.Storage.BucketName == "" {
		cfg.Storage.BucketName = os.Getenv(EnvBucketName)
	}

	// Basic validation
	switch cfg.Camera.Type {
	case "":
		return nil, fmt.Errorf("camera.type is required")
	case "v4l2", "mock":
	default:
		return nil, fmt.Errorf("unsupported camera.type: %s", cfg.Camera.Type)
	}
	if cfg.Storage.BucketName == "" {
		return nil, fmt.Errorf("storage.bucket_name is required (or set %s)", EnvBucketName)
	}
	if (cfg.Storage.AccessKeyID == "") != (cfg.Storage.SecretAccessKey == "") {
		return nil, fmt.Errorf("storage.access_key_id and storage.secret_access_key must be set together")
	}
	if cfg.Camera.Width < 0 || cfg.Camera.Height < 0 {
		return nil, fmt.Errorf("camera width/height must be >= 0, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	if cfg.Trigger.Enabled && cfg.Trigger.Pin <= 0 {
		return nil, fmt.Errorf("trigger.pin must be > 0 when trigger is enabled")
	}

	// Default values
	if cfg.Camera.Device == "" {
		cfg.Camera.Device = "/dev/video0"
	}
	if cfg.Camera.Width == 0 {
		cfg.Camera.Width = 640
	}
	if cfg.Camera.Height == 0 {
		cfg.Camera.Height = 480
	}
	if cfg.Camera.FrameTimeoutMs <= 0 {
		cfg.Camera.FrameTimeoutMs = 2000
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Trigger.PollMs <= 0 {
		cfg.Trigger.PollMs = 20
	}
	if cfg.Trigger.DebounceMs <= 0 {
		cfg.Trigger.DebounceMs = 200
	}

	return &cfg, nil
}

// FrameTimeout returns the maximum wait for a camera frame.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Camera.FrameTimeoutMs) * time.Millisecond
}

// PollInterval returns the trigger button polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trigger.PollMs) * time.Millisecond
}

// Debounce returns the minimum delay between two trigger presses.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Trigger.DebounceMs) * time.Millisecond
}
