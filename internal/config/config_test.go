package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	// Create a real configs/ directory so filepath.Abs resolves correctly.
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

func TestValidateConfigPath_VeryLongPath(t *testing.T) {
	long := "configs/" + strings.Repeat("a", 1000) + ".yaml"
	// Should not panic; error or success is OS-dependent, but must not crash.
	_ = ValidateConfigPath(long)
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearStorageEnv makes sure environment fallbacks do not leak into tests.
func clearStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAccessKeyID, "")
	t.Setenv(EnvSecretAccessKey, "")
	t.Setenv(EnvBucketName, "")
}

const validYAML = `
camera:
  type: "v4l2"
  device: "/dev/video2"
  width: 1280
  height: 720
  frame_timeout_ms: 500
storage:
  access_key_id: "AKIDEXAMPLE"
  secret_access_key: "secret"
  bucket_name: "snapshots"
  region: "eu-west-3"
  endpoint: "http://localhost:9000"
  use_path_style: true
trigger:
  enabled: true
  pin: 17
  poll_ms: 10
  debounce_ms: 300
defaults:
  debug_level: 2
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	clearStorageEnv(t)
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Type != "v4l2" {
		t.Errorf("camera.type = %q, want %q", cfg.Camera.Type, "v4l2")
	}
	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("camera.device = %q, want /dev/video2", cfg.Camera.Device)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Errorf("camera size = %dx%d, want 1280x720", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.FrameTimeout() != 500*time.Millisecond {
		t.Errorf("FrameTimeout() = %v, want 500ms", cfg.FrameTimeout())
	}
	if cfg.Storage.BucketName != "snapshots" {
		t.Errorf("storage.bucket_name = %q, want snapshots", cfg.Storage.BucketName)
	}
	if cfg.Storage.Region != "eu-west-3" {
		t.Errorf("storage.region = %q, want eu-west-3", cfg.Storage.Region)
	}
	if !cfg.Storage.UsePathStyle {
		t.Error("storage.use_path_style should be true")
	}
	if !cfg.Trigger.Enabled || cfg.Trigger.Pin != 17 {
		t.Errorf("trigger = %+v, want enabled on pin 17", cfg.Trigger)
	}
	if cfg.PollInterval() != 10*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 10ms", cfg.PollInterval())
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce() = %v, want 300ms", cfg.Debounce())
	}
	if cfg.Defaults.DebugLevel != 2 {
		t.Errorf("debug_level = %d, want 2", cfg.Defaults.DebugLevel)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearStorageEnv(t)
	path := writeConfig(t, `
camera:
  type: "mock"
storage:
  bucket_name: "snapshots"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Device != "/dev/video0" {
		t.Errorf("default device = %q, want /dev/video0", cfg.Camera.Device)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("default size = %dx%d, want 640x480", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.FrameTimeout() != 2*time.Second {
		t.Errorf("default FrameTimeout() = %v, want 2s", cfg.FrameTimeout())
	}
	if cfg.Storage.Region != "us-east-1" {
		t.Errorf("default region = %q, want us-east-1", cfg.Storage.Region)
	}
	if cfg.PollInterval() != 20*time.Millisecond {
		t.Errorf("default PollInterval() = %v, want 20ms", cfg.PollInterval())
	}
	if cfg.Debounce() != 200*time.Millisecond {
		t.Errorf("default Debounce() = %v, want 200ms", cfg.Debounce())
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv(EnvAccessKeyID, "AKIDENV")
	t.Setenv(EnvSecretAccessKey, "envsecret")
	t.Setenv(EnvBucketName, "envbucket")

	path := writeConfig(t, "camera:\n  type: mock\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.AccessKeyID != "AKIDENV" {
		t.Errorf("access_key_id = %q, want AKIDENV", cfg.Storage.AccessKeyID)
	}
	if cfg.Storage.SecretAccessKey != "envsecret" {
		t.Errorf("secret_access_key = %q, want envsecret", cfg.Storage.SecretAccessKey)
	}
	if cfg.Storage.BucketName != "envbucket" {
		t.Errorf("bucket_name = %q, want envbucket", cfg.Storage.BucketName)
	}
}

func TestLoad_FileWinsOverEnv(t *testing.T) {
	t.Setenv(EnvBucketName, "envbucket")
	path := writeConfig(t, "camera:\n  type: mock\nstorage:\n  bucket_name: filebucket\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.BucketName != "filebucket" {
		t.Errorf("bucket_name = %q, want filebucket", cfg.Storage.BucketName)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"missing_camera_type", "storage:\n  bucket_name: b\n", "camera.type is required"},
		{"unknown_camera_type", "camera:\n  type: nikon\nstorage:\n  bucket_name: b\n", "unsupported camera.type"},
		{"missing_bucket", "camera:\n  type: mock\n", "bucket_name is required"},
		{"half_credentials", "camera:\n  type: mock\nstorage:\n  bucket_name: b\n  access_key_id: x\n", "must be set together"},
		{"negative_width", "camera:\n  type: mock\n  width: -1\nstorage:\n  bucket_name: b\n", "width/height"},
		{"debug_level_too_high", "camera:\n  type: mock\nstorage:\n  bucket_name: b\ndefaults:\n  debug_level: 9\n", "debug_level"},
		{"trigger_without_pin", "camera:\n  type: mock\nstorage:\n  bucket_name: b\ntrigger:\n  enabled: true\n", "trigger.pin"},
		{"invalid_yaml", "camera: [unclosed", "unmarshal yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearStorageEnv(t)
			path := writeConfig(t, tc.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "configs", "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "read config file") {
		t.Errorf("error = %q, want read config file", err.Error())
	}
}
