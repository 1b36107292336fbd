package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/SnapGo/internal/config"
	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/camera"
	"github.com/cjeanneret/SnapGo/internal/hw/gpio"
	"github.com/cjeanneret/SnapGo/internal/hw/trigger"
	"github.com/cjeanneret/SnapGo/internal/logic/capture"
	"github.com/cjeanneret/SnapGo/internal/storage"
	"github.com/cjeanneret/SnapGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	debug.Step(1, "Initializing camera")
	device, err := newDeviceFromConfig(cfg)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)
	debug.PrintStruct("Camera config", cfg.Camera)

	debug.Step(2, "Initializing storage")
	uploader, err := storage.NewS3Uploader(ctx, storageCredentials(cfg))
	if err != nil {
		log.Fatalf("init storage failed: %v", err)
	}

	var broadcaster *web.StatusBroadcaster
	port := webPort.port()
	if port > 0 {
		broadcaster = web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
	}
	session := newSession(device, uploader, broadcaster)

	if cfg.Trigger.Enabled {
		debug.Step(3, "Initializing trigger button")
		stop, err := startTrigger(ctx, cfg, session)
		if err != nil {
			log.Fatalf("init trigger failed: %v", err)
		}
		defer stop()
	}

	if port > 0 {
		srv := web.NewServer(fmt.Sprintf(":%d", port), broadcaster, session)
		err := srv.Run(ctx)
		if stopErr := session.Stop(); stopErr != nil {
			log.Printf("stopping camera: %v", stopErr)
		}
		if err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	if cfg.Trigger.Enabled {
		// Button-only mode: keep the camera open and capture on each press.
		if err := session.Start(ctx); err != nil {
			log.Fatalf("start camera: %v", err)
		}
		debug.Info("Waiting for trigger presses on GPIO %d", cfg.Trigger.Pin)
		<-ctx.Done()
		if err := session.Stop(); err != nil {
			log.Printf("stopping camera: %v", err)
		}
		return
	}

	if err := captureOnce(ctx, session); err != nil {
		log.Fatalf("capture failed: %v", err)
	}
}

// newSession builds the capture session. With a broadcaster, captures, keys
// and status messages from every capture path are pushed to SSE clients.
func newSession(d camera.Device, u storage.Uploader, b *web.StatusBroadcaster) *capture.Session {
	if b == nil {
		return capture.NewSession(d, u, func(payload string) {
			debug.Trace("capture callback: %d bytes", len(payload))
		})
	}
	s := capture.NewSession(d, u, b.CaptureCallback())
	s.OnStatus(b.StatusCallback())
	return s
}

// captureOnce starts the camera, takes one picture, uploads it and stops.
func captureOnce(ctx context.Context, s *capture.Session) error {
	debug.Section("Capture")
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}
	res, err := s.Capture(ctx)
	stopErr := s.Stop()
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.Err
	}
	debug.Summary(s.Status())
	debug.Value("Object key", res.Key)
	if stopErr != nil {
		return fmt.Errorf("stop camera: %w", stopErr)
	}
	return nil
}

// startTrigger opens the GPIO driver and runs the button loop in the background.
// The returned func waits for the loop to exit and releases the driver.
func startTrigger(ctx context.Context, cfg *config.Config, s *capture.Session) (func(), error) {
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Value("Trigger pin", cfg.Trigger.Pin)
	driver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, err
	}
	button, err := trigger.NewButton(driver, cfg.Trigger.Pin, cfg.PollInterval(), cfg.Debounce())
	if err != nil {
		driver.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := button.Run(ctx, onTrigger(s)); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("trigger stopped: %v", err)
		}
	}()
	return func() {
		<-done
		if err := driver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}, nil
}

// onTrigger captures on a button press when the camera is running.
func onTrigger(s *capture.Session) func(context.Context) {
	return func(ctx context.Context) {
		if s.State() != capture.Active {
			debug.Verbose("trigger ignored: camera not started")
			return
		}
		res, err := s.Capture(ctx)
		if err != nil {
			debug.Error(err)
			return
		}
		debug.Info("%s (%s)", s.Status(), res.Key)
	}
}

func storageCredentials(cfg *config.Config) storage.Credentials {
	return storage.Credentials{
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		BucketName:      cfg.Storage.BucketName,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }

// newDeviceFromConfig selects a camera implementation based on configuration.
func newDeviceFromConfig(cfg *config.Config) (camera.Device, error) {
	switch cfg.Camera.Type {
	case "mock":
		return camera.NewMockDevice(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.Deny), nil
	case "v4l2":
		return camera.NewV4L2Device(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.FrameTimeout())
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}
