package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/camera"
	"github.com/cjeanneret/SnapGo/internal/logic/frame"
	"github.com/cjeanneret/SnapGo/internal/storage"
)

// Status messages shown after a capture attempt.
const (
	StatusUploaded = "Image uploaded successfully"
	StatusFailed   = "Failed to upload image"
)

var (
	// ErrAlreadyActive is returned by Start when a stream is already open.
	ErrAlreadyActive = errors.New("capture: camera already active")
	// ErrNoStream is returned by Capture and Preview when the camera is not started.
	ErrNoStream = errors.New("capture: camera not started")
)

// State is the camera lifecycle state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// CallbackFunc receives the captured data URI, then the object key after a
// successful upload.
type CallbackFunc func(payload string)

// Session owns one camera stream, the upload status message and the capture
// callback. Captures are serialized so status writes never interleave.
type Session struct {
	device    camera.Device
	uploader  storage.Uploader
	onCapture CallbackFunc
	onStatus  CallbackFunc

	lifecycleMu sync.Mutex // serializes Start and Stop
	captureMu   sync.Mutex // single-flight: one capture/upload at a time

	mu     sync.Mutex // guards stream and status
	stream camera.Stream
	status string
}

// NewSession creates an idle session. onCapture may be nil.
func NewSession(d camera.Device, u storage.Uploader, onCapture CallbackFunc) *Session {
	if onCapture == nil {
		onCapture = func(string) {}
	}
	return &Session{
		device:    d,
		uploader:  u,
		onCapture: onCapture,
	}
}

// State returns Active while a stream handle is held.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return Active
	}
	return Idle
}

// Status returns the last upload status message ("" before any capture).
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnStatus registers fn to receive every new status message.
// Call it before the first capture.
func (s *Session) OnStatus(fn CallbackFunc) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

func (s *Session) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	hook := s.onStatus
	s.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
}

// Start opens a video stream and records the handle.
// On denial or device error the error is logged, the session stays Idle
// and the error is returned for callers that want to classify it.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.activeStream() != nil {
		return ErrAlreadyActive
	}

	debug.Live("Starting camera")
	stream, err := s.device.Open(ctx)
	if err != nil {
		debug.Errorf("Error accessing camera: %v", err)
		return fmt.Errorf("start camera: %w", err)
	}
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
	debug.Live("Camera active (%d tracks)", len(stream.Tracks()))
	return nil
}

// Stop halts every track of the active stream and clears the handle.
// It is a no-op when Idle. The handle is cleared even if a track fails to stop.
func (s *Session) Stop() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream == nil {
		return nil
	}

	var errs []error
	for _, tr := range stream.Tracks() {
		debug.Verbose("Stopping %s track %q", tr.Kind(), tr.Label())
		if err := tr.Stop(); err != nil {
			debug.Errorf("Error stopping track %q: %v", tr.Label(), err)
			errs = append(errs, err)
		}
	}
	debug.Live("Camera stopped")
	return errors.Join(errs...)
}

// Preview reads the current frame without capturing or uploading it.
func (s *Session) Preview(ctx context.Context) (image.Image, error) {
	stream := s.activeStream()
	if stream == nil {
		return nil, ErrNoStream
	}
	return stream.ReadFrame(ctx)
}

// Capture rasterizes the current frame, hands the data URI to the callback,
// then uploads it. On success the callback receives the object key.
// The returned Result mirrors the upload outcome; the error is non-nil only
// when nothing was captured (no stream, unreadable or empty frame).
func (s *Session) Capture(ctx context.Context) (storage.Result, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	stream := s.activeStream()
	if stream == nil {
		return storage.Result{}, ErrNoStream
	}

	img, err := stream.ReadFrame(ctx)
	if err != nil {
		debug.Errorf("Error reading frame: %v", err)
		return storage.Result{}, fmt.Errorf("read frame: %w", err)
	}
	dataURI, err := frame.Rasterize(img)
	if err != nil {
		debug.Errorf("Error rasterizing frame: %v", err)
		return storage.Result{}, err
	}
	b := img.Bounds()
	debug.Frame(b.Dx(), b.Dy(), len(dataURI))

	s.onCapture(dataURI)

	res := s.uploader.Upload(ctx, dataURI)
	if res.OK() {
		s.onCapture(res.Key)
		s.setStatus(StatusUploaded)
	} else {
		s.setStatus(StatusFailed)
	}
	return res, nil
}

func (s *Session) activeStream() camera.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}
