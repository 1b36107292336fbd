package camera

import (
	"context"
	"errors"
	"image"
)

// Errors reported by devices. Callers classify with errors.Is.
var (
	// ErrPermissionDenied means the host refused access to the camera.
	ErrPermissionDenied = errors.New("camera: permission denied")
	// ErrNoDevice means no usable capture device was found.
	ErrNoDevice = errors.New("camera: no capture device")
	// ErrStreamStopped is returned when reading from a stream whose tracks were stopped.
	ErrStreamStopped = errors.New("camera: stream stopped")
	// ErrFrameTimeout means the device produced no frame within the configured timeout.
	ErrFrameTimeout = errors.New("camera: timed out waiting for frame")
)

// Device is the high-level interface used by the rest of the application.
// It represents an abstract "camera", regardless of how it's reached
// (V4L2, USB, mock, etc.).
type Device interface {
	// Open requests a video-only stream from the device.
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live video feed obtained from a Device.
type Stream interface {
	// Tracks returns every constituent track of the stream.
	Tracks() []Track
	// ReadFrame returns the frame currently displayed by the stream.
	ReadFrame(ctx context.Context) (image.Image, error)
}

// Track is one media track of a Stream. Only video tracks exist here.
type Track interface {
	Kind() string
	Label() string
	// Stop halts the track and releases its resources. Stopping twice is a no-op.
	Stop() error
}
