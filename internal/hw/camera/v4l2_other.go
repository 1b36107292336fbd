//go:build !linux

package camera

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// V4L2Device is only functional on Linux. Elsewhere Open always reports ErrNoDevice.
type V4L2Device struct {
	Path         string
	Width        int
	Height       int
	FrameTimeout time.Duration
}

// NewV4L2Device creates a V4L2 camera placeholder.
func NewV4L2Device(path string, width, height int, frameTimeout time.Duration) (*V4L2Device, error) {
	return &V4L2Device{Path: path, Width: width, Height: height, FrameTimeout: frameTimeout}, nil
}

// Open always fails: Video4Linux2 is not available on this platform.
func (d *V4L2Device) Open(ctx context.Context) (Stream, error) {
	return nil, fmt.Errorf("%w: V4L2 is not supported on %s", ErrNoDevice, runtime.GOOS)
}
