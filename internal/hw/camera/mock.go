package camera

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/cjeanneret/SnapGo/internal/debug"
)

// MockDevice is a development Device producing a synthetic test pattern.
// With Deny set, Open fails like a refused permission prompt.
type MockDevice struct {
	Width  int
	Height int
	Deny   bool
}

// NewMockDevice creates a mock camera with the given frame size.
func NewMockDevice(width, height int, deny bool) *MockDevice {
	return &MockDevice{Width: width, Height: height, Deny: deny}
}

// Open returns a stream with a single video track.
func (d *MockDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Deny {
		debug.Trace("Mock camera: access denied")
		return nil, ErrPermissionDenied
	}
	debug.Info("Using MOCK camera (%dx%d)", d.Width, d.Height)
	s := &mockStream{width: d.Width, height: d.Height}
	s.track = &mockTrack{}
	return s, nil
}

type mockStream struct {
	mu     sync.Mutex
	width  int
	height int
	frame  int
	track  *mockTrack
}

func (s *mockStream) Tracks() []Track {
	return []Track{s.track}
}

// ReadFrame draws a moving gradient so consecutive frames differ.
func (s *mockStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.track.isStopped() {
		return nil, ErrStreamStopped
	}

	s.mu.Lock()
	s.frame++
	n := s.frame
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + n) % 256),
				G: uint8((y + n) % 256),
				B: uint8(n % 256),
				A: 0xff,
			})
		}
	}
	debug.Trace("Mock camera: frame %d", n)
	return img, nil
}

type mockTrack struct {
	mu      sync.Mutex
	stopped bool
}

func (t *mockTrack) Kind() string  { return "video" }
func (t *mockTrack) Label() string { return "mock camera" }

func (t *mockTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return nil
}

func (t *mockTrack) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
