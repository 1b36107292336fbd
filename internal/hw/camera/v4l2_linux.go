//go:build linux

package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"math"
	"sync"
	"time"

	"github.com/blackjack/webcam"

	"github.com/cjeanneret/SnapGo/internal/debug"
)

// V4L2 fourcc codes for the pixel formats we can decode.
const (
	pixFmtYUYV  webcam.PixelFormat = 0x56595559 // 'YUYV'
	pixFmtMJPEG webcam.PixelFormat = 0x47504A4D // 'MJPG'
)

// V4L2Device is a Device backed by a Video4Linux2 webcam (e.g. /dev/video0).
type V4L2Device struct {
	Path         string
	Width        int
	Height       int
	FrameTimeout time.Duration
}

// NewV4L2Device creates a V4L2 camera for the device node at path.
func NewV4L2Device(path string, width, height int, frameTimeout time.Duration) (*V4L2Device, error) {
	if frameTimeout <= 0 {
		frameTimeout = 2 * time.Second
	}
	return &V4L2Device{Path: path, Width: width, Height: height, FrameTimeout: frameTimeout}, nil
}

// Open opens the device node, negotiates a pixel format and starts streaming.
func (d *V4L2Device) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	debug.Info("Opening V4L2 camera %s", d.Path)

	cam, err := webcam.Open(d.Path)
	if err != nil {
		return nil, classifyOpenError(d.Path, err)
	}

	formats := cam.GetSupportedFormats()
	format, ok := chooseFormat(formats)
	if !ok {
		_ = cam.Close()
		return nil, fmt.Errorf("%w: %s supports neither YUYV nor MJPEG", ErrNoDevice, d.Path)
	}
	debug.Verbose("Camera: selected pixel format %q", formats[format])

	f, w, h, err := cam.SetImageFormat(format, uint32(d.Width), uint32(d.Height))
	if err != nil {
		_ = cam.Close()
		return nil, fmt.Errorf("set image format on %s: %w", d.Path, err)
	}
	debug.Value("Negotiated size", fmt.Sprintf("%dx%d", w, h))

	if err := cam.StartStreaming(); err != nil {
		_ = cam.Close()
		return nil, fmt.Errorf("start streaming on %s: %w", d.Path, err)
	}

	s := &v4l2Stream{
		cam:     cam,
		format:  f,
		width:   int(w),
		height:  int(h),
		timeout: d.FrameTimeout,
	}
	s.track = &v4l2Track{stream: s, label: d.Path}
	debug.Live("Camera %s streaming", d.Path)
	return s, nil
}

// classifyOpenError maps OS errors from opening the device node to package errors.
func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, path, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %v", ErrNoDevice, path, err)
	default:
		return fmt.Errorf("open %s: %w", path, err)
	}
}

// chooseFormat prefers YUYV (cheap to convert) over MJPEG.
func chooseFormat(formats map[webcam.PixelFormat]string) (webcam.PixelFormat, bool) {
	if _, ok := formats[pixFmtYUYV]; ok {
		return pixFmtYUYV, true
	}
	if _, ok := formats[pixFmtMJPEG]; ok {
		return pixFmtMJPEG, true
	}
	return 0, false
}

type v4l2Stream struct {
	mu      sync.Mutex // webcam.Webcam is not safe for concurrent use
	cam     *webcam.Webcam
	format  webcam.PixelFormat
	width   int
	height  int
	timeout time.Duration
	track   *v4l2Track
}

func (s *v4l2Stream) Tracks() []Track {
	return []Track{s.track}
}

// ReadFrame waits for the next non-empty frame and decodes it.
func (s *v4l2Stream) ReadFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam == nil {
		return nil, ErrStreamStopped
	}

	deadline := time.Now().Add(s.timeout)
	waitSecs := uint32(math.Max(1, math.Ceil(s.timeout.Seconds())))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrFrameTimeout
		}

		err := s.cam.WaitForFrame(waitSecs)
		var timeout *webcam.Timeout
		if errors.As(err, &timeout) {
			return nil, ErrFrameTimeout
		}
		if err != nil {
			return nil, fmt.Errorf("wait for frame: %w", err)
		}

		buf, err := s.cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if len(buf) == 0 {
			// driver handed back an empty buffer, try the next one
			continue
		}
		return s.decode(buf)
	}
}

func (s *v4l2Stream) decode(buf []byte) (image.Image, error) {
	switch s.format {
	case pixFmtYUYV:
		return yuyvToRGBA(buf, s.width, s.height)
	case pixFmtMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("decode MJPEG frame: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported pixel format %#x", uint32(s.format))
	}
}

// release stops streaming and closes the device node once.
func (s *v4l2Stream) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam == nil {
		return nil
	}
	cam := s.cam
	s.cam = nil

	debug.Verbose("Camera: releasing %s", s.track.label)
	if err := cam.StopStreaming(); err != nil {
		_ = cam.Close()
		return fmt.Errorf("stop streaming: %w", err)
	}
	if err := cam.Close(); err != nil {
		return fmt.Errorf("close device: %w", err)
	}
	return nil
}

type v4l2Track struct {
	stream *v4l2Stream
	label  string
}

func (t *v4l2Track) Kind() string  { return "video" }
func (t *v4l2Track) Label() string { return t.label }
func (t *v4l2Track) Stop() error   { return t.stream.release() }
