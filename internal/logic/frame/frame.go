// Package frame rasterizes camera frames to PNG data URIs and decodes them back.
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"regexp"
)

// MIMEPNG is the only content type produced by Rasterize.
const MIMEPNG = "image/png"

const pngPrefix = "data:" + MIMEPNG + ";base64,"

var (
	// ErrEmptyFrame is returned for a frame with a zero-dimension surface.
	ErrEmptyFrame = errors.New("frame: empty frame")
	// ErrNotDataURI is returned when a payload lacks the data:image/...;base64, prefix.
	ErrNotDataURI = errors.New("frame: not a base64 image data URI")
)

// dataURIPrefix matches the MIME prefix stripped before decoding.
var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Rasterize draws img onto a surface of the same dimensions and encodes it
// as a PNG data URI.
func Rasterize(img image.Image) (string, error) {
	if img == nil {
		return "", ErrEmptyFrame
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("%w: %dx%d", ErrEmptyFrame, b.Dx(), b.Dy())
	}

	surface := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(surface, surface.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode strips the data URI prefix and returns the decoded payload bytes.
func Decode(dataURI string) ([]byte, error) {
	loc := dataURIPrefix.FindStringIndex(dataURI)
	if loc == nil {
		return nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(dataURI[loc[1]:])
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, nil
}

// IsDataURI reports whether payload looks like an image data URI.
func IsDataURI(payload string) bool {
	return dataURIPrefix.MatchString(payload)
}
