package camera

import (
	"fmt"
	"image"
	"image/color"
)

// YUYV (YUY2, YUV 4:2:2) packs two pixels in four bytes: Y0 U Y1 V.
const yuyvBytesPP = 2

// yuyvToRGBA converts a raw YUYV frame of the given size to RGBA.
// Width must be even; extra trailing bytes are ignored.
func yuyvToRGBA(buf []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid YUYV frame size %dx%d", width, height)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("YUYV frame width must be even, got %d", width)
	}
	stride := width * yuyvBytesPP
	if len(buf) < stride*height {
		return nil, fmt.Errorf("short YUYV frame: %d bytes, want %d", len(buf), stride*height)
	}

	dest := image.NewRGBA(image.Rect(0, 0, width, height))
	di := 0
	for y := 0; y < height; y++ {
		row := buf[y*stride : (y+1)*stride]
		for i := 0; i < stride; i += 4 {
			y0, cb, y1, cr := row[i], row[i+1], row[i+2], row[i+3]

			r, g, b := color.YCbCrToRGB(y0, cb, cr)
			dest.Pix[di+0], dest.Pix[di+1], dest.Pix[di+2], dest.Pix[di+3] = r, g, b, 0xff

			r, g, b = color.YCbCrToRGB(y1, cb, cr)
			dest.Pix[di+4], dest.Pix[di+5], dest.Pix[di+6], dest.Pix[di+7] = r, g, b, 0xff
			di += 8
		}
	}
	return dest, nil
}
