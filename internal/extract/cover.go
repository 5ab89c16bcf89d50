package extract

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DecodeImage decodes raw cover bytes fetched from an external catalog.
// GIF/JPEG/PNG decoders are registered for image.Decode's format sniffing.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// maxCoverWidth/maxCoverHeight bound the stored cover size; source images
// are scaled down to fit, preserving aspect ratio, and never scaled up.
const (
	maxCoverWidth  = 400
	maxCoverHeight = 600
)

// ResizeCover scales img to fit within 400x600 and encodes it as PNG.
// golang.org/x/image/draw has no Lanczos kernel; CatmullRom is its
// highest-quality interpolator and the closest idiomatic substitute.
func ResizeCover(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		w, h = maxCoverWidth, maxCoverHeight
	}

	scale := 1.0
	if ws := float64(maxCoverWidth) / float64(w); ws < scale {
		scale = ws
	}
	if hs := float64(maxCoverHeight) / float64(h); hs < scale {
		scale = hs
	}

	dstW, dstH := w, h
	if scale < 1.0 {
		dstW = int(float64(w) * scale)
		dstH = int(float64(h) * scale)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
