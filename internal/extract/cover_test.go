package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func decodedSize(t *testing.T, png_ []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(png_))
	if err != nil {
		t.Fatalf("decode resized PNG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestResizeCoverShrinksOversizedImage(t *testing.T) {
	// 4x the max width, 2:3 aspect ratio preserved.
	img := solidImage(1600, 2400)
	out, err := ResizeCover(img)
	if err != nil {
		t.Fatalf("ResizeCover: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 400 || h != 600 {
		t.Errorf("resized to %dx%d, want 400x600", w, h)
	}
}

func TestResizeCoverNeverUpscalesSmallImage(t *testing.T) {
	img := solidImage(100, 150)
	out, err := ResizeCover(img)
	if err != nil {
		t.Fatalf("ResizeCover: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 100 || h != 150 {
		t.Errorf("small image resized to %dx%d, want unchanged 100x150", w, h)
	}
}

func TestResizeCoverPreservesAspectRatioWhenWidthBound(t *testing.T) {
	// Wide image: width is the binding constraint, not height.
	img := solidImage(2000, 500)
	out, err := ResizeCover(img)
	if err != nil {
		t.Fatalf("ResizeCover: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 400 {
		t.Errorf("width = %d, want 400 (the binding dimension)", w)
	}
	wantH := 500 * 400 / 2000
	if h != wantH {
		t.Errorf("height = %d, want %d (aspect ratio preserved)", h, wantH)
	}
}

func TestExtractRejectsUnsupportedExtension(t *testing.T) {
	if _, err := Extract("book.txt"); err == nil {
		t.Error("expected an error extracting an unsupported file extension")
	}
}
