package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"tableside-order-services/internal/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProductJPEGFitsAndConverts(t *testing.T) {
	out, meta, err := ProductJPEG(pngBytes(t, 2400, 1200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Format != "png" || meta.Width != 2400 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 600 {
		t.Fatalf("expected 1200x600, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProductJPEGRejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("%PDF-1.4 not an image")} {
		if _, _, err := ProductJPEG(data); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestHeifDetection(t *testing.T) {
	header := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	if DetectContentType(header) != "image/heic" {
		t.Fatalf("expected heic detection")
	}
}
