package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"tableside-order-services/internal/apperr"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ProductImageSide    = 1200
	ProductImageQuality = 85
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
}

type Meta struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// DetectContentType sniffs the first 512 bytes; HEIF containers are not
// known to net/http and are checked separately.
func DetectContentType(data []byte) string {
	if isHeifFamily(data) {
		return "image/heic"
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return http.DetectContentType(sample)
}

func Allowed(contentType string) bool {
	return allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

func isHeifFamily(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1", "heif":
		return true
	}
	return false
}

func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if isHeifFamily(data) {
			if heic, heicErr := decodeHEIC(data); heicErr == nil {
				return heic, "heic", nil
			}
		}
		return nil, "", err
	}
	if format == "jpeg" {
		img = applyOrientation(img, data)
	}
	return img, format, nil
}

// applyOrientation honours the EXIF orientation tag of phone photos. Missing
// or unreadable EXIF leaves the image as decoded.
func applyOrientation(img image.Image, data []byte) image.Image {
	ex, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}
	tag, err := ex.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orient, err := tag.Int(0)
	if err != nil {
		return img
	}
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// ProductJPEG normalizes an uploaded product photo: any supported format is
// decoded, rotated upright, fit inside ProductImageSide and re-encoded as
// JPEG.
func ProductJPEG(data []byte) ([]byte, Meta, error) {
	if len(data) == 0 {
		return nil, Meta{}, apperr.Validation("INVALID_IMAGE", "Image is empty")
	}
	if ct := DetectContentType(data); !Allowed(ct) {
		return nil, Meta{}, apperr.Validation("INVALID_IMAGE", "Unsupported image type "+ct)
	}
	img, format, err := decode(data)
	if err != nil {
		return nil, Meta{}, apperr.Validation("INVALID_IMAGE", "Image could not be decoded")
	}
	b := img.Bounds()
	meta := Meta{Width: b.Dx(), Height: b.Dy(), Format: format}

	fitted := imaging.Fit(img, ProductImageSide, ProductImageSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: ProductImageQuality}); err != nil {
		return nil, Meta{}, err
	}
	return buf.Bytes(), meta, nil
}
