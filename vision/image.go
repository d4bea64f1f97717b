package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Register the common decoders. Validation at the source layer and
	// decoding here must agree on the supported formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Decode decodes raw image bytes into an image.Image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Canonical converts img to grayscale and resizes it to exactly
// width x height. Aspect ratio is intentionally not preserved: the
// canonical resolution exists to bound descriptor-count variance and
// runtime, not for pixel quality. Reference and query images must go
// through the same canonicalization or descriptor scales diverge and
// match quality silently degrades.
func Canonical(img image.Image, width, height int) *image.Gray {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	return ToGray(scaled)
}

// ToGray converts an image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray
}

// DecodeCanonical decodes raw bytes and canonicalizes in one step.
func DecodeCanonical(data []byte, width, height int) (*image.Gray, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Canonical(img, width, height), nil
}
