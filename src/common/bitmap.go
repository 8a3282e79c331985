package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeBitmap decodes any registered format, sniffed from content.
// GIFs yield their first frame.
func DecodeBitmap(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrImageDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return toNRGBA(img), nil
}

// EncodeBitmap always produces JPEG. Alpha is dropped: every pixel keeps its
// RGB as if it were fully opaque.
func EncodeBitmap(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrImageEncode)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: degenerate dimensions %dx%d", ErrImageEncode, b.Dx(), b.Dy())
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, opaque(img), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	return buf.Bytes(), nil
}

// Resize scales img down to fit within maxWidth x maxHeight, keeping the
// aspect ratio. Images already inside the box are returned unscaled.
func Resize(img image.Image, maxWidth, maxHeight int, filter imaging.ResampleFilter) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return imaging.Clone(img)
	}
	w, h := FitSize(b.Dx(), b.Dy(), maxWidth, maxHeight)
	return imaging.Resize(img, w, h, filter)
}

// FitSize scales w x h by the smaller of the two box ratios. Both sides are
// rounded to the nearest pixel and kept at least 1.
func FitSize(w, h, maxWidth, maxHeight int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	ratio := math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	nw := max(int(math.Round(float64(w)*ratio)), 1)
	nh := max(int(math.Round(float64(h)*ratio)), 1)
	return nw, nh
}

// opaque returns img with every alpha byte forced to 255. The input is never
// modified.
func opaque(img image.Image) image.Image {
	if n, ok := img.(*image.NRGBA); ok && n.Opaque() {
		return n
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
