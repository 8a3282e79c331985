package common

// Image processor for logo banners
//
// Responsibilities:
// 1. Parse the background color
// 2. Decode the base64 payload and its bitmap
// 3. Fit the logo into MaxLogoWidth x MaxLogoHeight (nearest neighbour, never enlarged)
// 4. Center it on a BackgroundImageWidth x BackgroundImageHeight canvas; logo pixels
//    with alpha >= AlphaThreshold are copied, everything else gets the fill color
// 5. Encode the canvas as JPEG and return it base64 encoded

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"logobanner/src/logging"
)

const (
	BackgroundImageWidth  = 1400
	BackgroundImageHeight = 400
	MaxLogoWidth          = 1000
	MaxLogoHeight         = 300
	AlphaThreshold        = 200
	DefaultJPEGQuality    = 75
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// CompositeResult is a banner encoded as base64 JPEG plus a suggested file name
type CompositeResult struct {
	Data     string
	FileName string
}

// ProcessorOptions tune a Processor. Zero values select the defaults.
type ProcessorOptions struct {
	JPEGQuality int
	Names       NameGenerator
}

// Processor turns logo payloads into banners. It holds no per-call state
// and is safe for concurrent use.
type Processor struct {
	quality int
	names   NameGenerator
}

// NewProcessor creates a new banner processor
func NewProcessor(opts ProcessorOptions) *Processor {
	p := &Processor{
		quality: opts.JPEGQuality,
		names:   opts.Names,
	}
	if p.quality < 1 || p.quality > 100 {
		p.quality = DefaultJPEGQuality
	}
	if p.names == nil {
		p.names = RandomNames{}
	}
	return p
}

// ChangeBackground composites the payload's image onto a solid colorSpec
// background. The result is always a JPEG.
func (p *Processor) ChangeBackground(payload EncodedPayload, colorSpec string) (*CompositeResult, error) {
	fill, err := ParseColor(colorSpec)
	if err != nil {
		return nil, err
	}

	data, sourceName, err := DecodePayload(payload, p.names)
	if err != nil {
		return nil, err
	}

	logo, err := DecodeBitmap(data)
	if err != nil {
		return nil, err
	}

	canvas := Composite(logo, fill)

	out, err := EncodeBitmap(canvas, p.quality)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"source": sourceName,
		"logo":   logo.Bounds().Size().String(),
		"bytes":  len(out),
	}).Debug("Banner composited")

	return &CompositeResult{
		Data:     EncodePayload(out),
		FileName: p.names.NewName("jpeg"),
	}, nil
}

// ChangeBackground runs the pipeline with default options and returns the
// base64 JPEG.
func ChangeBackground(payload EncodedPayload, colorSpec string) (string, error) {
	res, err := NewProcessor(ProcessorOptions{}).ChangeBackground(payload, colorSpec)
	if err != nil {
		return "", err
	}
	return res.Data, nil
}

// Composite places logo, scaled to fit the logo box, in the center of a
// fill-colored canvas.
func Composite(logo image.Image, fill color.NRGBA) *image.NRGBA {
	scaled := Resize(logo, MaxLogoWidth, MaxLogoHeight, imaging.NearestNeighbor)
	logoW, logoH := scaled.Rect.Dx(), scaled.Rect.Dy()

	canvas := image.NewNRGBA(image.Rect(0, 0, BackgroundImageWidth, BackgroundImageHeight))

	// Both halvings truncate, so odd sizes lean the logo one pixel right/down.
	offsetX, offsetY := PlacementOffset(logoW, logoH)

	for y := 0; y < BackgroundImageHeight; y++ {
		ly := y - offsetY
		row := canvas.Pix[y*canvas.Stride : y*canvas.Stride+BackgroundImageWidth*4]
		for x := 0; x < BackgroundImageWidth; x++ {
			px := row[x*4 : x*4+4 : x*4+4]
			lx := x - offsetX

			if lx >= 0 && ly >= 0 && lx < logoW && ly < logoH {
				i := scaled.PixOffset(scaled.Rect.Min.X+lx, scaled.Rect.Min.Y+ly)
				src := scaled.Pix[i : i+4 : i+4]
				if src[3] >= AlphaThreshold {
					px[0], px[1], px[2], px[3] = src[0], src[1], src[2], 255
					continue
				}
			}
			px[0], px[1], px[2], px[3] = fill.R, fill.G, fill.B, 255
		}
	}

	return canvas
}

// PlacementOffset returns the top-left canvas position of a logo of the
// given size.
func PlacementOffset(logoW, logoH int) (int, int) {
	return BackgroundImageWidth/2 - logoW/2, BackgroundImageHeight/2 - logoH/2
}
