package common

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	teal  = color.NRGBA{0, 128, 128, 255}
)

func TestCompositePlacesFullSizeLogo(t *testing.T) {
	logo := makeLogo(MaxLogoWidth, MaxLogoHeight, color.NRGBA{255, 0, 0, 255})
	canvas := Composite(logo, black)

	inside := []image.Point{{200, 50}, {1199, 349}, {700, 200}}
	for _, p := range inside {
		if got := canvas.NRGBAAt(p.X, p.Y); got != (color.NRGBA{255, 0, 0, 255}) {
			t.Errorf("Expected logo pixel at %v, got %v", p, got)
		}
	}

	outside := []image.Point{{199, 50}, {200, 49}, {1200, 349}, {1199, 350}, {0, 0}, {1399, 399}}
	for _, p := range outside {
		if got := canvas.NRGBAAt(p.X, p.Y); got != black {
			t.Errorf("Expected fill at %v, got %v", p, got)
		}
	}
}

func TestCompositeAlwaysCanvasSize(t *testing.T) {
	sizes := []image.Point{{1, 1}, {999, 299}, {1000, 300}, {3000, 200}, {50, 4000}, {1400, 400}}

	for _, s := range sizes {
		t.Run(s.String(), func(t *testing.T) {
			canvas := Composite(makeLogo(s.X, s.Y, teal), black)
			if canvas.Bounds() != image.Rect(0, 0, BackgroundImageWidth, BackgroundImageHeight) {
				t.Errorf("Expected 1400x400 canvas, got %v", canvas.Bounds())
			}
		})
	}
}

func TestCompositeAlphaThreshold(t *testing.T) {
	tests := []struct {
		name  string
		alpha uint8
		want  color.NRGBA
	}{
		{"transparent", 0, teal},
		{"just below threshold", 199, teal},
		{"at threshold", 200, color.NRGBA{10, 20, 30, 255}},
		{"opaque", 255, color.NRGBA{10, 20, 30, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logo := makeLogo(10, 10, color.NRGBA{10, 20, 30, tt.alpha})
			canvas := Composite(logo, teal)

			x, y := PlacementOffset(10, 10)
			if got := canvas.NRGBAAt(x+5, y+5); got != tt.want {
				t.Errorf("alpha %d: got %v, want %v", tt.alpha, got, tt.want)
			}
		})
	}
}

func TestCompositeSinglePixelLogo(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	canvas := Composite(makeLogo(1, 1, white), color.NRGBA{0, 0, 0, 255})

	lx, ly := PlacementOffset(1, 1)
	if lx != 700 || ly != 200 {
		t.Fatalf("Expected 1x1 logo at (700, 200), got (%d, %d)", lx, ly)
	}

	for y := 0; y < BackgroundImageHeight; y++ {
		for x := 0; x < BackgroundImageWidth; x++ {
			got := canvas.NRGBAAt(x, y)
			if x == lx && y == ly {
				if got != white {
					t.Fatalf("Expected logo pixel at (%d, %d), got %v", x, y, got)
				}
				continue
			}
			if got != black {
				t.Fatalf("Expected black at (%d, %d), got %v", x, y, got)
			}
		}
	}
}

func TestPlacementOffsetOddSizes(t *testing.T) {
	tests := []struct {
		w, h         int
		wantX, wantY int
	}{
		{1000, 300, 200, 50},
		{999, 299, 201, 51},
		{1, 1, 700, 200},
		{3, 5, 699, 198},
	}

	for _, tt := range tests {
		x, y := PlacementOffset(tt.w, tt.h)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("PlacementOffset(%d, %d) = (%d, %d), want (%d, %d)", tt.w, tt.h, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestCompositeDownscalesOversizedLogo(t *testing.T) {
	// 2000x600 scales to exactly the logo box
	canvas := Composite(makeLogo(2000, 600, color.NRGBA{0, 0, 255, 255}), black)

	if got := canvas.NRGBAAt(200, 50); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("Expected logo at (200, 50), got %v", got)
	}
	if got := canvas.NRGBAAt(199, 50); got != black {
		t.Errorf("Expected fill at (199, 50), got %v", got)
	}
}

func TestChangeBackground(t *testing.T) {
	logo := makeLogo(40, 20, color.NRGBA{255, 0, 0, 255})
	payload := EncodeDataURI(encodePNG(t, logo), "png")

	p := NewProcessor(ProcessorOptions{JPEGQuality: 90, Names: &sequentialNames{}})
	res, err := p.ChangeBackground(payload, "#ff0")
	if err != nil {
		t.Fatalf("ChangeBackground failed: %v", err)
	}

	if res.FileName != "2.jpeg" {
		t.Errorf("Expected file name '2.jpeg', got '%s'", res.FileName)
	}

	raw, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		t.Fatalf("Result is not valid base64: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Result is not a JPEG: %v", err)
	}

	if img.Bounds().Dx() != BackgroundImageWidth || img.Bounds().Dy() != BackgroundImageHeight {
		t.Errorf("Expected 1400x400, got %v", img.Bounds().Size())
	}

	// JPEG is lossy; check the corner is roughly yellow
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 > 20 {
		t.Errorf("Expected yellow background, got (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestChangeBackgroundDeterministic(t *testing.T) {
	payload := EncodeDataURI(encodePNG(t, makeLogo(33, 17, teal)), "png")

	a, err := ChangeBackground(payload, "#123456")
	if err != nil {
		t.Fatalf("ChangeBackground failed: %v", err)
	}
	b, err := ChangeBackground(payload, "#123456")
	if err != nil {
		t.Fatalf("ChangeBackground failed: %v", err)
	}

	if a != b {
		t.Error("Identical inputs should produce identical output")
	}
}

func TestChangeBackgroundErrors(t *testing.T) {
	valid := EncodeDataURI(encodePNG(t, makeLogo(2, 2, teal)), "png")

	tests := []struct {
		name    string
		payload EncodedPayload
		color   string
		want    error
	}{
		{"bad color wins over bad payload", "garbage", "not-a-color", ErrColorParse},
		{"bad metadata", "garbage", "#fff", ErrMetadataFormat},
		{"not an image", EncodeDataURI([]byte("hello"), "png"), "#fff", ErrImageDecode},
		{"valid", valid, "#fff", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ChangeBackground(tt.payload, tt.color)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if out != "" {
				t.Error("No partial output expected on error")
			}
		})
	}
}
