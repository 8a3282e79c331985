package common

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor resolves a CSS-style color: "#rgb", "#rgba", "#rrggbb",
// "#rrggbbaa", "rgb(r, g, b)", "rgba(r, g, b, a)" or a named color.
// Any alpha in the input is ignored; the result is always opaque.
func ParseColor(value string) (color.NRGBA, error) {
	s := strings.ToLower(strings.TrimSpace(value))

	var (
		c   color.NRGBA
		err error
	)
	switch {
	case strings.HasPrefix(s, "#"):
		c, err = parseHex(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		c, err = parseRGBFunc(s)
	default:
		named, ok := colornames.Map[s]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("%w: unknown color %q", ErrColorParse, value)
		}
		c = color.NRGBA{R: named.R, G: named.G, B: named.B}
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrColorParse, value, err)
	}

	c.A = 255
	return c, nil
}

func parseHex(h string) (color.NRGBA, error) {
	switch len(h) {
	case 3, 4:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(h[i:i+1], 16, 8)
			if err != nil {
				return color.NRGBA{}, err
			}
			v[i] = uint8(n * 17)
		}
		return color.NRGBA{R: v[0], G: v[1], B: v[2]}, nil
	case 6, 8:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
			if err != nil {
				return color.NRGBA{}, err
			}
			v[i] = uint8(n)
		}
		if len(h) == 8 {
			if _, err := strconv.ParseUint(h[6:8], 16, 8); err != nil {
				return color.NRGBA{}, err
			}
		}
		return color.NRGBA{R: v[0], G: v[1], B: v[2]}, nil
	}
	return color.NRGBA{}, fmt.Errorf("hex color must have 3, 4, 6 or 8 digits, got %d", len(h))
}

func parseRGBFunc(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("missing ')'")
	}
	fn := s[:open]
	args := strings.Split(s[open+1:len(s)-1], ",")

	want := 3
	if fn == "rgba" {
		want = 4
	}
	if len(args) != want {
		return color.NRGBA{}, fmt.Errorf("%s() takes %d arguments, got %d", fn, want, len(args))
	}

	var v [3]uint8
	for i := 0; i < 3; i++ {
		n, err := parseChannel(strings.TrimSpace(args[i]))
		if err != nil {
			return color.NRGBA{}, err
		}
		v[i] = n
	}
	if want == 4 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(args[3]), 64); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha %q", args[3])
		}
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2]}, nil
}

// parseChannel accepts "0".."255" or a percentage, clamping out-of-range values.
func parseChannel(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid channel %q", s)
		}
		return clampChannel(f * 255 / 100), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q", s)
	}
	return clampChannel(f), nil
}

func clampChannel(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f + 0.5)
}
