package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Options controls the canvas and styling of a rendered scene.
type Options struct {
	Width       int     // canvas width in pixels
	Height      int     // canvas height in pixels
	Padding     int     // empty border around the scene in pixels
	Grid        bool    // draw a coordinate grid
	GridStep    float64 // grid spacing in world units (0 = automatic)
	ScreenFrame bool    // scene uses screen coordinates (y grows downwards)
	Labels      bool    // print area and fill ratio in the top-left corner
	PointRadius float64 // radius of input point markers in pixels
	LineWidth   float64 // hull and rectangle stroke width in pixels

	Background     color.NRGBA
	PointColor     color.NRGBA
	HullColor      color.NRGBA
	RectangleColor color.NRGBA
	GridColor      color.NRGBA
	InsideColor    color.NRGBA // containment queries inside the hull
	OutsideColor   color.NRGBA // containment queries outside the hull
}

// DefaultOptions returns an 800x600 canvas with a light theme.
func DefaultOptions() Options {
	return Options{
		Width:          800,
		Height:         600,
		Padding:        40,
		Grid:           true,
		Labels:         true,
		PointRadius:    2.5,
		LineWidth:      2,
		Background:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		PointColor:     color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
		HullColor:      color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		RectangleColor: color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		GridColor:      color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
		InsideColor:    color.NRGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
		OutsideColor:   color.NRGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	}
}

// Validate checks the canvas geometry.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.Padding < 0 || 2*o.Padding >= min(o.Width, o.Height) {
		return fmt.Errorf("padding %d does not fit a %dx%d canvas", o.Padding, o.Width, o.Height)
	}
	if o.GridStep < 0 {
		return fmt.Errorf("grid step must be >= 0, got %g", o.GridStep)
	}
	return nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
func ParseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor is the inverse of ParseColor and always emits "#rrggbbaa".
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
