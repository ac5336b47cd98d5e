package domain

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// NoDataColor is used for regions without any value. It is a light grey that
// none of the data palettes can produce.
var NoDataColor = color.RGBA{R: 0xef, G: 0xef, B: 0xef, A: 0xff}

// Palette names accepted by ScaleNamed.
const (
	PaletteNameHeat  = "heat"
	PaletteNameBlues = "blues"
)

// Palettes. Any monotonic ramp works; these are the ones ScaleNamed knows.
var (
	// PaletteHeat runs green, yellow, orange, red, dark red.
	PaletteHeat = []color.RGBA{
		{R: 0x1a, G: 0x98, B: 0x50, A: 0xff},
		{R: 0xfe, G: 0xe0, B: 0x8b, A: 0xff},
		{R: 0xfd, G: 0xae, B: 0x61, A: 0xff},
		{R: 0xd7, G: 0x30, B: 0x27, A: 0xff},
		{R: 0x67, G: 0x00, B: 0x0d, A: 0xff},
	}

	// PaletteBlues is a single-hue sequential ramp.
	PaletteBlues = []color.RGBA{
		{R: 0xde, G: 0xeb, B: 0xf7, A: 0xff},
		{R: 0x9e, G: 0xca, B: 0xe1, A: 0xff},
		{R: 0x42, G: 0x92, B: 0xc6, A: 0xff},
		{R: 0x08, G: 0x51, B: 0x9c, A: 0xff},
	}
)

// Scale maps values to colors by linear interpolation across Stops.
type Scale struct {
	Stops  []color.RGBA
	NoData color.RGBA
}

// DefaultScale uses PaletteHeat.
func DefaultScale() Scale {
	return Scale{Stops: PaletteHeat, NoData: NoDataColor}
}

// ScaleNamed returns the scale for a palette name, case-insensitively.
func ScaleNamed(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PaletteNameHeat, "":
		return DefaultScale(), nil
	case PaletteNameBlues:
		return Scale{Stops: PaletteBlues, NoData: NoDataColor}, nil
	default:
		return Scale{}, fmt.Errorf("unknown palette %q", name)
	}
}

// ColorFor returns the color of value within [min, max]. When present is false
// or value is NaN the no-data color is returned. An invalid range (NaN bounds)
// also yields no-data.
func (s Scale) ColorFor(value float64, present bool, min, max float64) color.RGBA {
	if !present || math.IsNaN(value) || math.IsNaN(min) || math.IsNaN(max) || len(s.Stops) == 0 {
		return s.NoData
	}
	return s.At(Ratio(value, min, max))
}

// ColorIn is ColorFor with the bounds taken from r.
func (s Scale) ColorIn(value float64, present bool, r Range) color.RGBA {
	if !r.Valid {
		return s.NoData
	}
	return s.ColorFor(value, present, r.Min, r.Max)
}

// At interpolates the ramp at ratio t in [0, 1].
func (s Scale) At(t float64) color.RGBA {
	n := len(s.Stops)
	if n == 1 {
		return s.Stops[0]
	}
	pos := clamp01(t) * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return s.Stops[n-1]
	}
	return blend(s.Stops[i], s.Stops[i+1], pos-float64(i))
}

// Ratio is clamp((value-min)/max(max-min, 1), 0, 1). The floor on the
// denominator keeps identical bounds from dividing by zero.
func Ratio(value, min, max float64) float64 {
	return clamp01((value - min) / math.Max(max-min, 1))
}

// Hex renders c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func blend(a, b color.RGBA, f float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func clamp01(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}
