package heatmap

import (
	"image/color"
	"math"
	"sort"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// ContrastExponent is the power applied to a normalised value before colour
// lookup so mid-range differences stay distinguishable.
const ContrastExponent = 0.7

// Stop is one colour stop of a gradient at position Pos in [0,1].
type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Gradient interpolates linearly in RGB between ordered stops.
type Gradient struct {
	stops []Stop
}

// NewGradient builds a gradient from stops, sorting them by position.
// At least one stop is required.
func NewGradient(stops ...Stop) Gradient {
	s := append([]Stop(nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Pos < s[j].Pos })
	return Gradient{stops: s}
}

// Stops returns a copy of the gradient's stops.
func (g Gradient) Stops() []Stop {
	return append([]Stop(nil), g.stops...)
}

// At returns the colour at t, clamping t to [0,1].
func (g Gradient) At(t float64) color.RGBA {
	if len(g.stops) == 0 {
		return color.RGBA{A: 0xff}
	}
	if math.IsNaN(t) || t <= g.stops[0].Pos {
		return g.stops[0].Color
	}
	last := g.stops[len(g.stops)-1]
	if t >= last.Pos {
		return last.Color
	}
	for i := 1; i < len(g.stops); i++ {
		hi := g.stops[i]
		if t > hi.Pos {
			continue
		}
		lo := g.stops[i-1]
		span := hi.Pos - lo.Pos
		if span <= 0 {
			return hi.Color
		}
		f := (t - lo.Pos) / span
		return color.RGBA{
			R: lerp8(lo.Color.R, hi.Color.R, f),
			G: lerp8(lo.Color.G, hi.Color.G, f),
			B: lerp8(lo.Color.B, hi.Color.B, f),
			A: lerp8(lo.Color.A, hi.Color.A, f),
		}
	}
	return last.Color
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Domain is the value range mapped onto a gradient.
type Domain struct {
	Min, Max float64
}

// Normalize maps v into [0,1] over the domain. A collapsed domain maps
// everything to 0.
func (d Domain) Normalize(v float64) float64 {
	span := d.Max - d.Min
	if !(span > 0) {
		return 0
	}
	n := (v - d.Min) / span
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// Contrast applies the power-law transform to a normalised value.
func Contrast(n float64) float64 {
	return math.Pow(n, ContrastExponent)
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

func fourStop(a, b, c, d color.RGBA) Gradient {
	return NewGradient(
		Stop{Pos: 0, Color: a},
		Stop{Pos: 1.0 / 3, Color: b},
		Stop{Pos: 2.0 / 3, Color: c},
		Stop{Pos: 1, Color: d},
	)
}

var (
	temperatureGradient = fourStop(rgb(0x1e, 0x3a, 0x8a), rgb(0x06, 0xb6, 0xd4), rgb(0xfa, 0xcc, 0x15), rgb(0xdc, 0x26, 0x26))
	salinityGradient    = fourStop(rgb(0xe0, 0xf2, 0xfe), rgb(0x38, 0xbd, 0xf8), rgb(0x25, 0x63, 0xeb), rgb(0x31, 0x2e, 0x81))
	sshGradient         = fourStop(rgb(0x6d, 0x28, 0xd9), rgb(0x3b, 0x82, 0xf6), rgb(0xf9, 0xfa, 0xfb), rgb(0xef, 0x44, 0x44))
	pressureGradient    = fourStop(rgb(0x14, 0x53, 0x2d), rgb(0x22, 0xc5, 0x5e), rgb(0xfd, 0xe0, 0x47), rgb(0xea, 0x58, 0x0c))
	defaultGradient     = NewGradient(Stop{Pos: 0, Color: rgb(0x6b, 0x72, 0x80)}, Stop{Pos: 1, Color: rgb(0xff, 0xff, 0xff)})

	// SpeedGradient colours flow by instantaneous speed.
	SpeedGradient = NewGradient(Stop{Pos: 0, Color: rgb(0x38, 0xbd, 0xf8)}, Stop{Pos: 1, Color: rgb(0xf4, 0x3f, 0x5e)})
)

var fieldDomains = map[string]Domain{
	points.FieldTemperature: {Min: 0, Max: 30},
	points.FieldSalinity:    {Min: 30, Max: 40},
	points.FieldSSH:         {Min: -2, Max: 2},
	points.FieldPressure:    {Min: 980, Max: 1040},
}

// GradientFor returns the colour gradient used for a scalar field.
// Unknown fields get a grey-to-white ramp.
func GradientFor(field string) Gradient {
	switch field {
	case points.FieldTemperature:
		return temperatureGradient
	case points.FieldSalinity:
		return salinityGradient
	case points.FieldSSH:
		return sshGradient
	case points.FieldPressure:
		return pressureGradient
	default:
		return defaultGradient
	}
}

// DomainFor returns the fixed value range for a known field.
func DomainFor(field string) (Domain, bool) {
	d, ok := fieldDomains[field]
	return d, ok
}

// ColorFor maps a field value to its display colour: normalise over the
// field domain, apply the contrast transform, then look up the gradient.
func ColorFor(field string, d Domain, v float64) color.RGBA {
	return GradientFor(field).At(Contrast(d.Normalize(v)))
}
