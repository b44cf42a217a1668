// Package particles advects a fixed pool of particles through a vector field
// to visualise flow.
//
// The simulation is a pure function of its inputs: Tick takes a State and
// returns the next one without touching the original, and its randomness is
// derived from the state's seed and tick count, so a run can be replayed
// exactly.
package particles

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/oceanview/internal/config"
)

// ColorMode selects how particles are coloured.
type ColorMode int

const (
	// ColorBySpeed maps speed through a two-stop gradient.
	ColorBySpeed ColorMode = iota
	// ColorFlat paints every particle with Params.FlatColor.
	ColorFlat
)

func (m ColorMode) String() string {
	switch m {
	case ColorBySpeed:
		return "speed"
	case ColorFlat:
		return "other"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
}

// ParseColorMode maps "speed" and "other" to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "speed":
		return ColorBySpeed, nil
	case "other", "flat":
		return ColorFlat, nil
	default:
		return ColorBySpeed, fmt.Errorf("unknown color mode %q", s)
	}
}

// Params are the simulation constants. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// TimeStep scales the sampled velocity into normalised viewport units
	// per tick.
	TimeStep float64
	// VectorScale is the caller's speed multiplier.
	VectorScale float64
	// SearchDegrees is the radius around a particle in which a field sample
	// is accepted, measured as a longitude span.
	SearchDegrees float64
	// New lifetimes are drawn from [MinAge, MaxAge).
	MinAge int
	MaxAge int

	ColorMode ColorMode
	FlatColor color.RGBA
	// TrailPixels is the trail length drawn for a particle moving at the
	// field's maximum speed.
	TrailPixels float64
}

// DefaultParams returns the stock simulation constants.
func DefaultParams() Params {
	return ParamsFromConfig(config.EmptyTuningConfig())
}

// ParamsFromConfig reads simulation constants from a tuning config.
func ParamsFromConfig(cfg *config.TuningConfig) Params {
	return Params{
		TimeStep:      cfg.GetParticleTimeStep(),
		VectorScale:   1,
		SearchDegrees: cfg.GetParticleSearchDegrees(),
		MinAge:        cfg.GetParticleMinAge(),
		MaxAge:        cfg.GetParticleMaxAge(),
		ColorMode:     ColorBySpeed,
		FlatColor:     color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		TrailPixels:   12,
	}
}
