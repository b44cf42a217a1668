package particles

import (
	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/vectorfield"
)

// Engine owns one particle pool and the sampler for its current field and
// camera. The sampler is rebuilt lazily when either changes. Engine is not
// safe for concurrent use.
type Engine struct {
	params Params
	state  State

	field     *vectorfield.Field
	sampler   *Sampler
	samplerAt geoproj.Camera
	rebuilds  int
}

// NewEngine creates an engine with a pool of n particles.
func NewEngine(n int, seed uint64, p Params) *Engine {
	return &Engine{params: p, state: NewState(n, seed, p)}
}

// SetField swaps the vector field. Particles keep their positions.
func (e *Engine) SetField(f *vectorfield.Field) {
	if f == e.field {
		return
	}
	e.field = f
	e.sampler = nil
}

// SetParams replaces the simulation constants for subsequent ticks.
func (e *Engine) SetParams(p Params) {
	if p.SearchDegrees != e.params.SearchDegrees {
		e.sampler = nil
	}
	e.params = p
}

// Step advances the pool by one tick under cam.
func (e *Engine) Step(cam geoproj.Camera) []Drawable {
	if e.sampler == nil || cam != e.samplerAt {
		e.sampler = NewSampler(e.field, cam, e.params.SearchDegrees)
		e.samplerAt = cam
		e.rebuilds++
	}
	var out []Drawable
	e.state, out = Tick(e.state, e.sampler, cam, e.params)
	return out
}

// State returns the current simulation state. The particle slice is shared
// with the engine until the next Step replaces it.
func (e *Engine) State() State {
	return e.state
}

// SamplerRebuilds counts how many times the sampler has been rebuilt.
func (e *Engine) SamplerRebuilds() int {
	return e.rebuilds
}
