package particles

import (
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/heatmap"
)

// Particle is one tracer in normalised viewport coordinates. Velocity is the
// last sampled field vector (U east, V north).
type Particle struct {
	X, Y   float64
	U, V   float64
	Age    int
	MaxAge int
}

// Expired reports whether the particle must be respawned: it has lived its
// lifetime or left the unit square.
func (p Particle) Expired() bool {
	return p.Age >= p.MaxAge || p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1
}

// Speed returns the magnitude of the held velocity.
func (p Particle) Speed() float64 {
	return math.Hypot(p.U, p.V)
}

// State is the full simulation state. Seed and Tick together determine the
// random stream used by the next Tick.
type State struct {
	Particles []Particle
	Seed      uint64
	Tick      uint64
}

// Drawable is a particle ready to paint, in screen pixels. The trail runs
// from (TailX, TailY) to (X, Y).
type Drawable struct {
	X, Y         float64
	TailX, TailY float64
	Angle        float64 // screen-space heading in radians, 0 = east, clockwise
	Speed        float64
	Color        color.RGBA
	Respawned    bool
}

// NewState creates a pool of n particles at random positions with staggered
// ages so they do not all respawn on the same tick. The pool size never
// changes afterwards.
func NewState(n int, seed uint64, p Params) State {
	if n < 0 {
		n = 0
	}
	rng := rand.New(rand.NewPCG(seed, 0))
	s := State{Particles: make([]Particle, n), Seed: seed}
	for i := range s.Particles {
		pt := spawn(rng, p)
		pt.Age = rng.IntN(pt.MaxAge)
		s.Particles[i] = pt
	}
	return s
}

// Tick advances every particle one step and returns the new state with the
// primitives to draw. The input state is not modified.
//
// An expired particle is respawned at a fresh random position with age 0 and
// is not advected on that tick. A live particle takes the nearest field
// sample within the search radius and moves by velocity·scale·timeStep; with
// no sample in range it holds its last velocity without moving. Live
// particles always age by one.
func Tick(s State, sampler *Sampler, cam geoproj.Camera, p Params) (State, []Drawable) {
	next := State{
		Particles: make([]Particle, len(s.Particles)),
		Seed:      s.Seed,
		Tick:      s.Tick + 1,
	}
	rng := rand.New(rand.NewPCG(s.Seed, next.Tick))
	step := p.VectorScale * p.TimeStep
	maxSpeed := sampler.MaxSpeed()

	drawables := make([]Drawable, 0, len(s.Particles))
	for i, pt := range s.Particles {
		respawned := false
		if pt.Expired() {
			pt = spawn(rng, p)
			respawned = true
		} else {
			if fs, ok := sampler.Nearest(pt.X, pt.Y); ok {
				pt.U, pt.V = fs.U, fs.V
				pt.X += pt.U * step
				pt.Y -= pt.V * step // screen y grows southward
			}
			pt.Age++
		}
		next.Particles[i] = pt

		if cam.Degenerate() || pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
			continue
		}
		drawables = append(drawables, drawable(pt, cam, p, maxSpeed, respawned))
	}
	return next, drawables
}

func spawn(rng *rand.Rand, p Params) Particle {
	lo, hi := p.MinAge, p.MaxAge
	if lo < 1 {
		lo = 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return Particle{
		X:      rng.Float64(),
		Y:      rng.Float64(),
		MaxAge: lo + rng.IntN(hi-lo),
	}
}

func drawable(pt Particle, cam geoproj.Camera, p Params, maxSpeed float64, respawned bool) Drawable {
	x, y := pt.X*cam.Width, pt.Y*cam.Height
	speed := pt.Speed()
	d := Drawable{X: x, Y: y, TailX: x, TailY: y, Speed: speed, Respawned: respawned}

	rel := 0.0
	if maxSpeed > 0 {
		rel = math.Min(speed/maxSpeed, 1)
	}
	if speed > 0 {
		d.Angle = math.Atan2(-pt.V, pt.U)
		trail := rel * p.TrailPixels * p.VectorScale
		d.TailX = x - math.Cos(d.Angle)*trail
		d.TailY = y - math.Sin(d.Angle)*trail
	}

	if p.ColorMode == ColorFlat {
		d.Color = p.FlatColor
	} else {
		d.Color = heatmap.SpeedGradient.At(rel)
	}
	return d
}
