// Package playback steps through an ordered frame sequence at a controllable
// rate, handing each frame to a sink such as the scene engine.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/points"
	"github.com/banshee-data/oceanview/internal/timeutil"
)

var logf = monitoring.Tagged("playback")

var (
	// ErrNoFrames is returned when the player has nothing to show.
	ErrNoFrames = errors.New("no frames")
	// ErrFrameIndex is returned when seeking outside the sequence.
	ErrFrameIndex = errors.New("frame index out of range")
	// ErrEnd is returned by Step at the last frame when looping is off.
	ErrEnd = errors.New("end of sequence")
)

// Sink receives the frame to display.
type Sink interface {
	SetFrame(ctx context.Context, f *points.Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f *points.Frame)

// SetFrame calls fn.
func (fn SinkFunc) SetFrame(ctx context.Context, f *points.Frame) { fn(ctx, f) }

// Status describes the player position and mode.
type Status struct {
	Current int
	Total   int
	Paused  bool
	Rate    float64
	Loop    bool
}

// Player advances through frames on a ticker. It starts paused at frame 0.
type Player struct {
	frames   []*points.Frame
	sink     Sink
	clock    timeutil.Clock
	interval time.Duration

	mu      sync.Mutex
	current int
	paused  bool
	rate    float64
	loop    bool

	rateChanged chan struct{}
}

// New creates a player. interval is the time between frames at rate 1. A nil
// clock uses the wall clock.
func New(frames []*points.Frame, sink Sink, clock timeutil.Clock, interval time.Duration) *Player {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Player{
		frames:      frames,
		sink:        sink,
		clock:       clock,
		interval:    interval,
		paused:      true,
		rate:        1,
		rateChanged: make(chan struct{}, 1),
	}
}

// Play resumes automatic advancing.
func (p *Player) Play() {
	p.mu.Lock()
	p.paused = false
	cur := p.current
	p.mu.Unlock()
	logf("playing from frame %d", cur)
}

// Pause stops automatic advancing. Seek and Step still work.
func (p *Player) Pause() {
	p.mu.Lock()
	p.paused = true
	cur := p.current
	p.mu.Unlock()
	logf("paused at frame %d", cur)
}

// SetRate sets the playback speed multiplier.
func (p *Player) SetRate(rate float64) error {
	if !(rate > 0) {
		return fmt.Errorf("playback rate must be positive, got %v", rate)
	}
	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()

	select {
	case p.rateChanged <- struct{}{}:
	default:
	}
	return nil
}

// SetLoop controls whether playback wraps to frame 0 after the last frame.
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

// Seek jumps to frame i and shows it.
func (p *Player) Seek(ctx context.Context, i int) error {
	if len(p.frames) == 0 {
		return ErrNoFrames
	}
	if i < 0 || i >= len(p.frames) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrFrameIndex, i, len(p.frames))
	}
	p.mu.Lock()
	p.current = i
	p.mu.Unlock()

	p.emit(ctx, i)
	return nil
}

// Step advances one frame and shows it. At the last frame it wraps when
// looping, otherwise it returns ErrEnd and stays put.
func (p *Player) Step(ctx context.Context) error {
	if len(p.frames) == 0 {
		return ErrNoFrames
	}
	p.mu.Lock()
	next := p.current + 1
	if next >= len(p.frames) {
		if !p.loop {
			p.mu.Unlock()
			return ErrEnd
		}
		next = 0
	}
	p.current = next
	p.mu.Unlock()

	p.emit(ctx, next)
	return nil
}

// Status returns the current position and mode.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Current: p.current,
		Total:   len(p.frames),
		Paused:  p.paused,
		Rate:    p.rate,
		Loop:    p.loop,
	}
}

// Run shows the current frame, then advances on every tick while playing.
// It returns nil when a non-looping sequence ends and ctx.Err() when
// cancelled.
func (p *Player) Run(ctx context.Context) error {
	if len(p.frames) == 0 {
		return ErrNoFrames
	}
	ticker := p.clock.NewTicker(p.period())
	defer ticker.Stop()

	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	logf("starting playback: %d frames, interval %v", len(p.frames), p.period())
	p.emit(ctx, cur)

	for {
		select {
		case <-ctx.Done():
			logf("playback cancelled")
			return ctx.Err()
		case <-p.rateChanged:
			ticker.Reset(p.period())
		case <-ticker.C():
			p.mu.Lock()
			paused := p.paused
			p.mu.Unlock()
			if paused {
				continue
			}
			if err := p.Step(ctx); err != nil {
				if errors.Is(err, ErrEnd) {
					logf("playback complete")
					return nil
				}
				return err
			}
		}
	}
}

func (p *Player) period() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(float64(p.interval) / p.rate)
}

func (p *Player) emit(ctx context.Context, i int) {
	if p.sink != nil {
		p.sink.SetFrame(ctx, p.frames[i])
	}
}
