package scene

import (
	"sync"
	"time"

	"github.com/banshee-data/oceanview/internal/timeutil"
)

// Throttle admits at most one call per interval.
type Throttle struct {
	clock    timeutil.Clock
	interval time.Duration

	mu     sync.Mutex
	last   time.Time
	primed bool
}

// NewThrottle creates a throttle on clock. A nil clock uses the wall clock.
func NewThrottle(clock timeutil.Clock, interval time.Duration) *Throttle {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Throttle{clock: clock, interval: interval}
}

// Allow reports whether a call may proceed now, and if so starts a new
// interval.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	if t.primed && now.Sub(t.last) < t.interval {
		return false
	}
	t.last, t.primed = now, true
	return true
}

// Reset lets the next call through immediately.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.primed = false
	t.mu.Unlock()
}
