package vectorfield

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

var logf = monitoring.Tagged("vectorfield")

// Snapshot is the pair of fields built for one frame. Snapshots are never
// modified after they are published.
type Snapshot struct {
	Generation uint64
	FrameIndex int
	Identity   points.Identity
	Currents   *Field
	Wind       *Field
	BuiltIn    time.Duration
}

// WorkerStats counts builds by outcome.
type WorkerStats struct {
	Submitted uint64
	Published uint64
	Discarded uint64 // finished after a newer build was published
	Failed    uint64 // cancelled before completion
}

// Worker builds vector fields off the paint path. Each Submit starts a build
// tagged with a new generation. A finished build is published unless a newer
// generation has already been published, so a failed or cancelled newer
// build never pins an older snapshot in place. Readers fetch the latest
// result with Snapshot.
type Worker struct {
	opts Options

	mu        sync.Mutex
	gen       uint64 // last generation handed out
	published uint64 // generation of snap
	snap      *Snapshot
	stats     WorkerStats
	inflight  sync.WaitGroup

	// beforePublish runs after a build finishes and before it is compared
	// against the published generation. Tests use it to force interleavings.
	beforePublish func(gen uint64)
}

// NewWorker creates a worker with the given aggregation options.
func NewWorker(opts Options) *Worker {
	return &Worker{opts: opts}
}

// Submit starts building fields for frame in the background and returns the
// generation assigned to it.
func (w *Worker) Submit(ctx context.Context, frame *points.Frame) uint64 {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.stats.Submitted++
	w.mu.Unlock()

	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		if _, err := w.run(ctx, gen, frame); err != nil {
			logf("build gen=%d frame=%d failed: %v", gen, frameIndex(frame), err)
		}
	}()
	return gen
}

// BuildNow builds fields for frame on the calling goroutine and publishes
// them. Builds still in flight for older generations are discarded when they
// finish.
func (w *Worker) BuildNow(ctx context.Context, frame *points.Frame) (*Snapshot, error) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.stats.Submitted++
	w.mu.Unlock()
	return w.run(ctx, gen, frame)
}

// Snapshot returns the most recently published fields, or nil before the
// first build completes.
func (w *Worker) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Wait blocks until every submitted build has finished.
func (w *Worker) Wait() {
	w.inflight.Wait()
}

// Stats returns the build counters.
func (w *Worker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Worker) run(ctx context.Context, gen uint64, frame *points.Frame) (*Snapshot, error) {
	start := time.Now()

	var pts []points.DataPoint
	if frame != nil {
		pts = frame.Points
	}

	var currents, wind *Field
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := BuildContext(gctx, pts, points.VectorCurrent, w.opts)
		currents = f
		return err
	})
	g.Go(func() error {
		f, err := BuildContext(gctx, pts, points.VectorWind, w.opts)
		wind = f
		return err
	})
	if err := g.Wait(); err != nil {
		w.mu.Lock()
		w.stats.Failed++
		w.mu.Unlock()
		return nil, err
	}

	snap := &Snapshot{
		Generation: gen,
		Currents:   currents,
		Wind:       wind,
		BuiltIn:    time.Since(start),
	}
	if frame != nil {
		snap.FrameIndex, snap.Identity = frame.Index, frame.Identity()
		for _, f := range []*Field{currents, wind} {
			f.FrameIndex, f.Identity = frame.Index, frame.Identity()
		}
	}

	if w.beforePublish != nil {
		w.beforePublish(gen)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen < w.published {
		w.stats.Discarded++
		logf("discarding stale build gen=%d (published %d)", gen, w.published)
		return snap, nil
	}
	w.snap, w.published = snap, gen
	w.stats.Published++
	return snap, nil
}

func frameIndex(f *points.Frame) int {
	if f == nil {
		return -1
	}
	return f.Index
}
