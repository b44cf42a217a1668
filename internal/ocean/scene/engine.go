// Package scene is the host-facing façade of the visualisation engine. It
// holds the current frame, routes it through the frame cache, heatmap
// renderers, vector field worker and particle engines, and answers hover
// queries at a bounded rate.
package scene

import (
	"context"
	"sync"

	"github.com/banshee-data/oceanview/internal/config"
	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/heatmap"
	"github.com/banshee-data/oceanview/internal/ocean/hover"
	"github.com/banshee-data/oceanview/internal/ocean/lod"
	"github.com/banshee-data/oceanview/internal/ocean/particles"
	"github.com/banshee-data/oceanview/internal/ocean/points"
	"github.com/banshee-data/oceanview/internal/ocean/vectorfield"
	"github.com/banshee-data/oceanview/internal/timeutil"
)

var logf = monitoring.Tagged("scene")

// HeatmapLayer is the blob set for one visible scalar layer.
type HeatmapLayer struct {
	Layer Layer
	Field string
	Blobs []heatmap.Blob
}

// Output is everything the host paints for one render call.
type Output struct {
	FrameIndex int
	Sampled    int // points left after LOD sampling

	Heatmaps      []HeatmapLayer
	Currents      []particles.Drawable
	Wind          []particles.Drawable
	CurrentArrows []Arrow
	WindArrows    []Arrow
	Stations      []StationMarker

	// FieldGeneration identifies the vector field snapshot used, 0 if none
	// has been built yet.
	FieldGeneration uint64
}

// Stats is a snapshot of the engine's internal counters.
type Stats struct {
	Cache        lod.Stats
	CachedFrames []lod.Key // next eviction first
	Worker       vectorfield.WorkerStats

	HeatmapHits     uint64
	HeatmapMisses   uint64
	SamplerRebuilds int
}

// Options configure an Engine. Zero values take defaults.
type Options struct {
	Config *config.TuningConfig
	Clock  timeutil.Clock
	Seed   uint64
}

// Engine is safe for concurrent use: a playback goroutine may call SetFrame
// while the paint loop calls Render and Hover.
type Engine struct {
	cfg *config.TuningConfig

	mu        sync.Mutex
	frame     *points.Frame
	cache     *lod.FrameCache
	renderers map[string]*heatmap.Renderer
	heatOpts  heatmap.Options
	worker    *vectorfield.Worker
	currents  *particles.Engine
	wind      *particles.Engine
	params    particles.Params

	hoverMu        sync.Mutex
	throttle       *Throttle
	hoverThreshold float64
	lastHover      points.DataPoint
	lastHoverOK    bool
}

// New creates an engine.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	policy, err := lod.ParsePolicy(cfg.GetCachePolicy())
	if err != nil {
		logf("%v, using fifo", err)
	}
	params := particles.ParamsFromConfig(cfg)
	n := cfg.GetParticleCount()

	return &Engine{
		cfg:            cfg,
		cache:          lod.NewFrameCache(cfg.GetCacheCapacity(), policy),
		renderers:      make(map[string]*heatmap.Renderer),
		heatOpts:       heatmap.OptionsFromConfig(cfg),
		worker:         vectorfield.NewWorker(vectorfield.OptionsFromConfig(cfg)),
		currents:       particles.NewEngine(n, opts.Seed, params),
		wind:           particles.NewEngine(n, opts.Seed+1, params),
		params:         params,
		throttle:       NewThrottle(opts.Clock, cfg.GetHoverInterval()),
		hoverThreshold: cfg.GetHoverThresholdDegrees(),
	}
}

// SetFrame makes f the current frame and starts building its vector fields
// in the background. Renders before the build finishes keep using the
// previous fields.
func (e *Engine) SetFrame(ctx context.Context, f *points.Frame) {
	e.setFrame(f)
	e.worker.Submit(ctx, f)
}

// ShowFrame makes f the current frame and builds its vector fields before
// returning, for callers that render each frame exactly once.
func (e *Engine) ShowFrame(ctx context.Context, f *points.Frame) (*vectorfield.Snapshot, error) {
	e.setFrame(f)
	return e.worker.BuildNow(ctx, f)
}

func (e *Engine) setFrame(f *points.Frame) {
	e.mu.Lock()
	e.frame = f
	for _, r := range e.renderers {
		r.Invalidate()
	}
	e.mu.Unlock()

	e.hoverMu.Lock()
	e.lastHover, e.lastHoverOK = points.DataPoint{}, false
	e.throttle.Reset()
	e.hoverMu.Unlock()
}

// Frame returns the current frame.
func (e *Engine) Frame() *points.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// WaitForFields blocks until every submitted vector field build is done.
func (e *Engine) WaitForFields() {
	e.worker.Wait()
}

// Render produces the drawables for the current frame under cam. Each call
// advances the particle simulation of the visible flow layers by one tick.
func (e *Engine) Render(cam geoproj.Camera, layers LayerConfig, selectedDepth float64) Output {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := Output{FrameIndex: -1}
	f := e.frame
	if f == nil {
		return out
	}
	out.FrameIndex = f.Index

	sampled := e.cache.GetFrame(f, cam.Zoom)
	out.Sampled = len(sampled)

	for _, l := range layers.VisibleLayers() {
		field, ok := l.Field()
		if !ok {
			continue
		}
		blobs := e.renderer(field).Render(sampled, field, cam, layers.HeatmapScale, selectedDepth)
		out.Heatmaps = append(out.Heatmaps, HeatmapLayer{Layer: l, Field: field, Blobs: blobs})
	}

	margin := e.cfg.GetCullMarginPixels()
	if layers.IsVisible(LayerStations) {
		out.Stations = Stations(sampled, cam, margin)
	}

	snap := e.worker.Snapshot()
	if snap == nil {
		return out
	}
	out.FieldGeneration = snap.Generation

	params := e.params
	params.VectorScale = layers.VectorScale
	params.ColorMode = layers.ColorMode

	if layers.IsVisible(LayerOceanCurrents) {
		e.currents.SetField(snap.Currents)
		e.currents.SetParams(params)
		out.Currents = e.currents.Step(cam)
		out.CurrentArrows = Arrows(snap.Currents, cam, layers.VectorScale, margin, params.ColorMode, params.FlatColor)
	}
	if layers.IsVisible(LayerWindVelocity) {
		e.wind.SetField(snap.Wind)
		e.wind.SetParams(params)
		out.Wind = e.wind.Step(cam)
		out.WindArrows = Arrows(snap.Wind, cam, layers.VectorScale, margin, params.ColorMode, params.FlatColor)
	}
	return out
}

// Hover returns the observation nearest to (lat, lon) in the full current
// frame. Calls arriving within the hover interval of the last computed one
// return that earlier result.
func (e *Engine) Hover(lat, lon float64) (points.DataPoint, bool) {
	e.hoverMu.Lock()
	defer e.hoverMu.Unlock()

	if !e.throttle.Allow() {
		return e.lastHover, e.lastHoverOK
	}
	f := e.Frame()
	e.lastHover, e.lastHoverOK = hover.NearestInFrame(lat, lon, f, e.hoverThreshold)
	return e.lastHover, e.lastHoverOK
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Cache:        e.cache.Stats(),
		CachedFrames: e.cache.Keys(),
		Worker:       e.worker.Stats(),
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.renderers {
		hits, misses := r.CacheStats()
		s.HeatmapHits += hits
		s.HeatmapMisses += misses
	}
	s.SamplerRebuilds = e.currents.SamplerRebuilds() + e.wind.SamplerRebuilds()
	return s
}

// renderer returns the heatmap renderer for field, creating it on first use.
// One renderer per field keeps each layer's result cache from evicting the
// others. Called with e.mu held.
func (e *Engine) renderer(field string) *heatmap.Renderer {
	r, ok := e.renderers[field]
	if !ok {
		r = heatmap.NewRenderer(e.heatOpts)
		e.renderers[field] = r
	}
	return r
}
