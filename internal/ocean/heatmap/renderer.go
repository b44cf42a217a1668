// Package heatmap turns a sampled frame into colour-mapped blobs for one
// scalar field.
package heatmap

import (
	"image/color"
	"math"

	"github.com/banshee-data/oceanview/internal/config"
	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// Blob size and opacity bounds.
const (
	minRadius  = 5.0
	maxRadius  = 50.0
	minOpacity = 0.3
	maxOpacity = 1.0
	// blurSigmaRatio relates the blur sigma to the blob radius.
	blurSigmaRatio = 0.5
)

// Options control screen-space decimation and filtering.
type Options struct {
	BaseSpacing  float64 // pixel spacing at zoom 10
	MinSpacing   float64
	MaxSpacing   float64
	DepthEpsilon float64
	CullMargin   float64 // pixels
}

// DefaultOptions returns the stock decimation settings.
func DefaultOptions() Options {
	return OptionsFromConfig(config.EmptyTuningConfig())
}

// OptionsFromConfig reads the heatmap settings from a tuning config.
func OptionsFromConfig(cfg *config.TuningConfig) Options {
	return Options{
		BaseSpacing:  cfg.GetHeatmapBaseSpacing(),
		MinSpacing:   cfg.GetHeatmapMinSpacing(),
		MaxSpacing:   cfg.GetHeatmapMaxSpacing(),
		DepthEpsilon: cfg.GetDepthEpsilon(),
		CullMargin:   cfg.GetCullMarginPixels(),
	}
}

// Blob is one drawable heatmap primitive in screen pixels.
type Blob struct {
	X, Y       float64
	Radius     float64
	Blur       float64 // gaussian sigma
	Color      color.RGBA
	Opacity    float64
	Value      float64 // raw field value
	Normalized float64 // value after normalisation, before contrast
	Lat, Lon   float64
}

type cellKey struct{ x, y int64 }

type renderKey struct {
	first *points.DataPoint
	n     int
	field string
	cam   geoproj.Camera
	scale float64
	depth float64
}

// Renderer owns the occupancy buffer and a single-entry result cache. It is
// not safe for concurrent use; the scene engine serialises calls.
type Renderer struct {
	opts Options

	occupied map[cellKey]struct{}

	lastKey   renderKey
	lastBlobs []Blob
	hasLast   bool

	hits, misses uint64
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts:     opts,
		occupied: make(map[cellKey]struct{}),
	}
}

// Spacing returns the screen decimation cell size for a zoom level:
// base·2^(zoom-10) clamped to [min, max].
func (r *Renderer) Spacing(zoom float64) float64 {
	s := r.opts.BaseSpacing * math.Exp2(zoom-10)
	return clamp(s, r.opts.MinSpacing, r.opts.MaxSpacing)
}

// Render emits one blob per occupied screen cell for field. Points whose
// depth differs from selectedDepth by more than the epsilon, points outside
// the culled viewport, and points missing the field are skipped. Identical
// consecutive calls return the cached result; any camera change recomputes.
func (r *Renderer) Render(sampled []points.DataPoint, field string, cam geoproj.Camera, scale, selectedDepth float64) []Blob {
	if len(sampled) == 0 || cam.Degenerate() {
		return nil
	}

	key := renderKey{first: &sampled[0], n: len(sampled), field: field, cam: cam, scale: scale, depth: selectedDepth}
	if r.hasLast && r.lastKey == key {
		r.hits++
		return r.lastBlobs
	}
	r.misses++

	blobs := r.render(sampled, field, cam, scale, selectedDepth)
	r.lastKey, r.lastBlobs, r.hasLast = key, blobs, true
	return blobs
}

// Invalidate drops the cached result.
func (r *Renderer) Invalidate() {
	r.hasLast = false
	r.lastBlobs = nil
}

// CacheStats returns how many Render calls were served from the cached
// result and how many recomputed.
func (r *Renderer) CacheStats() (hits, misses uint64) {
	return r.hits, r.misses
}

func (r *Renderer) render(sampled []points.DataPoint, field string, cam geoproj.Camera, scale, selectedDepth float64) []Blob {
	domain, ok := DomainFor(field)
	if !ok {
		domain, ok = dataDomain(sampled, field)
		if !ok {
			return nil
		}
	}
	grad := GradientFor(field)

	spacing := r.Spacing(cam.Zoom)
	radius := clamp(spacing/2*scale, minRadius, maxRadius)
	opacity := clamp(0.85*scale, minOpacity, maxOpacity)

	clear(r.occupied)
	var blobs []Blob
	for i := range sampled {
		p := &sampled[i]
		if !p.Valid() {
			continue
		}
		v, ok := p.Scalar(field)
		if !ok {
			continue
		}
		if p.HasDepth && math.Abs(p.Depth-selectedDepth) > r.opts.DepthEpsilon {
			continue
		}
		x, y := geoproj.Project(p.Lat, p.Lon, cam)
		if !geoproj.InViewport(x, y, cam, r.opts.CullMargin) {
			continue
		}
		ck := cellKey{x: int64(math.Floor(x / spacing)), y: int64(math.Floor(y / spacing))}
		if _, taken := r.occupied[ck]; taken {
			continue
		}
		r.occupied[ck] = struct{}{}

		n := domain.Normalize(v)
		blobs = append(blobs, Blob{
			X: x, Y: y,
			Radius:     radius,
			Blur:       radius * blurSigmaRatio,
			Color:      grad.At(Contrast(n)),
			Opacity:    opacity,
			Value:      v,
			Normalized: n,
			Lat:        p.Lat,
			Lon:        p.Lon,
		})
	}
	return blobs
}

// dataDomain is the observed value range of field, used for fields without a
// fixed domain.
func dataDomain(pts []points.DataPoint, field string) (Domain, bool) {
	d := Domain{Min: math.Inf(1), Max: math.Inf(-1)}
	for i := range pts {
		v, ok := pts[i].Scalar(field)
		if !ok {
			continue
		}
		d.Min = math.Min(d.Min, v)
		d.Max = math.Max(d.Max, v)
	}
	if math.IsInf(d.Min, 1) {
		return Domain{}, false
	}
	return d, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
