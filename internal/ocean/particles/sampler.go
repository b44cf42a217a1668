package particles

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/vectorfield"
)

// pointExtent is the edge of the degenerate rectangle stored per sample;
// rtreego rejects zero-length rectangles.
const pointExtent = 1e-6

// sampleMargin keeps samples slightly off-screen so particles near the edge
// still find a vector.
const sampleMargin = 0.5

type indexedSample struct {
	x, y float64 // screen pixels
	seq  int
	s    vectorfield.Sample
}

func (is *indexedSample) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{is.x, is.y}, []float64{pointExtent, pointExtent})
	return rect
}

// Sampler answers nearest-sample queries for particle positions. It is built
// for one field and one camera and is read-only afterwards.
type Sampler struct {
	tree     *rtreego.Rtree
	width    float64
	height   float64
	radiusPx float64
	maxSpeed float64
	n        int
}

// NewSampler projects the field's samples through cam and indexes them.
// Samples far outside the viewport are left out, most of them by a
// geographic bounds check before projection. A nil field or
// degenerate camera gives a sampler that never finds anything.
func NewSampler(field *vectorfield.Field, cam geoproj.Camera, searchDegrees float64) *Sampler {
	s := &Sampler{tree: rtreego.NewTree(2, 25, 50)}
	if field.Empty() || cam.Degenerate() {
		return s
	}
	s.width, s.height = cam.Width, cam.Height
	s.radiusPx = geoproj.DegreesToPixels(searchDegrees, cam)
	s.maxSpeed = field.MaxSpeed

	marginX, marginY := cam.Width*sampleMargin, cam.Height*sampleMargin
	rect, _ := geoproj.BoundsWithMargin(cam, marginX, marginY)
	for i, fs := range field.Samples {
		if !geoproj.Contains(rect, fs.Lat, fs.Lon) {
			continue
		}
		x, y := geoproj.Project(fs.Lat, fs.Lon, cam)
		if geoproj.IsSentinel(x, y) {
			continue
		}
		if x < -marginX || x > cam.Width+marginX || y < -marginY || y > cam.Height+marginY {
			continue
		}
		s.tree.Insert(&indexedSample{x: x, y: y, seq: i, s: fs})
		s.n++
	}
	return s
}

// Len returns the number of indexed samples.
func (s *Sampler) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

// MaxSpeed returns the fastest sample speed in the source field.
func (s *Sampler) MaxSpeed() float64 {
	if s == nil {
		return 0
	}
	return s.maxSpeed
}

// Nearest returns the closest sample to the normalised position (nx, ny)
// within the search radius. Ties go to the sample that came first in the
// field.
func (s *Sampler) Nearest(nx, ny float64) (vectorfield.Sample, bool) {
	if s == nil || s.n == 0 || !(s.radiusPx > 0) {
		return vectorfield.Sample{}, false
	}
	px, py := nx*s.width, ny*s.height
	r := s.radiusPx
	pad := r + 2*pointExtent
	query, err := rtreego.NewRect(rtreego.Point{px - pad, py - pad}, []float64{2 * pad, 2 * pad})
	if err != nil {
		return vectorfield.Sample{}, false
	}

	var best *indexedSample
	bestDist := math.Inf(1)
	for _, sp := range s.tree.SearchIntersect(query) {
		is := sp.(*indexedSample)
		d := math.Hypot(is.x-px, is.y-py)
		if d > r {
			continue
		}
		if d < bestDist || (d == bestDist && is.seq < best.seq) {
			best, bestDist = is, d
		}
	}
	if best == nil {
		return vectorfield.Sample{}, false
	}
	return best.s, true
}
