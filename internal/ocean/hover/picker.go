// Package hover finds the observation under the pointer.
package hover

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// DefaultThresholdDegrees is the pick radius used when none is configured.
const DefaultThresholdDegrees = 0.1

// Nearest scans every valid point and returns the one closest to (lat, lon)
// by Euclidean distance in degrees, if it lies within threshold. Ties go to
// the earlier point.
func Nearest(lat, lon float64, pts []points.DataPoint, threshold float64) (points.DataPoint, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range pts {
		p := &pts[i]
		if !p.Valid() {
			continue
		}
		d := math.Hypot(p.Lat-lat, p.Lon-lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > threshold {
		return points.DataPoint{}, false
	}
	return pts[best], true
}

// NearestInFrame runs Nearest over a frame's full point list.
func NearestInFrame(lat, lon float64, f *points.Frame, threshold float64) (points.DataPoint, bool) {
	if f == nil {
		return points.DataPoint{}, false
	}
	return Nearest(lat, lon, f.Points, threshold)
}

// pointExtent is the edge of the rectangle stored per point, in degrees.
const pointExtent = 1e-9

type indexedPoint struct {
	seq int
	p   *points.DataPoint
}

func (ip *indexedPoint) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{ip.p.Lon, ip.p.Lat}, []float64{pointExtent, pointExtent})
	return rect
}

// Index answers the same query as Nearest from an R-tree built once per
// frame, for callers that pick many times against one frame.
type Index struct {
	tree *rtreego.Rtree
	pts  []points.DataPoint
	n    int
}

// NewIndex indexes the valid points of pts. The slice is retained and must
// not be modified.
func NewIndex(pts []points.DataPoint) *Index {
	idx := &Index{tree: rtreego.NewTree(2, 25, 50), pts: pts}
	for i := range pts {
		if !pts[i].Valid() {
			continue
		}
		idx.tree.Insert(&indexedPoint{seq: i, p: &pts[i]})
		idx.n++
	}
	return idx
}

// Len returns the number of indexed points.
func (x *Index) Len() int {
	return x.n
}

// Nearest returns the same result as the package-level Nearest over the
// indexed points.
func (x *Index) Nearest(lat, lon, threshold float64) (points.DataPoint, bool) {
	if x.n == 0 || !(threshold >= 0) {
		return points.DataPoint{}, false
	}
	// Pad so points lying exactly on the threshold still intersect.
	r := threshold + 2*pointExtent
	query, err := rtreego.NewRect(rtreego.Point{lon - r, lat - r}, []float64{2 * r, 2 * r})
	if err != nil {
		return points.DataPoint{}, false
	}

	var best *indexedPoint
	bestDist := math.Inf(1)
	for _, sp := range x.tree.SearchIntersect(query) {
		ip := sp.(*indexedPoint)
		d := math.Hypot(ip.p.Lat-lat, ip.p.Lon-lon)
		if d > threshold {
			continue
		}
		if d < bestDist || (d == bestDist && ip.seq < best.seq) {
			best, bestDist = ip, d
		}
	}
	if best == nil {
		return points.DataPoint{}, false
	}
	return *best.p, true
}
