// Package lod decimates frame point lists by zoom and caches the result per
// frame.
package lod

import "github.com/banshee-data/oceanview/internal/ocean/points"

// Stride returns the take-every-k factor for a zoom level. It is
// non-increasing in zoom.
func Stride(zoom float64) int {
	switch {
	case zoom < 7:
		return 5
	case zoom < 9:
		return 3
	case zoom < 11:
		return 2
	default:
		return 1
	}
}

// Sample keeps every Stride(zoom)-th point in original order. When the stride
// is 1 the input slice itself is returned.
func Sample(pts []points.DataPoint, zoom float64) []points.DataPoint {
	k := Stride(zoom)
	if k == 1 {
		return pts
	}
	out := make([]points.DataPoint, 0, (len(pts)+k-1)/k)
	for i := 0; i < len(pts); i += k {
		out = append(out, pts[i])
	}
	return out
}
