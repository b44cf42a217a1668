package scene

import (
	"image/color"
	"math"

	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/heatmap"
	"github.com/banshee-data/oceanview/internal/ocean/particles"
	"github.com/banshee-data/oceanview/internal/ocean/points"
	"github.com/banshee-data/oceanview/internal/ocean/vectorfield"
)

const (
	minArrowPx = 4.0
	maxArrowPx = 40.0
	// arrowPx is the arrow length for the field's fastest sample at unit
	// vector scale.
	arrowPx = 24.0
)

// Arrow is a static vector glyph for one field sample, in screen pixels.
type Arrow struct {
	X, Y   float64
	Angle  float64 // screen heading in radians, 0 = east, clockwise
	Length float64
	Speed  float64
	Color  color.RGBA
}

// StationMarker marks an observation location.
type StationMarker struct {
	X, Y     float64
	Lat, Lon float64
}

// Arrows lays out one arrow per field sample that projects inside the
// viewport margin.
func Arrows(f *vectorfield.Field, cam geoproj.Camera, scale, marginPx float64, mode particles.ColorMode, flat color.RGBA) []Arrow {
	if f.Empty() || cam.Degenerate() {
		return nil
	}
	out := make([]Arrow, 0, len(f.Samples))
	for _, s := range f.Samples {
		x, y := geoproj.Project(s.Lat, s.Lon, cam)
		if !geoproj.InViewport(x, y, cam, marginPx) {
			continue
		}
		rel := 0.0
		if f.MaxSpeed > 0 {
			rel = s.Speed / f.MaxSpeed
		}
		length := math.Min(math.Max(rel*arrowPx*scale, minArrowPx), maxArrowPx)
		a := Arrow{
			X: x, Y: y,
			Angle:  math.Atan2(-s.V, s.U),
			Length: length,
			Speed:  s.Speed,
			Color:  flat,
		}
		if mode == particles.ColorBySpeed {
			a.Color = heatmap.SpeedGradient.At(rel)
		}
		out = append(out, a)
	}
	return out
}

// Stations returns a marker for every valid point inside the viewport margin.
// Points outside the margin's geographic bounds are dropped before they are
// projected.
func Stations(pts []points.DataPoint, cam geoproj.Camera, marginPx float64) []StationMarker {
	rect, ok := geoproj.BoundsWithMargin(cam, marginPx, marginPx)
	if !ok {
		return nil
	}
	var out []StationMarker
	for i := range pts {
		p := &pts[i]
		if !p.Valid() || !geoproj.Contains(rect, p.Lat, p.Lon) {
			continue
		}
		x, y := geoproj.Project(p.Lat, p.Lon, cam)
		if !geoproj.InViewport(x, y, cam, marginPx) {
			continue
		}
		out = append(out, StationMarker{X: x, Y: y, Lat: p.Lat, Lon: p.Lon})
	}
	return out
}
