// Package monitor turns scene output into static charts: PNG plots for quick
// inspection and an interactive HTML heatmap. Data preparation is kept apart
// from rendering so it can be tested without touching the filesystem.
package monitor

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/heatmap"
	"github.com/banshee-data/oceanview/internal/ocean/particles"
	"github.com/banshee-data/oceanview/internal/ocean/scene"
)

// ScatterPoint is one marker in chart coordinates. Y grows upwards, so
// screen rows are flipped against the viewport height.
type ScatterPoint struct {
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Value  float64    `json:"value"`
	Radius float64    `json:"radius"`
	Color  color.RGBA `json:"-"`
}

// Summary holds descriptive statistics for a series.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// HeatmapChartData holds one heatmap layer prepared for charting.
type HeatmapChartData struct {
	Field   string         `json:"field"`
	Points  []ScatterPoint `json:"points"`
	Colors  []string       `json:"colors"` // gradient stops, low to high
	Summary Summary        `json:"summary"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
	Title   string         `json:"title"`
}

// Segment is a line from (X0, Y0) to (X1, Y1) in chart coordinates.
type Segment struct {
	X0, Y0 float64
	X1, Y1 float64
	Color  color.RGBA
}

// FlowChartData holds particles, arrows and stations prepared for charting.
type FlowChartData struct {
	Segments []Segment      `json:"-"`
	Stations []ScatterPoint `json:"stations"`
	Speeds   Summary        `json:"speeds"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Title    string         `json:"title"`
}

// Summarize computes count, extremes, mean and standard deviation. NaN
// values are ignored.
func Summarize(values []float64) Summary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Summary{}
	}
	s := Summary{
		Count: len(clean),
		Min:   floats.Min(clean),
		Max:   floats.Max(clean),
	}
	if len(clean) == 1 {
		s.Mean = clean[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(clean, nil)
	return s
}

// PrepareHeatmapChartData converts a rendered heatmap layer to chart points.
func PrepareHeatmapChartData(layer scene.HeatmapLayer, cam geoproj.Camera) *HeatmapChartData {
	grad := heatmap.GradientFor(layer.Field)
	stops := grad.Stops()
	colors := make([]string, len(stops))
	for i, s := range stops {
		colors[i] = HexColor(s.Color)
	}

	pts := make([]ScatterPoint, 0, len(layer.Blobs))
	values := make([]float64, 0, len(layer.Blobs))
	for _, b := range layer.Blobs {
		pts = append(pts, ScatterPoint{
			X:      b.X,
			Y:      cam.Height - b.Y,
			Value:  b.Value,
			Radius: b.Radius,
			Color:  withOpacity(b.Color, b.Opacity),
		})
		values = append(values, b.Value)
	}

	return &HeatmapChartData{
		Field:   layer.Field,
		Points:  pts,
		Colors:  colors,
		Summary: Summarize(values),
		Width:   cam.Width,
		Height:  cam.Height,
		Title:   fmt.Sprintf("%s z=%.1f @ %.3f,%.3f", layer.Layer, cam.Zoom, cam.CenterLat, cam.CenterLon),
	}
}

// PrepareFlowChartData converts particles, arrows and stations from one
// render to chart primitives. Particle trails come first, then arrows.
func PrepareFlowChartData(out scene.Output, cam geoproj.Camera) *FlowChartData {
	d := &FlowChartData{
		Width:  cam.Width,
		Height: cam.Height,
		Title:  fmt.Sprintf("frame %d z=%.1f", out.FrameIndex, cam.Zoom),
	}
	flip := func(y float64) float64 { return cam.Height - y }

	var speeds []float64
	for _, set := range [][]particles.Drawable{out.Currents, out.Wind} {
		for _, p := range set {
			d.Segments = append(d.Segments, Segment{X0: p.TailX, Y0: flip(p.TailY), X1: p.X, Y1: flip(p.Y), Color: p.Color})
			speeds = append(speeds, p.Speed)
		}
	}
	for _, set := range [][]scene.Arrow{out.CurrentArrows, out.WindArrows} {
		for _, a := range set {
			x1 := a.X + a.Length*math.Cos(a.Angle)
			y1 := a.Y + a.Length*math.Sin(a.Angle)
			d.Segments = append(d.Segments, Segment{X0: a.X, Y0: flip(a.Y), X1: x1, Y1: flip(y1), Color: a.Color})
		}
	}
	for _, s := range out.Stations {
		d.Stations = append(d.Stations, ScatterPoint{X: s.X, Y: flip(s.Y), Radius: 2, Color: color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}})
	}
	d.Speeds = Summarize(speeds)
	return d
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func withOpacity(c color.RGBA, opacity float64) color.RGBA {
	if opacity <= 0 || opacity >= 1 {
		return c
	}
	// color.RGBA is alpha-premultiplied.
	return color.RGBA{
		R: uint8(float64(c.R) * opacity),
		G: uint8(float64(c.G) * opacity),
		B: uint8(float64(c.B) * opacity),
		A: uint8(float64(c.A) * opacity),
	}
}
