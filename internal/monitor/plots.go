package monitor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot output size. The aspect follows the viewport.
const plotWidth = 8 * vg.Inch

// WriteHeatmapPNG plots a heatmap layer as coloured markers sized by blob
// radius. The file format follows the path extension (png, svg, pdf).
func WriteHeatmapPNG(path string, data *HeatmapChartData) error {
	p := newViewportPlot(data.Title, data.Width, data.Height)
	if s := data.Summary; s.Count > 0 {
		p.Title.Text += fmt.Sprintf("\n%s n=%d min=%.2f mean=%.2f max=%.2f", data.Field, s.Count, s.Min, s.Mean, s.Max)
	}

	if len(data.Points) > 0 {
		sc, err := scatterOf(data.Points, func(r float64) vg.Length {
			// Blob radii are in screen pixels; shrink so neighbours stay distinct.
			return vg.Points(clamp(r/3, 1, 8))
		})
		if err != nil {
			return fmt.Errorf("heatmap scatter: %w", err)
		}
		p.Add(sc)
	}

	return savePlot(p, path, data.Width, data.Height)
}

// WriteFlowPNG plots particle trails and arrows as line segments with
// station markers on top.
func WriteFlowPNG(path string, data *FlowChartData) error {
	p := newViewportPlot(data.Title, data.Width, data.Height)
	if s := data.Speeds; s.Count > 0 {
		p.Title.Text += fmt.Sprintf("\nparticles=%d mean speed=%.3f max=%.3f", s.Count, s.Mean, s.Max)
	}

	if len(data.Segments) > 0 {
		p.Add(&segmentPlotter{Segments: data.Segments, Width: vg.Points(0.8)})
	}
	if len(data.Stations) > 0 {
		sc, err := scatterOf(data.Stations, func(r float64) vg.Length { return vg.Points(r) })
		if err != nil {
			return fmt.Errorf("station scatter: %w", err)
		}
		p.Add(sc)
	}

	return savePlot(p, path, data.Width, data.Height)
}

func newViewportPlot(title string, w, h float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, w
	p.Y.Min, p.Y.Max = 0, h
	return p
}

func scatterOf(pts []ScatterPoint, radius func(float64) vg.Length) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  pts[i].Color,
			Radius: radius(pts[i].Radius),
			Shape:  draw.CircleGlyph{},
		}
	}
	return sc, nil
}

func savePlot(p *plot.Plot, path string, w, h float64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	height := plotWidth
	if w > 0 && h > 0 {
		height = vg.Length(float64(plotWidth) * h / w)
	}
	if err := p.Save(plotWidth, height, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// segmentPlotter draws independent coloured line segments.
type segmentPlotter struct {
	Segments []Segment
	Width    vg.Length
}

// Plot implements plot.Plotter.
func (s *segmentPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, seg := range s.Segments {
		line := []vg.Point{
			{X: trX(seg.X0), Y: trY(seg.Y0)},
			{X: trX(seg.X1), Y: trY(seg.Y1)},
		}
		sty := draw.LineStyle{Color: seg.Color, Width: s.Width}
		c.StrokeLines(sty, c.ClipLinesXY(line)...)
	}
}

// DataRange implements plot.DataRanger.
func (s *segmentPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, seg := range s.Segments {
		xmin = math.Min(xmin, math.Min(seg.X0, seg.X1))
		xmax = math.Max(xmax, math.Max(seg.X0, seg.X1))
		ymin = math.Min(ymin, math.Min(seg.Y0, seg.Y1))
		ymax = math.Max(ymax, math.Max(seg.Y0, seg.Y1))
	}
	return xmin, xmax, ymin, ymax
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
