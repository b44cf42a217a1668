package monitor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EChartsAssetsHost is where rendered pages load echarts.min.js from.
var EChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderHeatmapHTML writes an interactive scatter heatmap with a visual map
// whose colour stops follow the field's gradient.
func RenderHeatmapHTML(w io.Writer, data *HeatmapChartData) error {
	points := make([]opts.ScatterData, 0, len(data.Points))
	for _, pt := range data.Points {
		points = append(points, opts.ScatterData{Value: []interface{}{pt.X, pt.Y, pt.Value}})
	}

	lo, hi := data.Summary.Min, data.Summary.Max
	if hi <= lo {
		hi = lo + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Ocean Heatmap", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: EChartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: data.Field, Subtitle: fmt.Sprintf("%s points=%d", data.Title, len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: data.Width, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: data.Height, Name: "y (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: data.Colors},
		}),
	)
	scatter.AddSeries(data.Field, points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	return scatter.Render(w)
}

// WriteHeatmapHTML renders the heatmap page to path.
func WriteHeatmapHTML(path string, data *HeatmapChartData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderHeatmapHTML(f, data); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
