package scene

import (
	"fmt"
	"sort"

	"github.com/banshee-data/oceanview/internal/ocean/particles"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// Layer names a toggleable map layer.
type Layer string

const (
	LayerOceanCurrents Layer = "oceanCurrents"
	LayerTemperature   Layer = "temperature"
	LayerSalinity      Layer = "salinity"
	LayerSSH           Layer = "ssh"
	LayerPressure      Layer = "pressure"
	LayerWindVelocity  Layer = "windVelocity"
	LayerStations      Layer = "stations"
)

// AllLayers lists every layer in paint order, bottom first.
var AllLayers = []Layer{
	LayerTemperature, LayerSalinity, LayerSSH, LayerPressure,
	LayerOceanCurrents, LayerWindVelocity, LayerStations,
}

var scalarLayerFields = map[Layer]string{
	LayerTemperature: points.FieldTemperature,
	LayerSalinity:    points.FieldSalinity,
	LayerSSH:         points.FieldSSH,
	LayerPressure:    points.FieldPressure,
}

// Field returns the scalar field a heatmap layer draws.
func (l Layer) Field() (string, bool) {
	f, ok := scalarLayerFields[l]
	return f, ok
}

// ParseLayer accepts a layer name.
func ParseLayer(s string) (Layer, error) {
	for _, l := range AllLayers {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layer %q", s)
}

// LayerConfig is the per-render layer selection and styling supplied by the
// host UI.
type LayerConfig struct {
	Visible      map[Layer]bool
	HeatmapScale float64
	VectorScale  float64
	ColorMode    particles.ColorMode
}

// NewLayerConfig returns a config with unit scales, speed colouring and the
// given layers visible.
func NewLayerConfig(visible ...Layer) LayerConfig {
	c := LayerConfig{
		Visible:      make(map[Layer]bool, len(visible)),
		HeatmapScale: 1,
		VectorScale:  1,
		ColorMode:    particles.ColorBySpeed,
	}
	for _, l := range visible {
		c.Visible[l] = true
	}
	return c
}

// IsVisible reports whether layer l is switched on.
func (c LayerConfig) IsVisible(l Layer) bool {
	return c.Visible[l]
}

// VisibleLayers returns the visible layers in paint order.
func (c LayerConfig) VisibleLayers() []Layer {
	var out []Layer
	for _, l := range AllLayers {
		if c.Visible[l] {
			out = append(out, l)
		}
	}
	return out
}

// String lists the visible layers, sorted, for logs.
func (c LayerConfig) String() string {
	names := make([]string, 0, len(c.Visible))
	for l, on := range c.Visible {
		if on {
			names = append(names, string(l))
		}
	}
	sort.Strings(names)
	return fmt.Sprintf("layers=%v heatmapScale=%.2f vectorScale=%.2f color=%s",
		names, c.HeatmapScale, c.VectorScale, c.ColorMode)
}
