package heatmap

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

func TestGradient_EndpointsAndMidpoint(t *testing.T) {
	g := NewGradient(
		Stop{Pos: 1, Color: color.RGBA{R: 255, A: 255}},
		Stop{Pos: 0, Color: color.RGBA{B: 255, A: 255}},
	)

	assert.Equal(t, color.RGBA{B: 255, A: 255}, g.At(0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, g.At(1))
	assert.Equal(t, color.RGBA{R: 128, B: 128, A: 255}, g.At(0.5))
	assert.Equal(t, g.At(0), g.At(-3), "clamped below")
	assert.Equal(t, g.At(1), g.At(7), "clamped above")
}

func TestGradient_FieldGradientsHaveFourStops(t *testing.T) {
	for _, f := range points.ScalarFields {
		assert.Len(t, GradientFor(f).Stops(), 4, f)
		_, ok := DomainFor(f)
		assert.True(t, ok, f)
	}
	assert.Len(t, GradientFor("unknown").Stops(), 2)
}

func TestDomain_Normalize(t *testing.T) {
	d := Domain{Min: 0, Max: 30}
	assert.InDelta(t, 0.5, d.Normalize(15), 1e-12)
	assert.Equal(t, 0.0, d.Normalize(-5))
	assert.Equal(t, 1.0, d.Normalize(45))
	assert.Equal(t, 0.0, Domain{Min: 3, Max: 3}.Normalize(3))
}

func TestColorFor(t *testing.T) {
	d, _ := DomainFor(points.FieldSalinity)
	assert.Equal(t, GradientFor(points.FieldSalinity).At(Contrast(0.5)), ColorFor(points.FieldSalinity, d, 35))
}
