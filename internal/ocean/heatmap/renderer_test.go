package heatmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

func gulfCamera() geoproj.Camera {
	return geoproj.Camera{CenterLat: 29.5, CenterLon: -88.1, Zoom: 10, Width: 800, Height: 600}
}

func tempPoint(lat, lon, temp, depth float64) points.DataPoint {
	return points.DataPoint{
		Lat: lat, Lon: lon,
		Depth: depth, HasDepth: true,
		Scalars: map[string]float64{points.FieldTemperature: temp},
	}
}

func TestRender_SinglePointScenario(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	cam := gulfCamera()
	frame := []points.DataPoint{tempPoint(29.5, -88.1, 28.0, 0.0)}

	blobs := r.Render(frame, points.FieldTemperature, cam, 1.0, 0.0)
	require.Len(t, blobs, 1)

	wantX, wantY := geoproj.Project(29.5, -88.1, cam)
	b := blobs[0]
	assert.InDelta(t, wantX, b.X, 1e-9)
	assert.InDelta(t, wantY, b.Y, 1e-9)
	assert.Equal(t, GradientFor(points.FieldTemperature).At(math.Pow(28.0/30.0, 0.7)), b.Color)
	assert.InDelta(t, 28.0/30.0, b.Normalized, 1e-12)
	assert.InDelta(t, 10.0, b.Radius, 1e-9, "spacing 20 at zoom 10")
	assert.InDelta(t, 0.85, b.Opacity, 1e-9)

	for _, depth := range []float64{0.5, 5, -1} {
		assert.Empty(t, r.Render(frame, points.FieldTemperature, cam, 1.0, depth), "depth %v", depth)
	}
}

func TestRender_DepthFilter(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	cam := gulfCamera()
	frame := []points.DataPoint{tempPoint(29.5, -88.1, 20, 5.0)}

	assert.Empty(t, r.Render(frame, points.FieldTemperature, cam, 1, 0.0))
	assert.Len(t, r.Render(frame, points.FieldTemperature, cam, 1, 5.0), 1)
	assert.Len(t, r.Render(frame, points.FieldTemperature, cam, 1, 5.05), 1, "within epsilon")
}

func TestRender_DepthlessPointsPass(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	p := tempPoint(29.5, -88.1, 20, 0)
	p.HasDepth = false

	for _, depth := range []float64{0, 50} {
		assert.Len(t, r.Render([]points.DataPoint{p}, points.FieldTemperature, gulfCamera(), 1, depth), 1)
	}
}

func TestRender_ScreenCellDecimation(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	cam := gulfCamera()
	// 0.0001° is well under a pixel at zoom 10, so both land in one cell.
	frame := []points.DataPoint{
		tempPoint(29.5, -88.1, 10, 0),
		tempPoint(29.4999, -88.0999, 20, 0),
		tempPoint(29.55, -88.0, 25, 0),
	}

	blobs := r.Render(frame, points.FieldTemperature, cam, 1, 0)
	require.Len(t, blobs, 2)
	assert.Equal(t, 10.0, blobs[0].Value, "first point per cell wins")
	assert.Equal(t, 25.0, blobs[1].Value)
}

func TestRender_CullsOutsideViewport(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	frame := []points.DataPoint{
		tempPoint(29.5, -88.1, 10, 0),
		tempPoint(35, -70, 10, 0),
	}
	assert.Len(t, r.Render(frame, points.FieldTemperature, gulfCamera(), 1, 0), 1)
}

func TestRender_SkipsMissingFieldAndInvalid(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	noField := points.DataPoint{Lat: 29.5, Lon: -88.1}
	invalid := tempPoint(120, -88.1, 10, 0)

	assert.Empty(t, r.Render([]points.DataPoint{noField, invalid}, points.FieldTemperature, gulfCamera(), 1, 0))
}

func TestRender_EmptyAndDegenerate(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	assert.Empty(t, r.Render(nil, points.FieldTemperature, gulfCamera(), 1, 0))

	cam := gulfCamera()
	cam.Width = 0
	frame := []points.DataPoint{tempPoint(29.5, -88.1, 10, 0)}
	assert.Empty(t, r.Render(frame, points.FieldTemperature, cam, 1, 0))
}

func TestRender_ScaleClamps(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	frame := []points.DataPoint{tempPoint(29.5, -88.1, 10, 0)}

	small := r.Render(frame, points.FieldTemperature, gulfCamera(), 0.1, 0)
	require.Len(t, small, 1)
	assert.Equal(t, 5.0, small[0].Radius)
	assert.Equal(t, 0.3, small[0].Opacity)

	big := r.Render(frame, points.FieldTemperature, gulfCamera(), 20, 0)
	require.Len(t, big, 1)
	assert.Equal(t, 50.0, big[0].Radius)
	assert.Equal(t, 1.0, big[0].Opacity)
	assert.InDelta(t, 25.0, big[0].Blur, 1e-9)
}

func TestRender_CacheInvalidatedByCamera(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	frame := []points.DataPoint{tempPoint(29.5, -88.1, 10, 0)}
	cam := gulfCamera()

	first := r.Render(frame, points.FieldTemperature, cam, 1, 0)
	second := r.Render(frame, points.FieldTemperature, cam, 1, 0)
	assert.Same(t, &first[0], &second[0])
	hits, misses := r.CacheStats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	cam.CenterLon += 0.01
	moved := r.Render(frame, points.FieldTemperature, cam, 1, 0)
	assert.NotSame(t, &first[0], &moved[0])
	assert.NotEqual(t, first[0].X, moved[0].X)

	r.Invalidate()
	r.Render(frame, points.FieldTemperature, cam, 1, 0)
	_, misses = r.CacheStats()
	assert.Equal(t, uint64(3), misses)
}

func TestRender_UnknownFieldUsesDataRange(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	frame := []points.DataPoint{
		{Lat: 29.5, Lon: -88.1, Scalars: map[string]float64{"chlorophyll": 2}},
		{Lat: 29.55, Lon: -88.0, Scalars: map[string]float64{"chlorophyll": 6}},
	}

	blobs := r.Render(frame, "chlorophyll", gulfCamera(), 1, 0)
	require.Len(t, blobs, 2)
	assert.Equal(t, 0.0, blobs[0].Normalized)
	assert.Equal(t, 1.0, blobs[1].Normalized)
}

func TestSpacing(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	assert.Equal(t, 20.0, r.Spacing(10))
	assert.Equal(t, 10.0, r.Spacing(9))
	assert.Equal(t, 6.0, r.Spacing(5), "clamped to min")
	assert.Equal(t, 40.0, r.Spacing(14), "clamped to max")
}
