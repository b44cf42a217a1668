package scene

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/oceanview/internal/config"
	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/lod"
	"github.com/banshee-data/oceanview/internal/ocean/points"
	"github.com/banshee-data/oceanview/internal/timeutil"
)

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func gulfCamera() geoproj.Camera {
	return geoproj.Camera{CenterLat: 29.5, CenterLon: -88.1, Zoom: 10, Width: 800, Height: 600}
}

func testEngine(t *testing.T, clock timeutil.Clock) *Engine {
	t.Helper()
	monitoring.SetLogger(nil)
	cfg := config.EmptyTuningConfig()
	n := 64
	cfg.ParticleCount = &n
	return New(Options{Config: cfg, Clock: clock, Seed: 11})
}

func mustIngest(t *testing.T, recs ...points.Record) []points.DataPoint {
	t.Helper()
	pts, stats := points.IngestAll(recs)
	require.Zero(t, stats.Skipped())
	return pts
}

func flowFrame(t *testing.T, index int) *points.Frame {
	pts := mustIngest(t,
		points.Record{"lat": 29.5, "lon": -88.1, "temp": 28.0, "depth": 0.0, "direction": 90.0, "speed": 0.5},
		points.Record{"lat": 29.52, "lon": -88.05, "temp": 26.0, "depth": 0.0, "direction": 45.0, "speed": 0.3},
		points.Record{"lat": 29.48, "lon": -88.15, "salinity": 35.0, "ndirection": 270.0, "nspeed": 8.0},
	)
	return points.NewFrame(index, "gulf", t0.Add(time.Duration(index)*time.Hour), pts)
}

func TestRender_NoFrame(t *testing.T) {
	e := testEngine(t, nil)
	out := e.Render(gulfCamera(), NewLayerConfig(AllLayers...), 0)
	assert.Equal(t, -1, out.FrameIndex)
	assert.Empty(t, out.Heatmaps)
}

func TestRender_SingleTemperaturePoint(t *testing.T) {
	e := testEngine(t, nil)
	pts := mustIngest(t, points.Record{"lat": 29.5, "lon": -88.1, "temp": 28.0, "depth": 0.0})
	e.SetFrame(context.Background(), points.NewFrame(0, "gulf", t0, pts))
	e.WaitForFields()

	layers := NewLayerConfig(LayerTemperature)
	out := e.Render(gulfCamera(), layers, 0)
	require.Len(t, out.Heatmaps, 1)
	assert.Equal(t, LayerTemperature, out.Heatmaps[0].Layer)
	require.Len(t, out.Heatmaps[0].Blobs, 1)

	x, y := geoproj.Project(29.5, -88.1, gulfCamera())
	assert.InDelta(t, x, out.Heatmaps[0].Blobs[0].X, 1e-9)
	assert.InDelta(t, y, out.Heatmaps[0].Blobs[0].Y, 1e-9)

	out = e.Render(gulfCamera(), layers, 2.0)
	require.Len(t, out.Heatmaps, 1)
	assert.Empty(t, out.Heatmaps[0].Blobs)
}

func TestRender_FlowLayers(t *testing.T) {
	e := testEngine(t, nil)
	e.SetFrame(context.Background(), flowFrame(t, 0))
	e.WaitForFields()

	layers := NewLayerConfig(LayerOceanCurrents, LayerWindVelocity, LayerStations, LayerSalinity)
	out := e.Render(gulfCamera(), layers, 0)

	assert.Equal(t, uint64(1), out.FieldGeneration)
	assert.Len(t, out.CurrentArrows, 2)
	assert.Len(t, out.WindArrows, 1)
	assert.Len(t, out.Stations, 2, "stations follow the LOD-sampled set")
	assert.NotEmpty(t, out.Currents)
	assert.NotEmpty(t, out.Wind)
	assert.LessOrEqual(t, len(out.Currents), 64)

	require.Len(t, out.Heatmaps, 1)
	assert.Equal(t, LayerSalinity, out.Heatmaps[0].Layer)
	assert.Len(t, out.Heatmaps[0].Blobs, 1)
}

func TestRender_CameraChangeKeepsFrameCache(t *testing.T) {
	e := testEngine(t, nil)
	e.SetFrame(context.Background(), flowFrame(t, 0))
	e.WaitForFields()

	layers := NewLayerConfig(LayerTemperature)
	cam := gulfCamera()
	e.Render(cam, layers, 0)
	cam.CenterLon += 0.05
	cam.Zoom = 6
	out := e.Render(cam, layers, 0)

	stats := e.Stats().Cache
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 2, out.Sampled, "sampling from first zoom is reused")
}

func TestRender_NewFrameSwapsFields(t *testing.T) {
	e := testEngine(t, nil)
	e.SetFrame(context.Background(), flowFrame(t, 0))
	e.WaitForFields()
	e.SetFrame(context.Background(), flowFrame(t, 1))
	e.WaitForFields()

	out := e.Render(gulfCamera(), NewLayerConfig(LayerOceanCurrents), 0)
	assert.Equal(t, 1, out.FrameIndex)
	assert.Equal(t, uint64(2), out.FieldGeneration)
	assert.Equal(t, uint64(2), e.Stats().Worker.Published)
}

func TestShowFrame_BuildsFieldsBeforeReturning(t *testing.T) {
	e := testEngine(t, nil)
	f := flowFrame(t, 0)

	snap, err := e.ShowFrame(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, f.Identity(), snap.Identity)
	assert.Equal(t, 2, snap.Currents.Observations)

	out := e.Render(gulfCamera(), NewLayerConfig(LayerOceanCurrents), 0)
	assert.Equal(t, snap.Generation, out.FieldGeneration)
	assert.Len(t, out.CurrentArrows, 2)

	stats := e.Stats()
	assert.Equal(t, 1, stats.SamplerRebuilds)
	assert.Equal(t, uint64(1), stats.Worker.Published)
	assert.Equal(t, []lod.Key{{FrameIndex: 0, Identity: f.Identity()}}, stats.CachedFrames)
}

func TestShowFrame_Cancelled(t *testing.T) {
	e := testEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ShowFrame(ctx, flowFrame(t, 0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, e.Frame().Index, "the frame is shown even without fields")
	assert.Equal(t, uint64(0), e.Render(gulfCamera(), NewLayerConfig(LayerOceanCurrents), 0).FieldGeneration)
}

func TestSetFrame_DropsHeatmapResults(t *testing.T) {
	e := testEngine(t, nil)
	f := flowFrame(t, 0)
	_, err := e.ShowFrame(context.Background(), f)
	require.NoError(t, err)

	layers := NewLayerConfig(LayerTemperature)
	e.Render(gulfCamera(), layers, 0)
	e.Render(gulfCamera(), layers, 0)
	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.HeatmapHits)
	assert.Equal(t, uint64(1), stats.HeatmapMisses)

	_, err = e.ShowFrame(context.Background(), f)
	require.NoError(t, err)
	e.Render(gulfCamera(), layers, 0)
	stats = e.Stats()
	assert.Equal(t, uint64(1), stats.HeatmapHits)
	assert.Equal(t, uint64(2), stats.HeatmapMisses)
}

func TestHover_Throttled(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := testEngine(t, clock)
	e.SetFrame(context.Background(), flowFrame(t, 0))

	first, ok := e.Hover(29.5, -88.1)
	require.True(t, ok)
	assert.Equal(t, 29.5, first.Lat)

	// Within 16ms the earlier answer is returned.
	clock.Advance(5 * time.Millisecond)
	again, ok := e.Hover(29.52, -88.05)
	require.True(t, ok)
	assert.Equal(t, 29.5, again.Lat)

	clock.Advance(20 * time.Millisecond)
	moved, ok := e.Hover(29.52, -88.05)
	require.True(t, ok)
	assert.Equal(t, 29.52, moved.Lat)

	clock.Advance(20 * time.Millisecond)
	_, ok = e.Hover(40, -70)
	assert.False(t, ok)
	e.WaitForFields()
}

func TestHover_ResetOnNewFrame(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := testEngine(t, clock)
	e.SetFrame(context.Background(), flowFrame(t, 0))
	_, ok := e.Hover(29.5, -88.1)
	require.True(t, ok)

	other := mustIngest(t, points.Record{"lat": 10.0, "lon": 10.0, "temp": 5.0})
	e.SetFrame(context.Background(), points.NewFrame(1, "other", t0, other))
	_, ok = e.Hover(29.5, -88.1)
	assert.False(t, ok, "new frame is queried immediately")
	e.WaitForFields()
}

func TestHover_NoFrame(t *testing.T) {
	e := testEngine(t, timeutil.NewMockClock(t0))
	_, ok := e.Hover(0, 0)
	assert.False(t, ok)
}
