package geoproj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gulfCamera() Camera {
	return Camera{CenterLat: 29.5, CenterLon: -88.1, Zoom: 10, Width: 800, Height: 600}
}

func TestProject_CenterMapsToViewportCenter(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	x, y := Project(cam.CenterLat, cam.CenterLon, cam)
	assert.InDelta(t, 400, x, 1e-9)
	assert.InDelta(t, 300, y, 1e-9)
}

func TestProject_Orientation(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	xEast, _ := Project(cam.CenterLat, cam.CenterLon+0.01, cam)
	_, yNorth := Project(cam.CenterLat+0.01, cam.CenterLon, cam)
	assert.Greater(t, xEast, 400.0, "east is to the right")
	assert.Less(t, yNorth, 300.0, "north is up")
}

func TestProjectUnproject_RoundTrip(t *testing.T) {
	t.Parallel()

	cams := []Camera{
		gulfCamera(),
		{CenterLat: 0, CenterLon: 0, Zoom: 2, Width: 1024, Height: 768},
		{CenterLat: -45, CenterLon: 170, Zoom: 6.5, Width: 640, Height: 480},
	}
	coords := [][2]float64{{29.6, -88.0}, {0, 0}, {-44.9, 170.2}, {60, 10}}
	for _, cam := range cams {
		for _, c := range coords {
			x, y := Project(c[0], c[1], cam)
			lat, lon := Unproject(x, y, cam)
			assert.InDelta(t, c[0], lat, 1e-9)
			assert.InDelta(t, c[1], lon, 1e-9)
		}
	}
}

func TestProject_ZoomDoublesScale(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	x1, _ := Project(cam.CenterLat, cam.CenterLon+0.1, cam)
	cam.Zoom++
	x2, _ := Project(cam.CenterLat, cam.CenterLon+0.1, cam)
	assert.InDelta(t, 2*(x1-400), x2-400, 1e-6)
}

func TestProject_DegenerateCameraReturnsSentinel(t *testing.T) {
	t.Parallel()

	cams := []Camera{
		{CenterLat: 0, CenterLon: 0, Zoom: 5, Width: 0, Height: 600},
		{CenterLat: 0, CenterLon: 0, Zoom: 5, Width: 800, Height: -1},
		{CenterLat: 0, CenterLon: 0, Zoom: math.NaN(), Width: 800, Height: 600},
	}
	for _, cam := range cams {
		x, y := Project(10, 10, cam)
		assert.True(t, IsSentinel(x, y))
		lat, lon := Unproject(1, 1, cam)
		assert.True(t, math.IsNaN(lat) && math.IsNaN(lon))
		assert.False(t, Visible(10, 10, cam, 100))
		assert.True(t, math.IsNaN(DegreesToPixels(1, cam)))
		_, ok := Bounds(cam)
		assert.False(t, ok)
	}
}

func TestInViewport_Margin(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	assert.True(t, InViewport(-50, 10, cam, 100))
	assert.False(t, InViewport(-150, 10, cam, 100))
	assert.True(t, InViewport(899, 699, cam, 100))
	assert.False(t, InViewport(901, 10, cam, 100))
}

func TestDegreesToPixels(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	px := DegreesToPixels(0.25, cam)
	x, _ := Project(cam.CenterLat, cam.CenterLon+0.25, cam)
	assert.InDelta(t, x-400, px, 1e-9)
}

func TestBounds(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	rect, ok := Bounds(cam)
	require.True(t, ok)

	assert.True(t, Contains(rect, 29.5, -88.1))
	assert.False(t, Contains(rect, 35, -88.1))
	assert.False(t, Contains(rect, 29.5, -80))

	world := Camera{CenterLat: 0, CenterLon: 0, Zoom: 0, Width: 2048, Height: 512}
	rect, ok = Bounds(world)
	require.True(t, ok)
	assert.True(t, rect.Lng.IsFull())
	assert.True(t, Contains(rect, 10, 179))
}

func TestBounds_Antimeridian(t *testing.T) {
	t.Parallel()

	cam := Camera{CenterLat: 0, CenterLon: 179.9, Zoom: 8, Width: 800, Height: 600}
	rect, ok := Bounds(cam)
	require.True(t, ok)
	assert.True(t, rect.Lng.IsInverted(), "interval wraps across 180°")
	assert.True(t, Contains(rect, 0, -179.9))
	assert.True(t, Contains(rect, 0, 179.5))
	assert.False(t, Contains(rect, 0, 0))
}

func TestBoundsWithMargin_CoversViewport(t *testing.T) {
	t.Parallel()

	cam := gulfCamera()
	rect, ok := BoundsWithMargin(cam, 100, 50)
	require.True(t, ok)

	// Every corner of the grown viewport, and its edges, stays inside.
	for _, px := range [][2]float64{{-100, -50}, {900, -50}, {-100, 650}, {900, 650}, {400, -50}, {-100, 300}} {
		lat, lon := Unproject(px[0], px[1], cam)
		assert.True(t, Contains(rect, lat, lon), "pixel %v", px)
	}
	lat, lon := Unproject(-140, 300, cam)
	assert.False(t, Contains(rect, lat, lon))
	lat, lon = Unproject(400, 700, cam)
	assert.False(t, Contains(rect, lat, lon))

	_, ok = BoundsWithMargin(Camera{Width: 0, Height: 600}, 10, 10)
	assert.False(t, ok)
}

func TestBoundsWithMargin_ReachesPolePastMercatorCutoff(t *testing.T) {
	t.Parallel()

	cam := Camera{CenterLat: 84, CenterLon: 0, Zoom: 4, Width: 800, Height: 600}
	rect, ok := BoundsWithMargin(cam, 0, 0)
	require.True(t, ok)

	// Project clamps 89.9°N onto the top edge of the map, which is on screen.
	x, y := Project(89.9, 0, cam)
	require.True(t, InViewport(x, y, cam, 0))
	assert.True(t, Contains(rect, 89.9, 0))
}

func TestMetresPerPixel(t *testing.T) {
	t.Parallel()

	cam := Camera{CenterLat: 0, CenterLon: 0, Zoom: 0, Width: 256, Height: 256}
	assert.InDelta(t, 156543.03392, MetresPerPixel(0, cam), 1e-3)
	assert.InDelta(t, 156543.03392/2, MetresPerPixel(60, cam), 1e-3)

	cam.Zoom = 1
	assert.InDelta(t, 156543.03392/2, MetresPerPixel(0, cam), 1e-3)
}
