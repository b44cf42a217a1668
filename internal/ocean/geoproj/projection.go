// Package geoproj converts between geographic coordinates and viewport
// pixels for a camera, using the same Web Mercator mapping as the host map
// widget (256 px tiles at zoom 0).
package geoproj

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	// TileSize is the pixel size of one map tile at zoom 0.
	TileSize = 256.0
	// MaxMercatorLat is the latitude where Web Mercator is cut off.
	MaxMercatorLat = 85.05112878

	earthRadiusMetres = 6378137.0
)

// Camera is the viewport state supplied by the host on every pan or zoom.
// The engine only reads it.
type Camera struct {
	CenterLat float64
	CenterLon float64
	Zoom      float64
	Width     float64 // viewport width in pixels
	Height    float64 // viewport height in pixels
}

// Degenerate reports whether the camera cannot project anything: a zero or
// negative viewport, or a non-finite centre or zoom.
func (c Camera) Degenerate() bool {
	if !(c.Width > 0) || !(c.Height > 0) {
		return true
	}
	for _, v := range []float64{c.CenterLat, c.CenterLon, c.Zoom, c.Width, c.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// WorldSize returns the width of the whole world in pixels at the camera zoom.
func (c Camera) WorldSize() float64 {
	return TileSize * math.Exp2(c.Zoom)
}

// Project maps (lat, lon) to screen pixels with (0, 0) at the top-left.
// A degenerate camera yields (NaN, NaN); callers skip such points.
func Project(lat, lon float64, cam Camera) (x, y float64) {
	if cam.Degenerate() {
		return math.NaN(), math.NaN()
	}
	size := cam.WorldSize()
	x = (mercatorX(lon)-mercatorX(cam.CenterLon))*size + cam.Width/2
	y = (mercatorY(lat)-mercatorY(cam.CenterLat))*size + cam.Height/2
	return x, y
}

// Unproject maps screen pixels back to (lat, lon). It is the inverse of
// Project for latitudes inside the Mercator cut-off.
func Unproject(x, y float64, cam Camera) (lat, lon float64) {
	if cam.Degenerate() {
		return math.NaN(), math.NaN()
	}
	size := cam.WorldSize()
	mx := (x-cam.Width/2)/size + mercatorX(cam.CenterLon)
	my := (y-cam.Height/2)/size + mercatorY(cam.CenterLat)
	lon = mx*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*my))) * 180 / math.Pi
	return lat, lon
}

// IsSentinel reports whether a projected coordinate is the degenerate-camera
// sentinel.
func IsSentinel(x, y float64) bool {
	return math.IsNaN(x) || math.IsNaN(y)
}

// Visible reports whether (lat, lon) lands inside the viewport grown by
// marginPx on every side.
func Visible(lat, lon float64, cam Camera, marginPx float64) bool {
	x, y := Project(lat, lon, cam)
	return InViewport(x, y, cam, marginPx)
}

// InViewport reports whether a screen point lies inside the viewport grown
// by marginPx. Sentinels are never inside.
func InViewport(x, y float64, cam Camera, marginPx float64) bool {
	if IsSentinel(x, y) {
		return false
	}
	return x >= -marginPx && x <= cam.Width+marginPx &&
		y >= -marginPx && y <= cam.Height+marginPx
}

// DegreesToPixels converts a longitude span to horizontal pixels at the
// camera zoom. Mercator x is linear in longitude, so this holds everywhere
// on screen.
func DegreesToPixels(deg float64, cam Camera) float64 {
	if cam.Degenerate() {
		return math.NaN()
	}
	return deg / 360 * cam.WorldSize()
}

// MetresPerPixel returns the ground resolution at lat for the camera zoom.
func MetresPerPixel(lat float64, cam Camera) float64 {
	if cam.Degenerate() {
		return math.NaN()
	}
	return math.Cos(lat*math.Pi/180) * 2 * math.Pi * earthRadiusMetres / cam.WorldSize()
}

// Bounds returns the geographic rectangle covered by the viewport. The
// longitude interval wraps across the antimeridian when needed and becomes
// full when the view spans the whole world.
func Bounds(cam Camera) (s2.Rect, bool) {
	return bounds(cam, 0, 0)
}

// BoundsWithMargin is Bounds for the viewport grown by marginX and marginY
// pixels, plus one pixel of slack so that points on the edge survive
// round-off. It is a coarse cull: anything InViewport accepts with the same
// margins is inside the rectangle, not the other way round. A view reaching
// past the Mercator cut-off extends to the pole, since Project clamps such
// latitudes onto the edge of the map.
func BoundsWithMargin(cam Camera, marginX, marginY float64) (s2.Rect, bool) {
	return bounds(cam, marginX+1, marginY+1)
}

func bounds(cam Camera, marginX, marginY float64) (s2.Rect, bool) {
	if cam.Degenerate() {
		return s2.EmptyRect(), false
	}
	north, west := Unproject(-marginX, -marginY, cam)
	south, east := Unproject(cam.Width+marginX, cam.Height+marginY, cam)
	if north >= MaxMercatorLat {
		north = 90
	}
	if south <= -MaxMercatorLat {
		south = -90
	}

	lat := r1.Interval{
		Lo: s1.Angle(south * math.Pi / 180).Radians(),
		Hi: s1.Angle(north * math.Pi / 180).Radians(),
	}
	var lng s1.Interval
	if east-west >= 360 {
		lng = s1.FullInterval()
	} else {
		lng = s1.IntervalFromEndpoints(wrapLon(west)*math.Pi/180, wrapLon(east)*math.Pi/180)
	}
	return s2.Rect{Lat: lat, Lng: lng}, true
}

// Contains reports whether (lat, lon) falls inside rect.
func Contains(rect s2.Rect, lat, lon float64) bool {
	return rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

func mercatorX(lon float64) float64 {
	return (lon + 180) / 360
}

func mercatorY(lat float64) float64 {
	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		lat = -MaxMercatorLat
	}
	phi := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(phi)+1/math.Cos(phi))/math.Pi) / 2
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
