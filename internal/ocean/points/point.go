package points

import (
	"math"
	"time"
)

// Scalar field names carried by observation records.
const (
	FieldTemperature = "temp"
	FieldSalinity    = "salinity"
	FieldSSH         = "ssh"
	FieldPressure    = "pressure"
)

// ScalarFields lists the scalar fields the ingestion layer recognises, in
// display order.
var ScalarFields = []string{FieldTemperature, FieldSalinity, FieldSSH, FieldPressure}

// VectorKind tags the physical meaning of a point's vector. It is decided
// once at ingestion so that downstream code never re-derives it from which
// record keys happened to be present.
type VectorKind uint8

const (
	VectorNone VectorKind = iota
	VectorCurrent
	VectorWind
)

func (k VectorKind) String() string {
	switch k {
	case VectorCurrent:
		return "current"
	case VectorWind:
		return "wind"
	default:
		return "none"
	}
}

// DataPoint is a single immutable observation. Depth is only meaningful when
// HasDepth is set; points without depth pass every depth filter.
type DataPoint struct {
	Lat       float64
	Lon       float64
	Depth     float64
	HasDepth  bool
	Timestamp time.Time
	Scalars   map[string]float64

	Kind   VectorKind
	Vector Vector
}

// Valid reports whether the coordinates are finite and inside geographic
// bounds. Invalid points are never rendered.
func (p DataPoint) Valid() bool {
	return ValidCoordinate(p.Lat, p.Lon)
}

// Scalar returns the named scalar field value.
func (p DataPoint) Scalar(name string) (float64, bool) {
	v, ok := p.Scalars[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// HasVector reports whether the point contributes to vector processing for
// the given kind.
func (p DataPoint) HasVector(kind VectorKind) bool {
	return p.Kind == kind && kind != VectorNone && p.Vector.Usable()
}

// ValidCoordinate reports whether lat ∈ [-90,90] and lon ∈ [-180,180].
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
