// Package grid bins vector-bearing observations into fixed-size geographic
// cells.
package grid

import (
	"context"
	"math"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// DefaultCellDegrees is the cell edge used when the caller passes an
// unusable size.
const DefaultCellDegrees = 0.01

// Key identifies a cell by its integer index along each axis. Comparing
// indices rather than rounded floats keeps neighbouring points that round to
// the same printed coordinate in one cell.
type Key struct {
	LatIdx int64
	LonIdx int64
}

// Sample is one (direction, magnitude) contribution to a cell.
type Sample struct {
	Direction float64 // degrees clockwise from north
	Magnitude float64
}

// Cell holds every sample that fell inside one grid square for a frame.
type Cell struct {
	Key     Key
	Lat     float64 // cell centre
	Lon     float64
	Samples []Sample
}

// Grid is the result of one aggregation pass. Cells are kept in the order
// their first sample was seen so that capping downstream is deterministic.
type Grid struct {
	CellDegrees float64

	cells []*Cell
	index map[Key]int
}

// New returns an empty grid with the given cell size. A non-positive or
// non-finite size falls back to DefaultCellDegrees.
func New(cellDegrees float64) *Grid {
	if !(cellDegrees > 0) || math.IsInf(cellDegrees, 0) {
		cellDegrees = DefaultCellDegrees
	}
	return &Grid{
		CellDegrees: cellDegrees,
		index:       make(map[Key]int),
	}
}

// cancelCheckEvery is how many points are binned between context checks.
const cancelCheckEvery = 4096

// Aggregate bins every point whose resolved vector matches kind. Points with
// invalid coordinates or an unusable vector are skipped. Passing
// points.VectorNone accepts any usable vector regardless of its tag.
func Aggregate(pts []points.DataPoint, kind points.VectorKind, cellDegrees float64) *Grid {
	g, _ := AggregateContext(context.Background(), pts, kind, cellDegrees)
	return g
}

// AggregateContext is Aggregate with cancellation, checked every few
// thousand points. A cancelled context returns a nil grid.
func AggregateContext(ctx context.Context, pts []points.DataPoint, kind points.VectorKind, cellDegrees float64) (*Grid, error) {
	g := New(cellDegrees)
	for i := range pts {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := &pts[i]
		if !p.Valid() || !p.Vector.Usable() {
			continue
		}
		if kind != points.VectorNone && p.Kind != kind {
			continue
		}
		g.Add(p.Lat, p.Lon, Sample{Direction: p.Vector.Direction, Magnitude: p.Vector.Speed})
	}
	return g, nil
}

// KeyFor returns the cell key for (lat, lon): floor(x/ε + 0.5) per axis.
func (g *Grid) KeyFor(lat, lon float64) Key {
	return Key{
		LatIdx: int64(math.Floor(lat/g.CellDegrees + 0.5)),
		LonIdx: int64(math.Floor(lon/g.CellDegrees + 0.5)),
	}
}

// Centre returns the coordinate the cell key stands for.
func (g *Grid) Centre(k Key) (lat, lon float64) {
	return float64(k.LatIdx) * g.CellDegrees, float64(k.LonIdx) * g.CellDegrees
}

// Add appends a sample to the cell containing (lat, lon).
func (g *Grid) Add(lat, lon float64, s Sample) {
	k := g.KeyFor(lat, lon)
	if i, ok := g.index[k]; ok {
		g.cells[i].Samples = append(g.cells[i].Samples, s)
		return
	}
	clat, clon := g.Centre(k)
	g.index[k] = len(g.cells)
	g.cells = append(g.cells, &Cell{Key: k, Lat: clat, Lon: clon, Samples: []Sample{s}})
}

// Cells returns the cells in first-encounter order. The slice must not be
// modified.
func (g *Grid) Cells() []*Cell {
	return g.cells
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// SampleCount returns the total number of samples across all cells.
func (g *Grid) SampleCount() int {
	n := 0
	for _, c := range g.cells {
		n += len(c.Samples)
	}
	return n
}

// Directions returns the cell's sample directions.
func (c *Cell) Directions() []float64 {
	out := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.Direction
	}
	return out
}

// Magnitudes returns the cell's sample magnitudes.
func (c *Cell) Magnitudes() []float64 {
	out := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.Magnitude
	}
	return out
}
