// Package vectorfield reduces a frame's current or wind observations to one
// averaged vector per grid cell.
package vectorfield

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/oceanview/internal/config"
	"github.com/banshee-data/oceanview/internal/ocean/grid"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// DefaultMaxCells bounds the number of samples in one field.
const DefaultMaxCells = 1000

// Options control aggregation.
type Options struct {
	CellDegrees float64
	MaxCells    int
	// Circular averages directions as unit vectors instead of arithmetically,
	// so 350° and 10° average to 0° rather than 180°.
	Circular bool
}

// DefaultOptions returns the stock aggregation settings.
func DefaultOptions() Options {
	return OptionsFromConfig(config.EmptyTuningConfig())
}

// OptionsFromConfig reads aggregation settings from a tuning config.
func OptionsFromConfig(cfg *config.TuningConfig) Options {
	return Options{
		CellDegrees: cfg.GetGridCellDegrees(),
		MaxCells:    cfg.GetMaxVectorCells(),
		Circular:    cfg.GetCircularMean(),
	}
}

// Sample is one averaged cell vector. U and V are re-derived from the mean
// direction and speed.
type Sample struct {
	Lat, Lon  float64
	U, V      float64
	Speed     float64
	Direction float64 // degrees clockwise from north
	Count     int     // contributing observations
}

// Field is an immutable vector field built from one frame.
type Field struct {
	Kind       points.VectorKind
	FrameIndex int
	Identity   points.Identity
	Samples    []Sample
	MaxSpeed   float64
	// TotalCells is the number of occupied cells before the cap was applied.
	TotalCells int
	// Observations is the number of points binned, capped cells included.
	Observations int
}

// Empty reports whether the field has no samples. A nil field is empty.
func (f *Field) Empty() bool {
	return f == nil || len(f.Samples) == 0
}

// Truncated reports whether cells were dropped by the cap.
func (f *Field) Truncated() bool {
	return f != nil && f.TotalCells > len(f.Samples)
}

// Build aggregates the points tagged kind into a field.
func Build(pts []points.DataPoint, kind points.VectorKind, opts Options) *Field {
	f, _ := BuildContext(context.Background(), pts, kind, opts)
	return f
}

// BuildContext is Build with cancellation, checked while binning.
// points.VectorNone bins every usable vector whatever its tag.
func BuildContext(ctx context.Context, pts []points.DataPoint, kind points.VectorKind, opts Options) (*Field, error) {
	maxCells := opts.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	g, err := grid.AggregateContext(ctx, pts, kind, opts.CellDegrees)
	if err != nil {
		return nil, err
	}

	cells := g.Cells()
	f := &Field{Kind: kind, TotalCells: len(cells), Observations: g.SampleCount()}
	if len(cells) > maxCells {
		cells = cells[:maxCells]
	}
	f.Samples = make([]Sample, 0, len(cells))
	for _, c := range cells {
		s := reduceCell(c, opts.Circular)
		if s.Speed > f.MaxSpeed {
			f.MaxSpeed = s.Speed
		}
		f.Samples = append(f.Samples, s)
	}
	return f, nil
}

// BuildFrame builds the current and wind fields for a frame.
func BuildFrame(frame *points.Frame, opts Options) (currents, wind *Field) {
	if frame == nil {
		return &Field{Kind: points.VectorCurrent}, &Field{Kind: points.VectorWind}
	}
	currents = Build(frame.Points, points.VectorCurrent, opts)
	wind = Build(frame.Points, points.VectorWind, opts)
	currents.FrameIndex, currents.Identity = frame.Index, frame.Identity()
	wind.FrameIndex, wind.Identity = frame.Index, frame.Identity()
	return currents, wind
}

func reduceCell(c *grid.Cell, circular bool) Sample {
	speed := stat.Mean(c.Magnitudes(), nil)

	var dir float64
	if circular {
		dirs := c.Directions()
		for i := range dirs {
			dirs[i] *= math.Pi / 180
		}
		dir = normalizeDegrees(stat.CircularMean(dirs, nil) * 180 / math.Pi)
	} else {
		dir = stat.Mean(c.Directions(), nil)
	}

	u, v := points.UVFromPolar(dir, speed)
	return Sample{
		Lat: c.Lat, Lon: c.Lon,
		U: u, V: v,
		Speed:     speed,
		Direction: dir,
		Count:     len(c.Samples),
	}
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
