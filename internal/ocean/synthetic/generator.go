// Package synthetic produces deterministic observation frames for demos and
// tests: smooth scalar gradients, a clockwise current gyre, a veering wind
// over a subset of stations, several depth layers and a sprinkling of bad
// rows.
package synthetic

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// Generator produces the same frames for the same seed and settings.
type Generator struct {
	Dataset string

	CenterLat float64
	CenterLon float64
	Radius    float64 // degrees

	StationCount int
	// Every WindEvery-th station reports wind instead of current. Zero
	// disables wind.
	WindEvery   int
	DepthLayers []float64
	// MalformedRate is the fraction of extra bad records appended per frame.
	MalformedRate float64

	Start time.Time
	Step  time.Duration

	seed     uint64
	stations []station
}

type station struct {
	lat, lon float64
	depth    float64
	// dr and bearing locate the station relative to the centre, dr in
	// [0,1] of Radius.
	dr      float64
	bearing float64
}

// NewGenerator returns a generator centred on the northern Gulf of Mexico.
func NewGenerator(dataset string, seed uint64) *Generator {
	return &Generator{
		Dataset:       dataset,
		CenterLat:     29.5,
		CenterLon:     -88.1,
		Radius:        0.6,
		StationCount:  400,
		WindEvery:     5,
		DepthLayers:   []float64{0, 10, 50},
		MalformedRate: 0.02,
		Start:         time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Step:          time.Hour,
		seed:          seed,
	}
}

// Timestamp returns the timestamp of frame i.
func (g *Generator) Timestamp(i int) time.Time {
	return g.Start.Add(time.Duration(i) * g.Step)
}

// Records generates the raw rows for frame i.
func (g *Generator) Records(i int) []points.Record {
	g.layout()
	rng := rand.New(rand.NewPCG(g.seed, uint64(i)+1))
	ts := g.Timestamp(i)
	phase := float64(i) * 2 * math.Pi / 24

	recs := make([]points.Record, 0, len(g.stations)+g.malformedCount())
	for n, s := range g.stations {
		dx := s.dr * math.Sin(s.bearing)
		dy := s.dr * math.Cos(s.bearing)

		rec := points.Record{
			points.KeyLat:   s.lat,
			points.KeyLon:   s.lon,
			points.KeyDepth: s.depth,
			points.KeyTime:  ts.Format(time.RFC3339),

			points.FieldTemperature: 24 - 4*dy - 0.08*s.depth + 1.5*math.Sin(phase) + rng.NormFloat64()*0.2,
			points.FieldSalinity:    35 + 2.5*dx + 0.02*s.depth + rng.NormFloat64()*0.1,
			points.FieldSSH:         0.9 * math.Sin(math.Pi*dx+phase) * (1 - 0.5*s.dr),
			points.FieldPressure:    1012 + 10*math.Cos(math.Pi*dy+phase/2),
		}

		if g.WindEvery > 0 && n%g.WindEvery == 0 {
			rec[points.KeyWindDir] = math.Mod(220+25*math.Sin(phase+dx), 360)
			rec[points.KeyWindSpeed] = 7 + 3*math.Cos(phase-dy)
			recs = append(recs, rec)
			continue
		}

		// Clockwise gyre: the flow heads 90° clockwise from the outward
		// bearing, strongest at the rim.
		dir := math.Mod(s.bearing*180/math.Pi+90, 360)
		speed := 0.15 + 0.6*s.dr*(1+0.2*math.Sin(phase))
		switch n % 7 {
		case 1:
			u, v := points.UVFromPolar(dir, speed)
			rec[points.KeyU], rec[points.KeyV] = u, v
		case 3:
			// Direction only; speed falls back to the ssh-derived value.
			rec[points.KeyDirection] = dir
		default:
			rec[points.KeyDirection] = dir
			rec[points.KeySpeed] = speed
		}
		recs = append(recs, rec)
	}

	for k := 0; k < g.malformedCount(); k++ {
		recs = append(recs, malformed(k, rng))
	}
	return recs
}

// Frame ingests frame i.
func (g *Generator) Frame(i int) (*points.Frame, points.IngestStats) {
	pts, stats := points.IngestAll(g.Records(i))
	return points.NewFrame(i, g.Dataset, g.Timestamp(i), pts), stats
}

// Frames generates frames 0..n-1.
func (g *Generator) Frames(n int) []*points.Frame {
	out := make([]*points.Frame, n)
	for i := range out {
		out[i], _ = g.Frame(i)
	}
	return out
}

func (g *Generator) malformedCount() int {
	return int(math.Round(float64(g.StationCount) * g.MalformedRate))
}

// layout places the stations once; positions are shared by every frame.
func (g *Generator) layout() {
	if len(g.stations) == g.StationCount {
		return
	}
	rng := rand.New(rand.NewPCG(g.seed, 0))
	g.stations = make([]station, g.StationCount)
	for i := range g.stations {
		dr := math.Sqrt(rng.Float64())
		bearing := rng.Float64() * 2 * math.Pi
		depth := 0.0
		if len(g.DepthLayers) > 0 {
			depth = g.DepthLayers[i%len(g.DepthLayers)]
		}
		g.stations[i] = station{
			lat:     g.CenterLat + g.Radius*dr*math.Cos(bearing),
			lon:     g.CenterLon + g.Radius*dr*math.Sin(bearing),
			depth:   depth,
			dr:      dr,
			bearing: bearing,
		}
	}
}

func malformed(k int, rng *rand.Rand) points.Record {
	switch k % 3 {
	case 0:
		return points.Record{points.KeyLat: 29.5, points.FieldTemperature: 20.0}
	case 1:
		return points.Record{points.KeyLat: 91 + rng.Float64(), points.KeyLon: -88.0}
	default:
		return points.Record{points.KeyLat: "n/a", points.KeyLon: -88.0}
	}
}
