package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/oceanview/internal/config"
	"github.com/banshee-data/oceanview/internal/monitor"
	"github.com/banshee-data/oceanview/internal/ocean/geoproj"
	"github.com/banshee-data/oceanview/internal/ocean/hover"
	"github.com/banshee-data/oceanview/internal/ocean/playback"
	"github.com/banshee-data/oceanview/internal/ocean/points"
	"github.com/banshee-data/oceanview/internal/ocean/scene"
	syntheticgen "github.com/banshee-data/oceanview/internal/ocean/synthetic"
	"github.com/banshee-data/oceanview/internal/ocean/vectorfield"
	"github.com/banshee-data/oceanview/internal/store"
	"github.com/banshee-data/oceanview/internal/timeutil"
	"github.com/banshee-data/oceanview/internal/units"
)

// maxImportBytes caps the size of an import file.
const maxImportBytes = 256 << 20

type runOptions struct {
	DBPath     string
	ConfigPath string

	Synthetic  int
	Seed       uint64
	ImportFile string
	DatasetID  string
	List       bool

	Frame  int
	Zoom   float64
	Lat    float64
	Lon    float64
	Width  float64
	Height float64
	Layers string
	Depth  float64
	Ticks  int
	OutDir string
	Hover  string

	Units    string
	Timezone string

	Play bool
	Rate float64
}

type latLon struct{ Lat, Lon float64 }

func run(ctx context.Context, o runOptions, stdout io.Writer) error {
	cfg := config.DefaultTuningConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(o.ConfigPath); err != nil {
			return err
		}
	}

	visible, err := parseLayers(o.Layers)
	if err != nil {
		return err
	}
	lookups, err := parseHover(o.Hover)
	if err != nil {
		return err
	}

	if o.Units == "" {
		o.Units = units.MPS
	}
	if !units.IsValid(o.Units) {
		return fmt.Errorf("invalid units %q, want one of %s", o.Units, units.GetValidUnitsString())
	}
	if o.Timezone != "" && !units.IsTimezoneValid(o.Timezone) {
		return fmt.Errorf("invalid timezone %q", o.Timezone)
	}

	st, err := store.Open(o.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if o.List {
		return listDatasets(ctx, st, stdout)
	}

	dsID := o.DatasetID
	switch {
	case o.Synthetic > 0:
		if dsID, err = storeSynthetic(ctx, st, o.Synthetic, o.Seed); err != nil {
			return err
		}
	case o.ImportFile != "":
		if dsID, err = importRecords(ctx, st, o.ImportFile); err != nil {
			return err
		}
	}
	if dsID == "" {
		return errors.New("no dataset: pass -dataset, -synthetic or -import")
	}

	frames, stats, err := st.LoadFrames(ctx, dsID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("dataset %s has no frames", dsID)
	}
	log.Printf("dataset %s: %d frames, %d points, %d skipped (%d malformed, %d out of range)",
		dsID, len(frames), stats.Accepted, stats.Skipped(), stats.Malformed, stats.OutOfRange)

	cam := geoproj.Camera{CenterLat: o.Lat, CenterLon: o.Lon, Zoom: o.Zoom, Width: o.Width, Height: o.Height}
	if cam.Degenerate() {
		return fmt.Errorf("degenerate camera %+v", cam)
	}

	r := &frameRenderer{
		engine:  scene.New(scene.Options{Config: cfg, Seed: o.Seed}),
		cam:     cam,
		layers:  visible,
		depth:   o.Depth,
		ticks:   o.Ticks,
		outDir:  o.OutDir,
		lookups: lookups,
		thresh:  cfg.GetHoverThresholdDegrees(),
		units:   o.Units,
		tz:      o.Timezone,
		stdout:  stdout,
	}
	log.Printf("camera %.4f,%.4f zoom %g: %.0f m/px at centre", cam.CenterLat, cam.CenterLon, cam.Zoom, geoproj.MetresPerPixel(cam.CenterLat, cam))

	player := playback.New(frames, playback.SinkFunc(r.show), timeutil.RealClock{}, cfg.GetPlaybackInterval())
	switch {
	case o.Frame >= 0:
		if err := player.Seek(ctx, o.Frame); err != nil {
			return err
		}
	case o.Play:
		if err := player.SetRate(o.Rate); err != nil {
			return err
		}
		player.Play()
		if err := player.Run(ctx); err != nil {
			return err
		}
	default:
		if err := player.Seek(ctx, 0); err != nil {
			return err
		}
		for {
			if err := player.Step(ctx); err != nil {
				if errors.Is(err, playback.ErrEnd) {
					break
				}
				return err
			}
			if r.err != nil {
				break
			}
		}
	}
	if r.err != nil {
		return r.err
	}

	s := r.engine.Stats()
	log.Printf("wrote %d files to %s; cache hits=%d misses=%d evictions=%d live=%d; heatmap hits=%d misses=%d; fields published=%d discarded=%d; sampler rebuilds=%d",
		r.written, o.OutDir, s.Cache.Hits, s.Cache.Misses, s.Cache.Evictions, len(s.CachedFrames),
		s.HeatmapHits, s.HeatmapMisses, s.Worker.Published, s.Worker.Discarded, s.SamplerRebuilds)
	return nil
}

// frameRenderer is the playback sink: it shows a frame on the scene engine,
// runs the particle simulation and writes the charts.
type frameRenderer struct {
	engine  *scene.Engine
	cam     geoproj.Camera
	layers  scene.LayerConfig
	depth   float64
	ticks   int
	outDir  string
	lookups []latLon
	thresh  float64
	units   string
	tz      string
	stdout  io.Writer

	written int
	err     error
}

func (r *frameRenderer) show(ctx context.Context, f *points.Frame) {
	if r.err != nil {
		return
	}
	r.err = r.render(ctx, f)
}

func (r *frameRenderer) render(ctx context.Context, f *points.Frame) error {
	snap, err := r.engine.ShowFrame(ctx, f)
	if err != nil {
		return fmt.Errorf("build fields for frame %d: %w", f.Index, err)
	}
	for _, field := range []*vectorfield.Field{snap.Currents, snap.Wind} {
		if field.Truncated() {
			log.Printf("frame %d: %s field capped at %d of %d cells (%d observations)",
				f.Index, field.Kind, len(field.Samples), field.TotalCells, field.Observations)
		}
	}

	out := r.engine.Render(r.cam, r.layers, r.depth)
	for i := 1; i < r.ticks; i++ {
		out = r.engine.Render(r.cam, r.layers, r.depth)
	}

	prefix := filepath.Join(r.outDir, fmt.Sprintf("frame_%04d", f.Index))
	for _, layer := range out.Heatmaps {
		data := monitor.PrepareHeatmapChartData(layer, r.cam)
		if err := monitor.WriteHeatmapPNG(fmt.Sprintf("%s_%s.png", prefix, layer.Layer), data); err != nil {
			return err
		}
		if err := monitor.WriteHeatmapHTML(fmt.Sprintf("%s_%s.html", prefix, layer.Layer), data); err != nil {
			return err
		}
		r.written += 2
	}
	if len(out.Currents)+len(out.Wind)+len(out.Stations) > 0 {
		data := monitor.PrepareFlowChartData(out, r.cam)
		if err := monitor.WriteFlowPNG(prefix+"_flow.png", data); err != nil {
			return err
		}
		r.written++
	}

	if len(r.lookups) > 0 {
		idx := hover.NewIndex(f.Points)
		for _, q := range r.lookups {
			where := ""
			if !geoproj.Visible(q.Lat, q.Lon, r.cam, 0) {
				where = " (off-screen)"
			}
			p, ok := idx.Nearest(q.Lat, q.Lon, r.thresh)
			if !ok {
				fmt.Fprintf(r.stdout, "frame %d hover %.4f,%.4f%s: none\n", f.Index, q.Lat, q.Lon, where)
				continue
			}
			fmt.Fprintf(r.stdout, "frame %d hover %.4f,%.4f%s: %s\n", f.Index, q.Lat, q.Lon, where, describePoint(p, r.units))
		}
	}

	local, err := units.ConvertTime(f.Timestamp, r.tz)
	if err != nil {
		return err
	}
	log.Printf("frame %d (%s): %d points, %d sampled, %d heatmap layers, %d current + %d wind particles",
		f.Index, local.Format("2006-01-02 15:04 MST"), f.Len(), out.Sampled,
		len(out.Heatmaps), len(out.Currents), len(out.Wind))
	return nil
}

func describePoint(p points.DataPoint, speedUnits string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.4f,%.4f", p.Lat, p.Lon)
	if p.HasDepth {
		fmt.Fprintf(&b, " depth=%g", p.Depth)
	}
	for _, name := range points.ScalarFields {
		if v, ok := p.Scalar(name); ok {
			fmt.Fprintf(&b, " %s=%.3f", name, v)
		}
	}
	if p.Kind != points.VectorNone {
		fmt.Fprintf(&b, " %s=%.3f%s@%.1f°", p.Kind,
			units.ConvertSpeed(p.Vector.Speed, speedUnits), units.Symbol(speedUnits), p.Vector.Direction)
	}
	return b.String()
}

func listDatasets(ctx context.Context, st *store.Store, w io.Writer) error {
	datasets, err := st.ListDatasets(ctx)
	if err != nil {
		return err
	}
	for _, ds := range datasets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d observations\t%d frames\t%s\n",
			ds.ID, ds.Name, ds.Source, ds.Observations, ds.Frames, ds.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func storeSynthetic(ctx context.Context, st *store.Store, n int, seed uint64) (string, error) {
	ds, err := st.CreateDataset(ctx, fmt.Sprintf("synthetic-%d", seed), "synthetic")
	if err != nil {
		return "", err
	}
	gen := syntheticgen.NewGenerator(ds.ID, seed)
	for i := 0; i < n; i++ {
		if _, err := st.InsertRecords(ctx, ds.ID, gen.Records(i)); err != nil {
			return "", err
		}
	}
	log.Printf("generated %d synthetic frames into dataset %s", n, ds.ID)
	return ds.ID, nil
}

func importRecords(ctx context.Context, st *store.Store, path string) (string, error) {
	recs, err := readRecords(path)
	if err != nil {
		return "", err
	}
	ds, err := st.CreateDataset(ctx, filepath.Base(path), path)
	if err != nil {
		return "", err
	}
	stats, err := st.InsertRecords(ctx, ds.ID, recs)
	if err != nil {
		return "", err
	}
	log.Printf("imported %d records from %s into dataset %s (%d without timestamp)", stats.Inserted, path, ds.ID, stats.NoTime)
	return ds.ID, nil
}

// readRecords accepts either a JSON array of objects or one object per line.
func readRecords(path string) ([]points.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxImportBytes {
		return nil, fmt.Errorf("%s is too large (%d bytes)", path, info.Size())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var recs []points.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return recs, nil
	}

	var recs []points.Record
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var rec points.Record
		if err := dec.Decode(&rec); err != nil {
			// One bad line never aborts an import.
			log.Printf("skipping %s:%d: %v", path, line, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

func parseLayers(s string) (scene.LayerConfig, error) {
	var visible []scene.Layer
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		l, err := scene.ParseLayer(part)
		if err != nil {
			return scene.LayerConfig{}, err
		}
		visible = append(visible, l)
	}
	return scene.NewLayerConfig(visible...), nil
}

// parseHover parses "lat,lon;lat,lon".
func parseHover(s string) ([]latLon, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []latLon
	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid hover point %q, want lat,lon", pair)
		}
		la, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hover latitude %q: %w", parts[0], err)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hover longitude %q: %w", parts[1], err)
		}
		out = append(out, latLon{Lat: la, Lon: lo})
	}
	return out, nil
}
