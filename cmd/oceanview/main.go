// Command oceanview imports or generates ocean observations, stores them in
// SQLite and renders frames to PNG and HTML.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/oceanview/internal/units"
	"github.com/banshee-data/oceanview/internal/version"
)

var (
	dbPath     = flag.String("db", "oceanview.db", "SQLite database path")
	configPath = flag.String("config", "", "Tuning config JSON (defaults built in)")

	synthetic  = flag.Int("synthetic", 0, "Generate N synthetic frames into a new dataset")
	seed       = flag.Uint64("seed", 1, "Seed for synthetic data and particles")
	importFile = flag.String("import", "", "Import records from a JSON array or newline-delimited JSON file")
	datasetID  = flag.String("dataset", "", "Dataset id to render (defaults to the dataset just created)")
	list       = flag.Bool("list", false, "List datasets and exit")

	frameIdx = flag.Int("frame", -1, "Frame to render, -1 for all frames")
	zoom     = flag.Float64("zoom", 8, "Map zoom level")
	lat      = flag.Float64("lat", 29.5, "Camera centre latitude")
	lon      = flag.Float64("lon", -88.1, "Camera centre longitude")
	width    = flag.Float64("width", 1024, "Viewport width in pixels")
	height   = flag.Float64("height", 768, "Viewport height in pixels")
	layers   = flag.String("field", "temperature,oceanCurrents,windVelocity,stations", "Comma-separated visible layers")
	depth    = flag.Float64("depth", 0, "Selected depth in metres")
	ticks    = flag.Int("ticks", 30, "Particle ticks to simulate per frame before writing output")
	outDir   = flag.String("out", "out", "Output directory")
	hoverAt  = flag.String("hover", "", "Semicolon-separated lat,lon pairs to look up in each frame")

	speedUnits = flag.String("units", units.MPS, "Speed units for hover output: "+units.GetValidUnitsString())
	timezone   = flag.String("tz", "UTC", "Timezone for displayed frame times")

	play        = flag.Bool("play", false, "Replay frames on the playback clock instead of as fast as possible")
	rate        = flag.Float64("rate", 1, "Playback rate multiplier used with -play")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	log.Print(version.String())

	opts := runOptions{
		DBPath:     *dbPath,
		ConfigPath: *configPath,
		Synthetic:  *synthetic,
		Seed:       *seed,
		ImportFile: *importFile,
		DatasetID:  *datasetID,
		List:       *list,
		Frame:      *frameIdx,
		Zoom:       *zoom,
		Lat:        *lat,
		Lon:        *lon,
		Width:      *width,
		Height:     *height,
		Layers:     *layers,
		Depth:      *depth,
		Ticks:      *ticks,
		OutDir:     *outDir,
		Hover:      *hoverAt,
		Units:      *speedUnits,
		Timezone:   *timezone,
		Play:       *play,
		Rate:       *rate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("oceanview: %v", err)
	}
	log.Printf("done in %v", time.Since(start).Round(time.Millisecond))
}
