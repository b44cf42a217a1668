package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/scene"
)

func quiet(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	log.SetOutput(io.Discard)
	t.Cleanup(func() {
		monitoring.SetLogger(log.Printf)
		log.SetOutput(os.Stderr)
	})
}

func baseOptions(t *testing.T) runOptions {
	dir := t.TempDir()
	return runOptions{
		DBPath: filepath.Join(dir, "test.db"),
		Seed:   7,
		Frame:  -1,
		Zoom:   8,
		Lat:    29.5,
		Lon:    -88.1,
		Width:  400,
		Height: 300,
		Layers: "temperature,oceanCurrents,windVelocity,stations",
		Ticks:  3,
		OutDir: filepath.Join(dir, "out"),
		Rate:   1,
	}
}

func TestParseLayers(t *testing.T) {
	cfg, err := parseLayers("temperature, oceanCurrents,,stations")
	require.NoError(t, err)
	assert.Equal(t, []scene.Layer{scene.LayerTemperature, scene.LayerOceanCurrents, scene.LayerStations}, cfg.VisibleLayers())

	_, err = parseLayers("temperature,plankton")
	assert.Error(t, err)
}

func TestParseHover(t *testing.T) {
	got, err := parseHover("29.5,-88.1; 30,-87")
	require.NoError(t, err)
	assert.Equal(t, []latLon{{29.5, -88.1}, {30, -87}}, got)

	none, err := parseHover("  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []string{"29.5", "x,1", "1,y", "1,2,3"} {
		_, err := parseHover(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadRecords(t *testing.T) {
	dir := t.TempDir()

	arr := filepath.Join(dir, "arr.json")
	require.NoError(t, os.WriteFile(arr, []byte(`[{"lat": 1, "lon": 2, "time": "2024-08-01T00:00:00Z"}, {"lat": 3, "lon": 4}]`), 0644))
	recs, err := readRecords(arr)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	nd := filepath.Join(dir, "lines.json")
	body := "{\"lat\": 1, \"lon\": 2}\nnot json\n\n{\"lat\": 5, \"lon\": 6}\n"
	require.NoError(t, os.WriteFile(nd, []byte(body), 0644))
	recs, err = readRecords(nd)
	require.NoError(t, err)
	assert.Len(t, recs, 2, "the bad line is skipped")

	_, err = readRecords(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRun_SyntheticSingleFrame(t *testing.T) {
	quiet(t)
	o := baseOptions(t)
	o.Synthetic = 3
	o.Frame = 1
	o.Hover = "29.5,-88.1;0,0"
	o.Units = "kn"
	o.Timezone = "America/Chicago"

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), o, &stdout))

	for _, name := range []string{"frame_0001_temperature.png", "frame_0001_temperature.html", "frame_0001_flow.png"} {
		_, err := os.Stat(filepath.Join(o.OutDir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(o.OutDir, "frame_0000_temperature.png"))
	assert.True(t, os.IsNotExist(err), "only the selected frame is rendered")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "frame 1 hover 29.5000,-88.1000: ")
	assert.NotContains(t, lines[0], "none")
	assert.Contains(t, lines[1], "none")
	assert.NotContains(t, lines[0], "off-screen")
	assert.Contains(t, lines[1], "0.0000,0.0000 (off-screen): none")
}

func TestRun_AllFramesThenList(t *testing.T) {
	quiet(t)
	o := baseOptions(t)
	o.Synthetic = 2
	o.Layers = "salinity"

	require.NoError(t, run(context.Background(), o, &bytes.Buffer{}))
	for _, name := range []string{"frame_0000_salinity.png", "frame_0001_salinity.html"} {
		_, err := os.Stat(filepath.Join(o.OutDir, name))
		assert.NoError(t, err, name)
	}

	list := baseOptions(t)
	list.DBPath = o.DBPath
	list.List = true
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), list, &stdout))
	assert.Contains(t, stdout.String(), "synthetic-7")
	assert.Contains(t, stdout.String(), "2 frames")
}

func TestRun_Import(t *testing.T) {
	quiet(t)
	o := baseOptions(t)
	o.ImportFile = filepath.Join(t.TempDir(), "obs.json")
	body := `[
  {"lat": 29.5, "lon": -88.1, "time": "2024-08-01T00:00:00Z", "temp": 20, "direction": 90, "speed": 0.4},
  {"lat": 29.6, "lon": -88.0, "time": "2024-08-01T00:00:00Z", "temp": 22, "u": 0.1, "v": 0.2}
]`
	require.NoError(t, os.WriteFile(o.ImportFile, []byte(body), 0644))

	require.NoError(t, run(context.Background(), o, &bytes.Buffer{}))
	_, err := os.Stat(filepath.Join(o.OutDir, "frame_0000_temperature.png"))
	assert.NoError(t, err)
}

func TestRun_LogsCappedField(t *testing.T) {
	quiet(t)
	var logs bytes.Buffer
	log.SetOutput(&logs)

	dir := t.TempDir()
	o := baseOptions(t)
	o.ConfigPath = filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(o.ConfigPath, []byte(`{"max_vector_cells": 1}`), 0644))
	o.ImportFile = filepath.Join(dir, "obs.json")
	body := `[
  {"lat": 29.5, "lon": -88.1, "time": "2024-08-01T00:00:00Z", "direction": 90, "speed": 0.4},
  {"lat": 29.6, "lon": -88.0, "time": "2024-08-01T00:00:00Z", "direction": 180, "speed": 0.2}
]`
	require.NoError(t, os.WriteFile(o.ImportFile, []byte(body), 0644))

	require.NoError(t, run(context.Background(), o, &bytes.Buffer{}))
	assert.Contains(t, logs.String(), "frame 0: current field capped at 1 of 2 cells (2 observations)")
	assert.Contains(t, logs.String(), "m/px at centre")
	assert.Contains(t, logs.String(), "sampler rebuilds=")
}

func TestRun_Errors(t *testing.T) {
	quiet(t)

	o := baseOptions(t)
	assert.ErrorContains(t, run(context.Background(), o, &bytes.Buffer{}), "no dataset")

	o = baseOptions(t)
	o.Synthetic = 1
	o.Width = 0
	assert.ErrorContains(t, run(context.Background(), o, &bytes.Buffer{}), "degenerate camera")

	o = baseOptions(t)
	o.Units = "furlongs"
	assert.ErrorContains(t, run(context.Background(), o, &bytes.Buffer{}), "invalid units")

	o = baseOptions(t)
	o.Timezone = "Nowhere/Special"
	assert.ErrorContains(t, run(context.Background(), o, &bytes.Buffer{}), "invalid timezone")

	o = baseOptions(t)
	o.Layers = "nope"
	assert.Error(t, run(context.Background(), o, &bytes.Buffer{}))

	o = baseOptions(t)
	o.Synthetic = 1
	o.Frame = 5
	assert.Error(t, run(context.Background(), o, &bytes.Buffer{}))
}
