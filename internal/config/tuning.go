package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Cache eviction policies accepted by cache_policy.
const (
	CachePolicyFIFO = "fifo"
	CachePolicyLRU  = "lru"
)

// TuningConfig represents the root configuration for engine tuning parameters.
// Every field is optional; the Get* accessors supply the built-in default for
// anything the JSON omits, so partial configs are safe.
type TuningConfig struct {
	// Vector field params
	GridCellDegrees *float64 `json:"grid_cell_degrees,omitempty"`
	MaxVectorCells  *int     `json:"max_vector_cells,omitempty"`
	CircularMean    *bool    `json:"circular_mean,omitempty"`

	// Frame cache params
	CacheCapacity *int    `json:"cache_capacity,omitempty"`
	CachePolicy   *string `json:"cache_policy,omitempty"` // "fifo" or "lru"

	// Heatmap params
	HeatmapBaseSpacing *float64 `json:"heatmap_base_spacing,omitempty"`
	HeatmapMinSpacing  *float64 `json:"heatmap_min_spacing,omitempty"`
	HeatmapMaxSpacing  *float64 `json:"heatmap_max_spacing,omitempty"`
	DepthEpsilon       *float64 `json:"depth_epsilon,omitempty"`
	CullMarginPixels   *float64 `json:"cull_margin_pixels,omitempty"`

	// Particle params
	ParticleCount         *int     `json:"particle_count,omitempty"`
	ParticleMinAge        *int     `json:"particle_min_age,omitempty"`
	ParticleMaxAge        *int     `json:"particle_max_age,omitempty"`
	ParticleTimeStep      *float64 `json:"particle_time_step,omitempty"`
	ParticleSearchDegrees *float64 `json:"particle_search_degrees,omitempty"`

	// Hover params
	HoverThresholdDegrees *float64 `json:"hover_threshold_degrees,omitempty"`
	HoverInterval         *string  `json:"hover_interval,omitempty"` // duration string like "16ms"

	// Playback params
	PlaybackInterval *string `json:"playback_interval,omitempty"` // duration string like "500ms"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		GridCellDegrees:       ptrFloat64(0.01),
		MaxVectorCells:        ptrInt(1000),
		CircularMean:          ptrBool(false),
		CacheCapacity:         ptrInt(100),
		CachePolicy:           ptrString(CachePolicyFIFO),
		HeatmapBaseSpacing:    ptrFloat64(20),
		HeatmapMinSpacing:     ptrFloat64(6),
		HeatmapMaxSpacing:     ptrFloat64(40),
		DepthEpsilon:          ptrFloat64(0.1),
		CullMarginPixels:      ptrFloat64(100),
		ParticleCount:         ptrInt(1000),
		ParticleMinAge:        ptrInt(40),
		ParticleMaxAge:        ptrInt(100),
		ParticleTimeStep:      ptrFloat64(0.0015),
		ParticleSearchDegrees: ptrFloat64(0.25),
		HoverThresholdDegrees: ptrFloat64(0.1),
		HoverInterval:         ptrString("16ms"),
		PlaybackInterval:      ptrString("500ms"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/ocean/<pkg>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.GridCellDegrees != nil && (*c.GridCellDegrees <= 0 || *c.GridCellDegrees > 10) {
		return fmt.Errorf("grid_cell_degrees must be in (0, 10], got %f", *c.GridCellDegrees)
	}
	if c.MaxVectorCells != nil && *c.MaxVectorCells < 1 {
		return fmt.Errorf("max_vector_cells must be positive, got %d", *c.MaxVectorCells)
	}
	if c.CacheCapacity != nil && *c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be positive, got %d", *c.CacheCapacity)
	}
	if c.CachePolicy != nil {
		switch *c.CachePolicy {
		case "", CachePolicyFIFO, CachePolicyLRU:
		default:
			return fmt.Errorf("cache_policy must be %q or %q, got %q", CachePolicyFIFO, CachePolicyLRU, *c.CachePolicy)
		}
	}

	minSpacing, maxSpacing := c.GetHeatmapMinSpacing(), c.GetHeatmapMaxSpacing()
	if minSpacing <= 0 {
		return fmt.Errorf("heatmap_min_spacing must be positive, got %f", minSpacing)
	}
	if maxSpacing < minSpacing {
		return fmt.Errorf("heatmap_max_spacing (%f) must be >= heatmap_min_spacing (%f)", maxSpacing, minSpacing)
	}
	if c.HeatmapBaseSpacing != nil && *c.HeatmapBaseSpacing <= 0 {
		return fmt.Errorf("heatmap_base_spacing must be positive, got %f", *c.HeatmapBaseSpacing)
	}
	if c.DepthEpsilon != nil && *c.DepthEpsilon < 0 {
		return fmt.Errorf("depth_epsilon must be non-negative, got %f", *c.DepthEpsilon)
	}
	if c.CullMarginPixels != nil && *c.CullMarginPixels < 0 {
		return fmt.Errorf("cull_margin_pixels must be non-negative, got %f", *c.CullMarginPixels)
	}

	if c.ParticleCount != nil && *c.ParticleCount < 1 {
		return fmt.Errorf("particle_count must be positive, got %d", *c.ParticleCount)
	}
	minAge, maxAge := c.GetParticleMinAge(), c.GetParticleMaxAge()
	if minAge < 1 || maxAge <= minAge {
		return fmt.Errorf("particle ages must satisfy 1 <= min < max, got min=%d max=%d", minAge, maxAge)
	}
	if c.ParticleTimeStep != nil && *c.ParticleTimeStep <= 0 {
		return fmt.Errorf("particle_time_step must be positive, got %f", *c.ParticleTimeStep)
	}
	if c.ParticleSearchDegrees != nil && *c.ParticleSearchDegrees <= 0 {
		return fmt.Errorf("particle_search_degrees must be positive, got %f", *c.ParticleSearchDegrees)
	}
	if c.HoverThresholdDegrees != nil && *c.HoverThresholdDegrees <= 0 {
		return fmt.Errorf("hover_threshold_degrees must be positive, got %f", *c.HoverThresholdDegrees)
	}

	if c.HoverInterval != nil && *c.HoverInterval != "" {
		if _, err := time.ParseDuration(*c.HoverInterval); err != nil {
			return fmt.Errorf("invalid hover_interval '%s': %w", *c.HoverInterval, err)
		}
	}
	if c.PlaybackInterval != nil && *c.PlaybackInterval != "" {
		if _, err := time.ParseDuration(*c.PlaybackInterval); err != nil {
			return fmt.Errorf("invalid playback_interval '%s': %w", *c.PlaybackInterval, err)
		}
	}

	return nil
}

// GetGridCellDegrees returns the vector aggregation cell size in degrees.
func (c *TuningConfig) GetGridCellDegrees() float64 {
	if c.GridCellDegrees == nil {
		return 0.01
	}
	return *c.GridCellDegrees
}

// GetMaxVectorCells returns the cap on emitted vector field cells.
func (c *TuningConfig) GetMaxVectorCells() int {
	if c.MaxVectorCells == nil {
		return 1000
	}
	return *c.MaxVectorCells
}

// GetCircularMean reports whether cell directions are averaged as vectors.
func (c *TuningConfig) GetCircularMean() bool {
	if c.CircularMean == nil {
		return false // default: arithmetic mean
	}
	return *c.CircularMean
}

// GetCacheCapacity returns the frame cache capacity.
func (c *TuningConfig) GetCacheCapacity() int {
	if c.CacheCapacity == nil {
		return 100
	}
	return *c.CacheCapacity
}

// GetCachePolicy returns the frame cache eviction policy.
func (c *TuningConfig) GetCachePolicy() string {
	if c.CachePolicy == nil || *c.CachePolicy == "" {
		return CachePolicyFIFO
	}
	return *c.CachePolicy
}

// GetHeatmapBaseSpacing returns the screen spacing at zoom 10, in pixels.
func (c *TuningConfig) GetHeatmapBaseSpacing() float64 {
	if c.HeatmapBaseSpacing == nil {
		return 20
	}
	return *c.HeatmapBaseSpacing
}

// GetHeatmapMinSpacing returns the lower spacing clamp in pixels.
func (c *TuningConfig) GetHeatmapMinSpacing() float64 {
	if c.HeatmapMinSpacing == nil {
		return 6
	}
	return *c.HeatmapMinSpacing
}

// GetHeatmapMaxSpacing returns the upper spacing clamp in pixels.
func (c *TuningConfig) GetHeatmapMaxSpacing() float64 {
	if c.HeatmapMaxSpacing == nil {
		return 40
	}
	return *c.HeatmapMaxSpacing
}

// GetDepthEpsilon returns the depth match tolerance.
func (c *TuningConfig) GetDepthEpsilon() float64 {
	if c.DepthEpsilon == nil {
		return 0.1
	}
	return *c.DepthEpsilon
}

// GetCullMarginPixels returns the off-screen margin kept when culling.
func (c *TuningConfig) GetCullMarginPixels() float64 {
	if c.CullMarginPixels == nil {
		return 100
	}
	return *c.CullMarginPixels
}

// GetParticleCount returns the fixed particle pool size.
func (c *TuningConfig) GetParticleCount() int {
	if c.ParticleCount == nil {
		return 1000
	}
	return *c.ParticleCount
}

// GetParticleMinAge returns the inclusive lower bound for particle lifetimes, in ticks.
func (c *TuningConfig) GetParticleMinAge() int {
	if c.ParticleMinAge == nil {
		return 40
	}
	return *c.ParticleMinAge
}

// GetParticleMaxAge returns the exclusive upper bound for particle lifetimes, in ticks.
func (c *TuningConfig) GetParticleMaxAge() int {
	if c.ParticleMaxAge == nil {
		return 100
	}
	return *c.ParticleMaxAge
}

// GetParticleTimeStep returns the per-tick advection time constant.
func (c *TuningConfig) GetParticleTimeStep() float64 {
	if c.ParticleTimeStep == nil {
		return 0.0015
	}
	return *c.ParticleTimeStep
}

// GetParticleSearchDegrees returns the nearest-sample search radius in degrees.
func (c *TuningConfig) GetParticleSearchDegrees() float64 {
	if c.ParticleSearchDegrees == nil {
		return 0.25
	}
	return *c.ParticleSearchDegrees
}

// GetHoverThresholdDegrees returns the hover pick distance threshold.
func (c *TuningConfig) GetHoverThresholdDegrees() float64 {
	if c.HoverThresholdDegrees == nil {
		return 0.1
	}
	return *c.HoverThresholdDegrees
}

// GetHoverInterval parses and returns the HoverInterval as a time.Duration.
func (c *TuningConfig) GetHoverInterval() time.Duration {
	if c.HoverInterval == nil || *c.HoverInterval == "" {
		return 16 * time.Millisecond // default: one 60 Hz paint
	}
	d, err := time.ParseDuration(*c.HoverInterval)
	if err != nil {
		return 16 * time.Millisecond // default on parse error
	}
	return d
}

// GetPlaybackInterval parses and returns the PlaybackInterval as a time.Duration.
func (c *TuningConfig) GetPlaybackInterval() time.Duration {
	if c.PlaybackInterval == nil || *c.PlaybackInterval == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.PlaybackInterval)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}
