// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Flock      FlockConfig      `yaml:"flock"`
	Grid       GridConfig       `yaml:"grid"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions in world units.
// The world is toroidal; the camera handles the viewport.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds fixed-timestep parameters.
type PhysicsConfig struct {
	TickRate         float64 `yaml:"tick_rate"`           // physics ticks per second
	MaxTicksPerFrame int     `yaml:"max_ticks_per_frame"` // catch-up cap per render frame
}

// FlockConfig holds the steering rule parameters.
type FlockConfig struct {
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationRadius float64 `yaml:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius"`
	CohesionRadius   float64 `yaml:"cohesion_radius"`
	MaxSpeed         float64 `yaml:"max_speed"`
	MaxForce         float64 `yaml:"max_force"`
}

// GridConfig holds spatial grid tuning parameters.
// Cell size never drops below the largest perception radius; within
// that constraint the grid re-tunes toward the target occupancy when
// average bucket population leaves the band [target*low, target*high].
type GridConfig struct {
	TargetOccupancy float64 `yaml:"target_occupancy"` // desired agents per cell
	OccupancyLow    float64 `yaml:"occupancy_low"`    // band lower bound multiplier
	OccupancyHigh   float64 `yaml:"occupancy_high"`   // band upper bound multiplier
	RetuneInterval  int     `yaml:"retune_interval"`  // ticks between re-tune checks
}

// PopulationConfig holds agent count parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
	HardCap int `yaml:"hard_cap"` // ApplyParams rejects counts above this
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfSamples int     `yaml:"perf_samples"` // rolling sample count per phase
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT float64 // seconds per physics tick (1 / Physics.TickRate)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Physics.TickRate <= 0 {
		c.Physics.TickRate = 60
	}
	c.Derived.DT = 1.0 / c.Physics.TickRate
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
