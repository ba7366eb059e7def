// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Boundary modes.
const (
	BoundaryPeriodic   = "periodic"
	BoundaryReflective = "reflective"
)

// Collision modes.
const (
	CollisionNone       = "none"
	CollisionOnePerCell = "one_per_cell"
)

// Stimulus modes.
const (
	StimulusNone       = "none"
	StimulusAdditive   = "additive"
	StimulusPrePattern = "prepattern"
)

// Sense channels.
const (
	SenseDeposition = "deposition"
	SenseCombined   = "combined"
)

// Steering policies.
const (
	SteeringExplore = "explore"
	SteeringGreedy  = "greedy"
)

// Spawn modes.
const (
	SpawnUniform = "uniform"
	SpawnPoints  = "points"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Field     FieldConfig      `yaml:"field"`
	Agents    AgentsConfig     `yaml:"agents"`
	Modes     ModesConfig      `yaml:"modes"`
	Stimulus  StimulusConfig   `yaml:"stimulus"`
	Obstacles []ObstacleConfig `yaml:"obstacles"`
	Spawn     SpawnConfig      `yaml:"spawn"`
	Sim       SimConfig        `yaml:"sim"`
	Screen    ScreenConfig     `yaml:"screen"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig holds trail grid parameters.
type FieldConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	DecayFactor float64 `yaml:"decay_factor"` // Multiplier applied every tick, in [0,1)
	Workers     int     `yaml:"workers"`      // Row workers for the diffusion pass (0 = GOMAXPROCS, 1 = serial)
}

// AgentsConfig holds agent steering geometry.
// Angles are in radians.
type AgentsConfig struct {
	Count            int     `yaml:"count"`
	SensorDistance   float64 `yaml:"sensor_distance"`
	SensorAngle      float64 `yaml:"sensor_angle"`
	SensorSize       float64 `yaml:"sensor_size"` // Side of the square sensor footprint (0 = single cell)
	StepSize         float64 `yaml:"step_size"`
	RotationAngle    float64 `yaml:"rotation_angle"`
	DepositionAmount float64 `yaml:"deposition_amount"`
	Steering         string  `yaml:"steering"` // explore | greedy
}

// ModesConfig selects the behavioural variant.
type ModesConfig struct {
	Boundary  string `yaml:"boundary"`  // periodic | reflective
	Collision string `yaml:"collision"` // none | one_per_cell
	Stimulus  string `yaml:"stimulus"`  // none | additive | prepattern
	Sense     string `yaml:"sense"`     // deposition | combined
}

// StimulusConfig holds externally configured point sources.
type StimulusConfig struct {
	PrePatternWeight float64               `yaml:"pre_pattern_weight"` // Recommended 0.01..0.1
	NeighborFactor   float64               `yaml:"neighbor_factor"`    // Added to the 8 neighbours on reapply
	Points           []StimulusPointConfig `yaml:"points"`
	Noise            NoiseStimulusConfig   `yaml:"noise"`
}

// StimulusPointConfig is a single stimulus cell.
type StimulusPointConfig struct {
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
	Intensity float64 `yaml:"intensity"`
}

// NoiseStimulusConfig generates a procedural stimulus layout from simplex noise.
type NoiseStimulusConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Seed      int64   `yaml:"seed"`
	Spacing   int     `yaml:"spacing"`   // Lattice spacing in cells
	Scale     float64 `yaml:"scale"`     // Noise frequency per cell
	Octaves   int     `yaml:"octaves"`
	Threshold float64 `yaml:"threshold"` // Normalized noise below this emits nothing
	Intensity float64 `yaml:"intensity"` // Intensity at noise = 1
}

// ObstacleConfig is an axis-aligned rectangle with a paint color.
type ObstacleConfig struct {
	X      float64    `yaml:"x"`
	Y      float64    `yaml:"y"`
	Width  float64    `yaml:"width"`
	Height float64    `yaml:"height"`
	Color  [3]float64 `yaml:"color"` // RGB, channel R/G land on deposition/pre-pattern
}

// SpawnConfig controls initial placement and population growth.
type SpawnConfig struct {
	Mode          string             `yaml:"mode"` // uniform | points
	Points        []SpawnPointConfig `yaml:"points"`
	AgentsPerTick int                `yaml:"agents_per_tick"` // 0 = spawn everything at construction
	MaxAttempts   int                `yaml:"max_attempts"`    // Random proposals before the free-cell search
	PaintMarkers  bool               `yaml:"paint_markers"`   // Paint each spawn point's color every tick
}

// SpawnPointConfig is a disk-shaped spawn region.
type SpawnPointConfig struct {
	X      float64    `yaml:"x"`
	Y      float64    `yaml:"y"`
	Radius float64    `yaml:"radius"`
	Agents int        `yaml:"agents"`
	Color  [3]float64 `yaml:"color"`
}

// SimConfig holds run-loop parameters.
type SimConfig struct {
	Seed           int64 `yaml:"seed"`             // 0 = time-based
	StepsPerUpdate int   `yaml:"steps_per_update"` // Ticks per host frame
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	TargetFPS int     `yaml:"target_fps"`
	Gain      float64 `yaml:"gain"` // Field value to color intensity multiplier
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // Ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
	FrameEvery          int `yaml:"frame_every"`           // Ticks between frame dumps (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells         int     // Field.Width * Field.Height
	TotalAgents   int     // Target population (sum of spawn quotas in points mode)
	DecayFactor32 float32 // Field.DecayFactor as float32
	HasObstacles  bool
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

// Default returns the embedded defaults, validated.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge validates data against the config schema and unmarshals it over cfg.
// Only fields present in data are overwritten. Derived values are not recomputed.
func Merge(cfg *Config, data []byte) error {
	if err := validateSchema(data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Finalize recomputes derived values and validates. Call after programmatic edits.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Obstacles = append([]ObstacleConfig(nil), c.Obstacles...)
	out.Spawn.Points = append([]SpawnPointConfig(nil), c.Spawn.Points...)
	out.Stimulus.Points = append([]StimulusPointConfig(nil), c.Stimulus.Points...)
	return &out
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.Field.Width * c.Field.Height
	c.Derived.DecayFactor32 = float32(c.Field.DecayFactor)
	c.Derived.HasObstacles = len(c.Obstacles) > 0

	if c.Spawn.Mode == SpawnPoints {
		total := 0
		for _, sp := range c.Spawn.Points {
			total += sp.Agents
		}
		c.Derived.TotalAgents = total
	} else {
		c.Derived.TotalAgents = c.Agents.Count
	}

	if c.Sim.StepsPerUpdate < 1 {
		c.Sim.StepsPerUpdate = 1
	}
	if c.Screen.Gain == 0 {
		c.Screen.Gain = 1
	}
}

// SensorAngleDegrees returns the sensor angle in degrees, for display.
func (c *Config) SensorAngleDegrees() float64 {
	return c.Agents.SensorAngle * 180 / math.Pi
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
