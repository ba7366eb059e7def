package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("config.schema.json", schemaJSON)
	})
	return compiledSchema, schemaErr
}

// validateSchema checks a raw YAML document against the embedded JSON schema.
// The document is round-tripped through JSON so the validator sees JSON types.
func validateSchema(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if doc == nil {
		return nil // empty file overrides nothing
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("converting config to json: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	msg := "invalid config"
	for i, p := range e.Problems {
		if i == 0 {
			msg += ": "
		} else {
			msg += "; "
		}
		msg += p
	}
	return msg
}

// ErrInvalid is matched by errors.Is for any *ValidationError.
var ErrInvalid = errors.New("invalid config")

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Validate reports configuration values that would make the simulation
// misbehave mid-run. It returns nil or a *ValidationError.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		add("field dimensions must be positive, got %dx%d", c.Field.Width, c.Field.Height)
	}
	if c.Field.DecayFactor < 0 || c.Field.DecayFactor >= 1 {
		add("field.decay_factor must be in [0,1), got %g", c.Field.DecayFactor)
	}
	if c.Field.Workers < 0 {
		add("field.workers must be >= 0, got %d", c.Field.Workers)
	}

	a := c.Agents
	if a.Count < 0 {
		add("agents.count must be >= 0, got %d", a.Count)
	}
	if a.SensorDistance < 0 {
		add("agents.sensor_distance must be >= 0, got %g", a.SensorDistance)
	}
	if a.SensorSize < 0 {
		add("agents.sensor_size must be >= 0, got %g", a.SensorSize)
	}
	if a.StepSize <= 0 {
		add("agents.step_size must be positive, got %g", a.StepSize)
	}
	if a.DepositionAmount < 0 {
		add("agents.deposition_amount must be >= 0, got %g", a.DepositionAmount)
	}
	switch a.Steering {
	case SteeringExplore, SteeringGreedy:
	default:
		add("agents.steering %q is not one of explore, greedy", a.Steering)
	}

	m := c.Modes
	switch m.Boundary {
	case BoundaryPeriodic, BoundaryReflective:
	default:
		add("modes.boundary %q is not one of periodic, reflective", m.Boundary)
	}
	switch m.Collision {
	case CollisionNone, CollisionOnePerCell:
	default:
		add("modes.collision %q is not one of none, one_per_cell", m.Collision)
	}
	switch m.Stimulus {
	case StimulusNone, StimulusAdditive, StimulusPrePattern:
	default:
		add("modes.stimulus %q is not one of none, additive, prepattern", m.Stimulus)
	}
	switch m.Sense {
	case SenseDeposition, SenseCombined:
	default:
		add("modes.sense %q is not one of deposition, combined", m.Sense)
	}

	if c.Stimulus.PrePatternWeight < 0 {
		add("stimulus.pre_pattern_weight must be >= 0, got %g", c.Stimulus.PrePatternWeight)
	}
	if c.Stimulus.NeighborFactor < 0 {
		add("stimulus.neighbor_factor must be >= 0, got %g", c.Stimulus.NeighborFactor)
	}
	for i, p := range c.Stimulus.Points {
		if p.X < 0 || p.X >= c.Field.Width || p.Y < 0 || p.Y >= c.Field.Height {
			add("stimulus.points[%d] (%d,%d) lies outside the field", i, p.X, p.Y)
		}
		if p.Intensity < 0 {
			add("stimulus.points[%d] intensity must be >= 0, got %g", i, p.Intensity)
		}
	}
	if n := c.Stimulus.Noise; n.Enabled {
		if n.Spacing <= 0 {
			add("stimulus.noise.spacing must be positive, got %d", n.Spacing)
		}
		if n.Octaves <= 0 {
			add("stimulus.noise.octaves must be positive, got %d", n.Octaves)
		}
		if n.Threshold < 0 || n.Threshold >= 1 {
			add("stimulus.noise.threshold must be in [0,1), got %g", n.Threshold)
		}
	}

	for i, o := range c.Obstacles {
		if o.Width <= 0 || o.Height <= 0 {
			add("obstacles[%d] must have positive size, got %gx%g", i, o.Width, o.Height)
		}
	}

	s := c.Spawn
	switch s.Mode {
	case SpawnUniform:
	case SpawnPoints:
		if len(s.Points) == 0 && a.Count > 0 {
			add("spawn.mode points has no spawn points but agents.count is %d", a.Count)
		}
		total := 0
		for i, sp := range s.Points {
			if sp.Radius < 0 {
				add("spawn.points[%d] radius must be >= 0, got %g", i, sp.Radius)
			}
			if sp.Agents < 0 {
				add("spawn.points[%d] agents must be >= 0, got %d", i, sp.Agents)
			}
			total += sp.Agents
		}
		if len(s.Points) > 0 && total == 0 {
			add("spawn.points quotas sum to zero")
		}
	default:
		add("spawn.mode %q is not one of uniform, points", s.Mode)
	}
	if s.AgentsPerTick < 0 {
		add("spawn.agents_per_tick must be >= 0, got %d", s.AgentsPerTick)
	}
	if s.MaxAttempts <= 0 {
		add("spawn.max_attempts must be positive, got %d", s.MaxAttempts)
	}

	if c.Telemetry.StatsWindow <= 0 {
		add("telemetry.stats_window must be positive, got %d", c.Telemetry.StatsWindow)
	}
	if c.Telemetry.FrameEvery < 0 {
		add("telemetry.frame_every must be >= 0, got %d", c.Telemetry.FrameEvery)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
