package main

import (
	"github.com/pthm-cable/slime/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	// Field locates the parameter in a config.
	Field func(cfg *config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of steering and field parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "sensor_distance", Path: "agents.sensor_distance", Min: 1, Max: 30,
				Field: func(c *config.Config) *float64 { return &c.Agents.SensorDistance }},
			{Name: "sensor_angle", Path: "agents.sensor_angle", Min: 0.05, Max: 1.5,
				Field: func(c *config.Config) *float64 { return &c.Agents.SensorAngle }},
			{Name: "rotation_angle", Path: "agents.rotation_angle", Min: 0.05, Max: 1.5,
				Field: func(c *config.Config) *float64 { return &c.Agents.RotationAngle }},
			{Name: "step_size", Path: "agents.step_size", Min: 0.2, Max: 3,
				Field: func(c *config.Config) *float64 { return &c.Agents.StepSize }},
			{Name: "deposition_amount", Path: "agents.deposition_amount", Min: 0.5, Max: 15,
				Field: func(c *config.Config) *float64 { return &c.Agents.DepositionAmount }},
			{Name: "decay_factor", Path: "field.decay_factor", Min: 0.01, Max: 0.99,
				Field: func(c *config.Config) *float64 { return &c.Field.DecayFactor }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].Field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = *spec.Field(cfg)
	}
	return out
}
