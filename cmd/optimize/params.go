// Package main provides CMA-ES tuning of crowd steering parameters.
package main

import (
	"github.com/Dong-David/the-last-echo/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults match config/defaults.yaml.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Steering
			{Name: "base_speed", Path: "steering.base_speed", Min: 1.0, Max: 6.0, Default: 3.0},
			{Name: "turn_rate", Path: "steering.turn_rate", Min: 1.0, Max: 12.0, Default: 5.0},
			{Name: "wobble_weight", Path: "steering.wobble_weight", Min: 0.0, Max: 2.0, Default: 1.0},
			{Name: "separation_radius", Path: "steering.separation_radius", Min: 0.4, Max: 2.0, Default: 0.8},
			{Name: "separation_weight", Path: "steering.separation_weight", Min: 0.0, Max: 3.0, Default: 0.5},
			// Population
			{Name: "spawn_interval", Path: "population.spawn_interval", Min: 0.2, Max: 3.0, Default: 1.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
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

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Steering.BaseSpeed = clamped[0]
	cfg.Steering.TurnRate = clamped[1]
	cfg.Steering.WobbleWeight = clamped[2]
	cfg.Steering.SeparationRadius = clamped[3]
	cfg.Steering.SeparationWeight = clamped[4]
	cfg.Population.SpawnInterval = clamped[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Steering.BaseSpeed,
		cfg.Steering.TurnRate,
		cfg.Steering.WobbleWeight,
		cfg.Steering.SeparationRadius,
		cfg.Steering.SeparationWeight,
		cfg.Population.SpawnInterval,
	}
}
