package main

import (
	"github.com/pthm-cable/flock/config"
)

// ParamSpec is one tunable behavior value and its search bounds.
type ParamSpec struct {
	Name     string
	Min, Max float64
	Default  float64 // shipped config value

	field func(b *config.BehaviorConfig) *float64
}

// ParamVector is the ordered search space. Vectors passed to its methods
// are indexed like Specs.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the weights and radii the optimizer tunes.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{"separation_weight", 0, 5, 1.5, func(b *config.BehaviorConfig) *float64 { return &b.SeparationWeight }},
		{"alignment_weight", 0, 5, 1.5, func(b *config.BehaviorConfig) *float64 { return &b.AlignmentWeight }},
		{"cohesion_weight", 0, 5, 1.0, func(b *config.BehaviorConfig) *float64 { return &b.CohesionWeight }},
		{"wander_weight", 0, 0.5, 0.01, func(b *config.BehaviorConfig) *float64 { return &b.WanderWeight }},
		{"separation_radius", 5, 80, 25, func(b *config.BehaviorConfig) *float64 { return &b.SeparationRadius }},
		{"neighbor_radius", 20, 150, 50, func(b *config.BehaviorConfig) *float64 { return &b.NeighborRadius }},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns every parameter at its default.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(func(_ int, s ParamSpec) float64 { return s.Default })
}

// Normalize maps raw values onto [0, 1] per parameter bounds. CMA-ES
// searches in this space so one step size fits every parameter.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return (raw[i] - s.Min) / (s.Max - s.Min) })
}

// Denormalize is the inverse of Normalize.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return s.Min + unit[i]*(s.Max-s.Min) })
}

// Clamp limits each value to its bounds. NaN passes through.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return min(max(v[i], s.Min), s.Max) })
}

// ApplyToConfig writes clamped values into cfg's behavior section through
// SetBehavior, so cfg is unchanged when validation fails.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	b := cfg.Behavior
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(&b) = v
	}
	return cfg.SetBehavior(b)
}

// ExtractFromConfig reads the current values out of cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	b := cfg.Behavior
	return pv.each(func(_ int, s ParamSpec) float64 { return *s.field(&b) })
}

func (pv *ParamVector) each(f func(i int, s ParamSpec) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = f(i, s)
	}
	return out
}
