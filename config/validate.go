package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("schema.json", schemaJSON)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// checkSchema validates a YAML document against the embedded schema. The
// document goes through JSON so numbers reach the validator as float64.
func checkSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config for schema check: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("converting config for schema check: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		verr := &ValidationError{}
		if serr, ok := err.(*jsonschema.ValidationError); ok {
			for _, cause := range leafCauses(serr) {
				verr.add("%s: %s", location(cause.InstanceLocation), cause.Message)
			}
		} else {
			verr.add("%v", err)
		}
		return verr
	}
	return nil
}

func leafCauses(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}

// location turns a JSON pointer into the dotted key path used in YAML.
func location(ptr string) string {
	p := strings.Trim(strings.ReplaceAll(ptr, "/", "."), ".")
	if p == "" {
		return "(root)"
	}
	return p
}

// Validate checks the merged configuration for values the simulation cannot
// run with. It returns a *ValidationError naming every offending field.
func (c *Config) Validate() error {
	v := &ValidationError{}

	positive := func(name string, x float64) {
		if !(x > 0) || math.IsInf(x, 0) {
			v.add("%s must be positive, got %v", name, x)
		}
	}
	nonNegative := func(name string, x float64) {
		if !(x >= 0) || math.IsInf(x, 0) {
			v.add("%s must be non-negative, got %v", name, x)
		}
	}

	positive("physics.dt", c.Physics.DT)
	nonNegative("physics.cell_size", c.Physics.CellSize)
	positive("derived cell size", c.Derived.CellSize)
	positive("movement.max_speed", c.Movement.MaxSpeed)
	positive("movement.max_force", c.Movement.MaxForce)

	b := c.Behavior
	nonNegative("behavior.alignment_weight", b.AlignmentWeight)
	nonNegative("behavior.cohesion_weight", b.CohesionWeight)
	nonNegative("behavior.separation_weight", b.SeparationWeight)
	nonNegative("behavior.wander_weight", b.WanderWeight)
	positive("behavior.separation_radius", b.SeparationRadius)
	positive("behavior.neighbor_radius", b.NeighborRadius)
	if c.Physics.CellSize > 0 && c.Physics.CellSize < max(b.NeighborRadius, b.SeparationRadius) {
		v.add("physics.cell_size %v is smaller than the largest behavior radius %v",
			c.Physics.CellSize, max(b.NeighborRadius, b.SeparationRadius))
	}
	avoid := []struct {
		name string
		cfg  AvoidanceConfig
	}{{"pointer", b.Pointer}, {"edges", b.Edges}}
	for _, a := range avoid {
		if !a.cfg.Enabled {
			continue
		}
		nonNegative("behavior."+a.name+".weight", a.cfg.Weight)
		positive("behavior."+a.name+".radius", a.cfg.Radius)
		nonNegative("behavior."+a.name+".force", a.cfg.Force)
	}

	if c.Boundary.Policy != PolicyClamp && c.Boundary.Policy != PolicyWrap {
		v.add("boundary.policy must be %q or %q, got %q", PolicyClamp, PolicyWrap, c.Boundary.Policy)
	}

	p := c.Population
	if p.NumAgents < 0 {
		v.add("population.num_agents must be non-negative, got %d", p.NumAgents)
	}
	switch p.Spawn {
	case SpawnDisk, SpawnEdge, SpawnUniform:
	default:
		v.add("population.spawn must be disk, edge or uniform, got %q", p.Spawn)
	}
	nonNegative("population.spawn_radius", p.SpawnRadius)

	switch c.Wander.Mode {
	case WanderUniform, WanderNoise:
	default:
		v.add("wander.mode must be uniform or noise, got %q", c.Wander.Mode)
	}

	if c.Derived.WorldW < 0 || c.Derived.WorldH < 0 {
		v.add("world size must be non-negative, got %vx%v", c.Derived.WorldW, c.Derived.WorldH)
	}
	if c.Parallel.Threshold < 0 || c.Parallel.Workers < 0 {
		v.add("parallel.threshold and parallel.workers must be non-negative")
	}
	positive("telemetry.stats_window_sec", c.Telemetry.StatsWindowSec)
	if c.Telemetry.PerfWindowTicks < 1 {
		v.add("telemetry.perf_window_ticks must be at least 1, got %d", c.Telemetry.PerfWindowTicks)
	}

	return v.orNil()
}
