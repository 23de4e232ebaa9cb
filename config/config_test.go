package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Population.NumAgents != 150 {
		t.Errorf("num_agents = %d, want 150", cfg.Population.NumAgents)
	}
	if cfg.Behavior.NeighborRadius != 50 || cfg.Behavior.SeparationRadius != 25 {
		t.Errorf("radii = %v/%v, want 50/25", cfg.Behavior.NeighborRadius, cfg.Behavior.SeparationRadius)
	}
	if cfg.Derived.CellSize != 50 {
		t.Errorf("derived cell size = %v, want 50", cfg.Derived.CellSize)
	}
	if cfg.Derived.WorldW != 1280 || cfg.Derived.WorldH != 720 {
		t.Errorf("world = %vx%v, want screen size", cfg.Derived.WorldW, cfg.Derived.WorldH)
	}
	if !cfg.Derived.Wrap {
		t.Error("default boundary policy should wrap")
	}
}

func TestDefaultsMatchSchema(t *testing.T) {
	if err := checkSchema(defaultsYAML); err != nil {
		t.Fatalf("embedded defaults violate schema: %v", err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flock.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
behavior:
  neighbor_radius: 80
  pointer:
    enabled: true
boundary:
  policy: clamp
world:
  width: 2000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Behavior.NeighborRadius != 80 {
		t.Errorf("neighbor_radius = %v, want 80", cfg.Behavior.NeighborRadius)
	}
	if cfg.Behavior.AlignmentWeight != 1.5 {
		t.Errorf("alignment_weight = %v, want default 1.5", cfg.Behavior.AlignmentWeight)
	}
	if !cfg.Behavior.Pointer.Enabled || cfg.Behavior.Pointer.Radius != 200 {
		t.Errorf("pointer = %+v, want enabled with default radius", cfg.Behavior.Pointer)
	}
	if cfg.Derived.CellSize != 80 {
		t.Errorf("derived cell size = %v, want 80", cfg.Derived.CellSize)
	}
	if cfg.Derived.Wrap {
		t.Error("clamp policy should not wrap")
	}
	if cfg.Derived.WorldW != 2000 || cfg.Derived.WorldH != 720 {
		t.Errorf("world = %vx%v, want 2000x720", cfg.Derived.WorldW, cfg.Derived.WorldH)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"unknown key", "behavior:\n  cohesion: 2\n", "behavior"},
		{"bad policy", "boundary:\n  policy: bounce\n", "boundary.policy"},
		{"zero max speed", "movement:\n  max_speed: 0\n", "movement.max_speed"},
		{"wrong type", "population:\n  num_agents: lots\n", "population.num_agents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Load error = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"negative max speed", func(c *Config) { c.Movement.MaxSpeed = -1 }, "movement.max_speed"},
		{"zero max force", func(c *Config) { c.Movement.MaxForce = 0 }, "movement.max_force"},
		{"zero dt", func(c *Config) { c.Physics.DT = 0 }, "physics.dt"},
		{"cell size below radius", func(c *Config) { c.Physics.CellSize = 10 }, "physics.cell_size"},
		{"zero neighbor radius", func(c *Config) { c.Behavior.NeighborRadius = 0 }, "behavior.neighbor_radius"},
		{"unknown spawn", func(c *Config) { c.Population.Spawn = "grid" }, "population.spawn"},
		{"enabled pointer without radius", func(c *Config) {
			c.Behavior.Pointer.Enabled = true
			c.Behavior.Pointer.Radius = 0
		}, "behavior.pointer.radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			cfg.computeDerived()
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Movement.MaxSpeed = 0
	cfg.Boundary.Policy = "mirror"
	err := cfg.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v, want *ValidationError", err)
	}
	if len(verr.Problems) != 2 {
		t.Errorf("problems = %q, want 2", verr.Problems)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvNumAgents:      "500",
		EnvBoundaryPolicy: "clamp",
		EnvSeed:           "99",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Population.NumAgents != 500 || cfg.Population.Seed != 99 {
		t.Errorf("population = %+v", cfg.Population)
	}
	if cfg.Derived.Wrap {
		t.Error("FLOCK_BOUNDARY_POLICY=clamp should disable wrap")
	}

	env[EnvNumAgents] = "many"
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("non-numeric FLOCK_NUM_AGENTS should fail")
	}

	env[EnvNumAgents] = "10"
	env[EnvBoundaryPolicy] = "bounce"
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("unknown policy should fail validation")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Behavior.CohesionWeight = 2.25
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if loaded.Behavior.CohesionWeight != 2.25 {
		t.Errorf("cohesion_weight = %v, want 2.25", loaded.Behavior.CohesionWeight)
	}
}

func TestSetBehavior(t *testing.T) {
	cfg := Default()

	b := cfg.Behavior
	b.NeighborRadius = 90
	if err := cfg.SetBehavior(b); err != nil {
		t.Fatalf("SetBehavior: %v", err)
	}
	if cfg.Derived.CellSize != 90 {
		t.Errorf("derived cell size = %v, want 90", cfg.Derived.CellSize)
	}

	bad := cfg.Behavior
	bad.SeparationRadius = -5
	err := cfg.SetBehavior(bad)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SetBehavior(bad) = %v, want *ValidationError", err)
	}
	if cfg.Behavior.SeparationRadius != 25 || cfg.Behavior.NeighborRadius != 90 {
		t.Errorf("rejected behavior leaked into config: %+v", cfg.Behavior)
	}
}

func TestInitAndCfg(t *testing.T) {
	MustInit("")
	if Cfg().Movement.MaxSpeed != 120 {
		t.Errorf("Cfg().Movement.MaxSpeed = %v, want 120", Cfg().Movement.MaxSpeed)
	}
}
