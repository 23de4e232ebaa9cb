// Package config loads the flock configuration from embedded defaults, an
// optional YAML file and the environment.
package config

import (
	"cmp"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Boundary policy names accepted by boundary.policy.
const (
	PolicyClamp = "clamp"
	PolicyWrap  = "wrap"
)

// Spawn placements accepted by population.spawn.
const (
	SpawnDisk    = "disk"
	SpawnEdge    = "edge"
	SpawnUniform = "uniform"
)

// Wander modes accepted by wander.mode.
const (
	WanderUniform = "uniform"
	WanderNoise   = "noise"
)

// Config is the full set of tunables for one simulation.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Movement   MovementConfig   `yaml:"movement"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Population PopulationConfig `yaml:"population"`
	Wander     WanderConfig     `yaml:"wander"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds world dimensions. Zero means "use the screen size".
// The world is centered on the origin.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig holds integration settings.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`        // Fixed tick length in seconds
	CellSize float64 `yaml:"cell_size"` // Grid cell size; 0 derives it from the behavior radii
}

// MovementConfig holds the speed and force limits shared by every agent.
type MovementConfig struct {
	MaxSpeed float64 `yaml:"max_speed"` // Desired cruising speed, world units per second
	MaxForce float64 `yaml:"max_force"` // Cap on each steering force
}

// BehaviorConfig holds steering weights and radii.
type BehaviorConfig struct {
	AlignmentWeight  float64         `yaml:"alignment_weight"`
	CohesionWeight   float64         `yaml:"cohesion_weight"`
	SeparationWeight float64         `yaml:"separation_weight"`
	SeparationRadius float64         `yaml:"separation_radius"`
	NeighborRadius   float64         `yaml:"neighbor_radius"` // Shared by alignment and cohesion
	WanderWeight     float64         `yaml:"wander_weight"`
	Pointer          AvoidanceConfig `yaml:"pointer"`
	Edges            AvoidanceConfig `yaml:"edges"`
}

// AvoidanceConfig describes an optional repulsion term. For edge avoidance
// Radius is the margin measured inward from each edge.
type AvoidanceConfig struct {
	Enabled bool    `yaml:"enabled"`
	Weight  float64 `yaml:"weight"`
	Radius  float64 `yaml:"radius"`
	Force   float64 `yaml:"force"` // Repulsion at zero distance
}

// BoundaryConfig selects how agents leaving the world are handled.
type BoundaryConfig struct {
	Policy string `yaml:"policy"` // clamp or wrap
}

// PopulationConfig holds initial population settings.
type PopulationConfig struct {
	NumAgents   int     `yaml:"num_agents"`
	Spawn       string  `yaml:"spawn"`        // disk, edge or uniform
	SpawnRadius float64 `yaml:"spawn_radius"` // Disk radius for disk placement
	Seed        int64   `yaml:"seed"`
}

// WanderConfig selects the wander noise source.
type WanderConfig struct {
	Mode       string  `yaml:"mode"`        // uniform or noise
	NoiseScale float64 `yaml:"noise_scale"` // Spacing between agents in the noise field
	TimeScale  float64 `yaml:"time_scale"`  // Noise drift per simulated second
}

// ParallelConfig tunes the worker pool.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Below this many agents phases run inline
	Workers   int `yaml:"workers"`   // 0 uses GOMAXPROCS
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindowSec  float64 `yaml:"stats_window_sec"`
	PerfWindowTicks int     `yaml:"perf_window_ticks"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	WorldW   float64
	WorldH   float64
	CellSize float64
	Wrap     bool
}

// global is set once by Init.
var global *Config

// Init loads path (or only the defaults when path is empty) into the
// package-level config read by Cfg.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit calls Init and panics if it fails.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the config set by Init. It panics before Init.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load merges the YAML file at path over the embedded defaults. An empty
// path yields the defaults alone. The user file is
// checked against the schema before merging and the merged result is
// validated.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays a YAML document onto c. Only fields present in the document
// change. The document must satisfy the embedded schema.
func (c *Config) Merge(data []byte) error {
	if err := checkSchema(data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	c.computeDerived()
	return nil
}

// SetBehavior replaces the behavior section, recomputes derived values and
// validates. On error c is left unchanged.
func (c *Config) SetBehavior(b BehaviorConfig) error {
	next := *c
	next.Behavior = b
	next.computeDerived()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// computeDerived fills Derived from the loaded sections.
func (c *Config) computeDerived() {
	// An unset world axis follows the screen.
	c.Derived.WorldW = float64(cmp.Or(c.World.Width, c.Screen.Width))
	c.Derived.WorldH = float64(cmp.Or(c.World.Height, c.Screen.Height))

	// The 3x3 neighborhood must cover the largest interaction radius.
	c.Derived.CellSize = c.Physics.CellSize
	if c.Derived.CellSize == 0 {
		c.Derived.CellSize = max(c.Behavior.NeighborRadius, c.Behavior.SeparationRadius)
	}

	c.Derived.Wrap = c.Boundary.Policy == PolicyWrap
}

// WriteYAML saves c in the same format Load reads.
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
