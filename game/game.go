// Package game drives the flock: it owns the agent arena, runs the ordered
// tick phases and feeds telemetry.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

var (
	ErrNotInitialized     = errors.New("simulation not initialized")
	ErrAlreadyInitialized = errors.New("simulation already initialized")
	ErrInvalidEnvironment = errors.New("invalid environment")
	ErrClosed             = errors.New("simulation closed")
)

type simState uint8

const (
	stateUninitialized simState = iota
	stateReady
	stateTicking
	stateClosed
)

func (s simState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateTicking:
		return "ticking"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("simState(%d)", uint8(s))
}

// Environment is the per-tick input supplied by the caller.
type Environment struct {
	DT     float64 // seconds, must be positive
	Width  float64 // world extent; 0 leaves the axis unbounded
	Height float64
	// Pointer is the threat position in world coordinates, nil when absent.
	Pointer *r2.Vec
}

// Validate reports why the environment cannot drive a tick.
func (e Environment) Validate() error {
	if !(e.DT > 0) || math.IsInf(e.DT, 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidEnvironment, e.DT)
	}
	if !(e.Width >= 0) || !(e.Height >= 0) || math.IsInf(e.Width, 0) || math.IsInf(e.Height, 0) {
		return fmt.Errorf("%w: extent must be finite and non-negative, got %vx%v", ErrInvalidEnvironment, e.Width, e.Height)
	}
	if e.Pointer != nil && (math.IsNaN(e.Pointer.X) || math.IsNaN(e.Pointer.Y)) {
		return fmt.Errorf("%w: pointer is NaN", ErrInvalidEnvironment)
	}
	return nil
}

// AgentState is the per-agent output of a tick.
type AgentState struct {
	ID       uint32
	Position r2.Vec
	Velocity r2.Vec
	Heading  float64
	Hue      float32
}

// Options configures the parts of a Simulation that are not simulation
// parameters.
type Options struct {
	// Workers overrides parallel.workers; zero defers to the config, then
	// to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger

	Metrics       *telemetry.Metrics
	Output        *telemetry.OutputManager
	SnapshotDir   string
	StatsCallback func(telemetry.WindowStats)
	LogStats      bool
	RunID         string
}

// Simulation holds the complete flock state.
type Simulation struct {
	cfg    config.Config
	logger *slog.Logger
	rng    *rand.Rand
	wander systems.WanderSource

	world *ecs.World

	// Entity mapper for all boid components
	boidMapper *ecs.Map5[
		components.Boid,
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Rotation,
	]
	boidFilter *ecs.Filter5[
		components.Boid,
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Rotation,
	]

	// Individual component mappers for lookups
	posMap *ecs.Map1[components.Position]
	velMap *ecs.Map1[components.Velocity]
	accMap *ecs.Map1[components.Acceleration]
	rotMap *ecs.Map1[components.Rotation]

	byID map[uint32]ecs.Entity

	grid     *systems.SpatialGrid
	params   systems.SteeringParams
	policy   systems.BoundaryPolicy
	parallel *parallelState
	phases   []phase

	// Telemetry
	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	metrics       *telemetry.Metrics
	output        *telemetry.OutputManager
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	runID         string
	lastWindow    *telemetry.WindowStats

	// State
	state  simState
	tick   int64
	time   float64
	nextID uint32
	env    Environment // environment of the tick in progress
}

// New validates cfg and builds an uninitialized simulation. The
// configuration is copied; later changes to cfg have no effect.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, errors.New("game: nil config")
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	policy, err := systems.ParseBoundaryPolicy(c.Boundary.Policy)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	grid, err := systems.NewSpatialGrid(c.Derived.CellSize)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = c.Parallel.Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:    c,
		logger: logger,
		rng:    rand.New(rand.NewSource(c.Population.Seed)),
		wander: newWanderSource(&c, c.Population.Seed),
		world:  world,
		boidMapper: ecs.NewMap5[
			components.Boid,
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Rotation,
		](world),
		boidFilter: ecs.NewFilter5[
			components.Boid,
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Rotation,
		](world),
		posMap: ecs.NewMap1[components.Position](world),
		velMap: ecs.NewMap1[components.Velocity](world),
		accMap: ecs.NewMap1[components.Acceleration](world),
		rotMap: ecs.NewMap1[components.Rotation](world),
		byID:   make(map[uint32]ecs.Entity),

		grid:     grid,
		params:   steeringParams(&c),
		policy:   policy,
		parallel: newParallelState(workers, c.Parallel.Threshold),

		perf:          telemetry.NewPerfCollector(c.Telemetry.PerfWindowTicks),
		collector:     telemetry.NewCollector(c.Telemetry.StatsWindowSec),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		metrics:       opts.Metrics,
		output:        opts.Output,
		snapshotDir:   opts.SnapshotDir,
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		runID:         opts.RunID,
	}
	s.phases = s.pipeline()

	if c.Behavior.Edges.Enabled && c.Derived.Wrap {
		logger.Warn("edge avoidance has no effect on a wrapping world", "policy", c.Boundary.Policy)
	}

	return s, nil
}

// steeringParams extracts the read-only steering context from a config.
// The topology is filled in per tick from the environment.
func steeringParams(c *config.Config) systems.SteeringParams {
	b := c.Behavior
	return systems.SteeringParams{
		MaxSpeed:         c.Movement.MaxSpeed,
		MaxForce:         c.Movement.MaxForce,
		SeparationRadius: b.SeparationRadius,
		NeighborRadius:   b.NeighborRadius,
		Weights: systems.Weights{
			Separation: b.SeparationWeight,
			Alignment:  b.AlignmentWeight,
			Cohesion:   b.CohesionWeight,
			Wander:     b.WanderWeight,
			Pointer:    b.Pointer.Weight,
			Edges:      b.Edges.Weight,
		},
		PointerEnabled: b.Pointer.Enabled,
		PointerRadius:  b.Pointer.Radius,
		PointerForce:   b.Pointer.Force,
		EdgesEnabled:   b.Edges.Enabled,
		EdgeMargin:     b.Edges.Radius,
		EdgeForce:      b.Edges.Force,
	}
}

func newWanderSource(c *config.Config, seed int64) systems.WanderSource {
	if c.Wander.Mode == config.WanderNoise {
		return systems.NewNoiseWander(seed, c.Wander.NoiseScale, c.Wander.TimeScale)
	}
	// Offset so wander draws are independent of placement draws.
	return systems.NewUniformWander(seed + 1)
}

// Config returns a copy of the active configuration.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// SetBehavior replaces the steering weights and radii. The change applies
// from the next tick. An invalid configuration is rejected and the previous
// one stays in effect.
func (s *Simulation) SetBehavior(b config.BehaviorConfig) error {
	next := s.cfg
	if err := next.SetBehavior(b); err != nil {
		return err
	}
	if next.Derived.CellSize != s.grid.CellSize() {
		grid, err := systems.NewSpatialGrid(next.Derived.CellSize)
		if err != nil {
			return fmt.Errorf("game: %w", err)
		}
		s.grid = grid
	}
	s.cfg = next
	s.params = steeringParams(&s.cfg)
	return nil
}

// Agents appends the state of every agent to dst, ordered by ID.
func (s *Simulation) Agents(dst []AgentState) []AgentState {
	dst = dst[:0]
	query := s.boidFilter.Query()
	for query.Next() {
		boid, pos, vel, _, rot := query.Get()
		dst = append(dst, AgentState{
			ID:       boid.ID,
			Position: pos.Vec(),
			Velocity: vel.Vec(),
			Heading:  rot.Heading,
			Hue:      boid.Hue,
		})
	}
	sort.Slice(dst, func(i, j int) bool { return dst[i].ID < dst[j].ID })
	return dst
}

// Agent returns the state of a single agent.
func (s *Simulation) Agent(id uint32) (AgentState, bool) {
	e, ok := s.byID[id]
	if !ok {
		return AgentState{}, false
	}
	boid, pos, vel, _, rot := s.boidMapper.Get(e)
	return AgentState{
		ID:       boid.ID,
		Position: pos.Vec(),
		Velocity: vel.Vec(),
		Heading:  rot.Heading,
		Hue:      boid.Hue,
	}, true
}

// Count returns the number of live agents.
func (s *Simulation) Count() int { return len(s.byID) }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 { return s.tick }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return s.time }

// Topology returns the steering topology of the last tick.
func (s *Simulation) Topology() systems.Topology { return s.params.Topology }

// PerfStats returns timing statistics over the recent perf window.
func (s *Simulation) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// LastWindow returns the most recent stats window, if one has closed.
func (s *Simulation) LastWindow() (telemetry.WindowStats, bool) {
	if s.lastWindow == nil {
		return telemetry.WindowStats{}, false
	}
	return *s.lastWindow, true
}

// GridLayout describes the spatial grid for drawing. Cols (Rows) is zero
// unless the world wraps with a positive width (height), in which case each
// cell spans extent/Cols.
type GridLayout struct {
	CellSize   float64
	Cols, Rows int
}

// GridLayout returns the grid addressing of the last tick.
func (s *Simulation) GridLayout() GridLayout {
	cols, rows := s.grid.Dims()
	return GridLayout{CellSize: s.grid.CellSize(), Cols: cols, Rows: rows}
}

// RecordFrame feeds frame timing from the viewer into perf stats.
func (s *Simulation) RecordFrame() { s.perf.RecordFrame() }

// Close stops the worker pool. The simulation cannot step afterwards.
func (s *Simulation) Close() {
	if s.state == stateClosed {
		return
	}
	s.parallel.stopWorkers()
	s.state = stateClosed
}
