package game

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// goldenAngle spreads consecutive hues evenly around the colour wheel.
const goldenAngle = 137.50776405

// Init spawns the configured population into a world of env's extent.
func (s *Simulation) Init(env Environment) error {
	switch s.state {
	case stateClosed:
		return fmt.Errorf("init: %w", ErrClosed)
	case stateReady, stateTicking:
		return fmt.Errorf("init: %w", ErrAlreadyInitialized)
	}
	if err := env.Validate(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	s.env = env
	s.spawnInitialPopulation(env.Width, env.Height)
	s.grid.Resize(env.Width, env.Height, s.policy == systems.Wrap)
	s.params.Topology = s.policy.Topology(env.Width, env.Height)
	s.state = stateReady
	s.metrics.SetAgents(s.Count())

	s.logger.Info("simulation initialized",
		"agents", s.Count(),
		"spawn", s.cfg.Population.Spawn,
		"cell_size", s.grid.CellSize(),
		"policy", s.policy.String(),
		"world_w", env.Width,
		"world_h", env.Height,
	)
	return nil
}

// spawnInitialPopulation creates the starting agents, each moving at full
// speed in a uniformly random direction.
func (s *Simulation) spawnInitialPopulation(width, height float64) {
	pop := s.cfg.Population
	speed := s.cfg.Movement.MaxSpeed

	for i := 0; i < pop.NumAgents; i++ {
		pos := s.spawnPosition(pop.Spawn, pop.SpawnRadius, width, height)
		angle := s.rng.Float64() * 2 * math.Pi
		vel := r2.Vec{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}
		s.spawnAgent(s.nextID, pos, vel, systems.Heading(vel))
		s.nextID++
	}
}

// spawnPosition draws a position for the given placement. The world is
// centered on the origin.
func (s *Simulation) spawnPosition(placement string, radius, width, height float64) r2.Vec {
	switch placement {
	case config.SpawnEdge:
		// Pick an edge with probability proportional to its length.
		t := s.rng.Float64() * 2 * (width + height)
		hw, hh := width/2, height/2
		switch {
		case t < width:
			return r2.Vec{X: t - hw, Y: hh}
		case t < 2*width:
			return r2.Vec{X: t - width - hw, Y: -hh}
		case t < 2*width+height:
			return r2.Vec{X: -hw, Y: t - 2*width - hh}
		default:
			return r2.Vec{X: hw, Y: t - 2*width - height - hh}
		}
	case config.SpawnUniform:
		return r2.Vec{
			X: (s.rng.Float64() - 0.5) * width,
			Y: (s.rng.Float64() - 0.5) * height,
		}
	default:
		// Uniform over the disk area, not over the radius.
		r := radius * math.Sqrt(s.rng.Float64())
		a := s.rng.Float64() * 2 * math.Pi
		return r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
}

// spawnAgent creates the entity for id. Callers own nextID bookkeeping.
func (s *Simulation) spawnAgent(id uint32, pos, vel r2.Vec, heading float64) ecs.Entity {
	boid := components.Boid{ID: id, Hue: hueFor(id)}
	p := components.PositionOf(pos)
	v := components.VelocityOf(vel)
	acc := components.Acceleration{}
	rot := components.Rotation{Heading: heading}

	entity := s.boidMapper.NewEntity(&boid, &p, &v, &acc, &rot)
	s.byID[id] = entity
	return entity
}

func hueFor(id uint32) float32 {
	return float32(math.Mod(float64(id)*goldenAngle, 360))
}

// Spawn adds an agent and returns its ID. IDs are never reused.
func (s *Simulation) Spawn(pos, vel r2.Vec) (uint32, error) {
	if s.state == stateClosed {
		return 0, fmt.Errorf("spawn: %w", ErrClosed)
	}
	if !finiteVec(pos) || !finiteVec(vel) {
		return 0, fmt.Errorf("spawn: non-finite position %v or velocity %v", pos, vel)
	}

	id := s.nextID
	s.nextID++

	heading := 0.0
	if r2.Norm(vel) > systems.HeadingEpsilon {
		heading = systems.Heading(vel)
	}
	s.spawnAgent(id, pos, vel, heading)

	s.collector.RecordSpawn()
	s.metrics.RecordSpawn()
	s.metrics.SetAgents(s.Count())
	return id, nil
}

// Despawn removes the agent with the given ID. It reports whether the agent
// existed.
func (s *Simulation) Despawn(id uint32) bool {
	entity, ok := s.byID[id]
	if !ok {
		return false
	}
	s.world.RemoveEntity(entity)
	delete(s.byID, id)

	s.collector.RecordDespawn()
	s.metrics.RecordDespawn()
	s.metrics.SetAgents(s.Count())
	return true
}

// Restore replaces all agents and the clock with the snapshot's state. The
// wander source is reseeded from the seed and tick, so a resumed run is
// reproducible but does not replay the exact draws of the original.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if s.state == stateClosed {
		return fmt.Errorf("restore: %w", ErrClosed)
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if snap.Policy != "" && snap.Policy != s.cfg.Boundary.Policy {
		s.logger.Warn("snapshot boundary policy differs from config; using config",
			"snapshot", snap.Policy, "config", s.cfg.Boundary.Policy)
	}

	s.clearAgents()
	for _, a := range snap.Agents {
		e := s.spawnAgent(a.ID, r2.Vec{X: a.X, Y: a.Y}, r2.Vec{X: a.VelX, Y: a.VelY}, a.Heading)
		boid, _, _, _, _ := s.boidMapper.Get(e)
		boid.Hue = a.Hue
	}

	s.nextID = snap.NextID
	s.tick = snap.Tick
	s.time = snap.SimTime
	s.rng.Seed(snap.RNGSeed ^ snap.Tick)
	s.wander = newWanderSource(&s.cfg, snap.RNGSeed^snap.Tick)
	s.collector.Reset(snap.Tick, snap.SimTime)

	s.env = Environment{DT: s.cfg.Physics.DT, Width: snap.WorldWidth, Height: snap.WorldHeight}
	s.grid.Resize(snap.WorldWidth, snap.WorldHeight, s.policy == systems.Wrap)
	s.params.Topology = s.policy.Topology(snap.WorldWidth, snap.WorldHeight)

	s.state = stateReady
	if snap.Tick > 0 {
		s.state = stateTicking
	}
	s.metrics.SetAgents(s.Count())

	s.logger.Info("simulation restored", "tick", snap.Tick, "agents", s.Count())
	return nil
}

// clearAgents removes every agent. Entities are collected first so the
// world is not modified while a query is open.
func (s *Simulation) clearAgents() {
	toRemove := make([]ecs.Entity, 0, len(s.byID))
	query := s.boidFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		s.world.RemoveEntity(e)
	}
	clear(s.byID)
}

func finiteVec(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
