package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// phase is one step of a tick. Phases run strictly in order and each one
// finishes, including all of its parallel chunks, before the next starts.
type phase struct {
	name string
	run  func(*Simulation)
}

// pipeline declares the tick phases in execution order.
//
// The behavior phase reads only the snapshot and the grid, so every agent
// sees the same pre-tick state. Integration starts only after every
// acceleration is stored.
func (s *Simulation) pipeline() []phase {
	return []phase{
		{telemetry.PhaseSnapshot, (*Simulation).snapshotPhase},
		{telemetry.PhaseGrid, (*Simulation).gridPhase},
		{telemetry.PhaseBehavior, (*Simulation).behaviorPhase},
		{telemetry.PhaseIntegrate, (*Simulation).integratePhase},
		{telemetry.PhaseBoundary, (*Simulation).boundaryPhase},
		{telemetry.PhaseApply, (*Simulation).applyPhase},
	}
}

// Step advances the simulation by one tick of env.DT seconds.
func (s *Simulation) Step(env Environment) error {
	switch s.state {
	case stateUninitialized:
		return fmt.Errorf("step: %w", ErrNotInitialized)
	case stateClosed:
		return fmt.Errorf("step: %w", ErrClosed)
	}
	if err := env.Validate(); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	s.env = env
	start := time.Now()
	s.perf.StartTick()

	for _, ph := range s.phases {
		s.perf.StartPhase(ph.name)
		t0 := time.Now()
		ph.run(s)
		s.metrics.ObservePhase(ph.name, time.Since(t0))
	}

	s.tick++
	s.time += env.DT
	s.state = stateTicking

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()
	s.perf.EndTick()

	s.metrics.ObserveTick(time.Since(start))
	return nil
}

// snapshotPhase copies live agent state out of the arena in ID order and
// draws each agent's wander sample.
func (s *Simulation) snapshotPhase() {
	p := s.parallel
	p.snapshots = p.snapshots[:0]

	query := s.boidFilter.Query()
	for query.Next() {
		boid, pos, vel, _, rot := query.Get()
		p.snapshots = append(p.snapshots, agentSnapshot{
			Entity:  query.Entity(),
			ID:      boid.ID,
			Pos:     pos.Vec(),
			Vel:     vel.Vec(),
			Heading: rot.Heading,
		})
	}

	sort.Slice(p.snapshots, func(i, j int) bool {
		return p.snapshots[i].ID < p.snapshots[j].ID
	})

	for i := range p.snapshots {
		snap := &p.snapshots[i]
		snap.Wander = s.wander.Sample(snap.ID, s.time)
	}

	p.resize(len(p.snapshots))
}

// gridPhase sizes the grid for this tick's extent and rebuilds it.
func (s *Simulation) gridPhase() {
	p := s.parallel
	w, h := s.env.Width, s.env.Height

	s.params.Topology = s.policy.Topology(w, h)
	s.grid.Resize(w, h, s.params.Topology.Wrap)

	p.entries = p.entries[:0]
	for i := range p.snapshots {
		snap := &p.snapshots[i]
		p.entries = append(p.entries, systems.Entry{ID: snap.ID, Pos: snap.Pos, Vel: snap.Vel})
	}
	s.grid.Rebuild(p.entries)
}

func (s *Simulation) behaviorPhase() {
	s.parallel.run(len(s.parallel.snapshots), s.behaviorChunk)
}

func (s *Simulation) integratePhase() {
	s.parallel.run(len(s.parallel.snapshots), s.integrateChunk)
}

func (s *Simulation) boundaryPhase() {
	s.parallel.run(len(s.parallel.snapshots), s.boundaryChunk)
}

// behaviorChunk computes accelerations. It reads the grid and snapshot only.
func (s *Simulation) behaviorChunk(i0, i1 int, scratch *workerScratch) {
	p := s.parallel
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]

		// Query neighbors (read-only spatial grid access)
		scratch.neighbors = s.grid.QueryNeighborhoodInto(scratch.neighbors[:0], snap.Pos)

		p.intents[i].Acc = systems.Steer(systems.SteeringInput{
			Self:      systems.Entry{ID: snap.ID, Pos: snap.Pos, Vel: snap.Vel},
			Neighbors: scratch.neighbors,
			Wander:    snap.Wander,
			Pointer:   s.env.Pointer,
			Params:    &s.params,
		})
	}
}

// integrateChunk updates velocity, then position and heading.
func (s *Simulation) integrateChunk(i0, i1 int, _ *workerScratch) {
	p := s.parallel
	dt, maxSpeed := s.env.DT, s.params.MaxSpeed
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]
		in := &p.intents[i]

		in.Vel = systems.ApplyForces(snap.Vel, in.Acc, dt, maxSpeed)
		in.Pos, in.Heading = systems.UpdatePosition(snap.Pos, in.Vel, snap.Heading, dt)
	}
}

func (s *Simulation) boundaryChunk(i0, i1 int, _ *workerScratch) {
	p := s.parallel
	w, h := s.env.Width, s.env.Height
	for i := i0; i < i1; i++ {
		in := &p.intents[i]
		in.Pos = systems.ResolveBoundary(in.Pos, w, h, s.policy)
	}
}

// applyPhase writes computed results back to the arena.
func (s *Simulation) applyPhase() {
	p := s.parallel
	for i := range p.snapshots {
		snap := &p.snapshots[i]
		in := &p.intents[i]

		// Get live component pointers
		pos := s.posMap.Get(snap.Entity)
		vel := s.velMap.Get(snap.Entity)
		acc := s.accMap.Get(snap.Entity)
		rot := s.rotMap.Get(snap.Entity)

		pos.X, pos.Y = in.Pos.X, in.Pos.Y
		vel.X, vel.Y = in.Vel.X, in.Vel.Y
		acc.X, acc.Y = in.Acc.X, in.Acc.Y
		rot.Heading = in.Heading
	}
}
