package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Weights scales each steering term before they are summed.
type Weights struct {
	Separation float64
	Alignment  float64
	Cohesion   float64
	Wander     float64
	Pointer    float64
	Edges      float64
}

// SteeringParams is the read-only per-tick context shared by every agent's
// behavior computation.
type SteeringParams struct {
	MaxSpeed float64
	MaxForce float64

	SeparationRadius float64
	NeighborRadius   float64

	Weights Weights

	PointerEnabled bool
	PointerRadius  float64
	PointerForce   float64 // peak push at the pointer; stands in for MaxForce

	EdgesEnabled bool
	EdgeMargin   float64
	EdgeForce    float64

	Topology Topology
}

// SteeringInput is everything Steer needs for one agent.
type SteeringInput struct {
	Self      Entry
	Neighbors []Entry // may include Self; it is skipped by ID
	Wander    r2.Vec  // raw wander sample for this tick
	Pointer   *r2.Vec // nil when no pointer is present
	Params    *SteeringParams
}

// Reynolds turns a desired direction into a bounded steering force:
// desired speed along raw minus the current velocity, capped at maxForce.
// A zero raw vector yields no force.
func Reynolds(raw, vel r2.Vec, maxSpeed, maxForce float64) r2.Vec {
	dir := unit(raw)
	if dir == (r2.Vec{}) {
		return r2.Vec{}
	}
	return ClampLength(r2.Sub(r2.Scale(maxSpeed, dir), vel), maxForce)
}

// Separation averages unit(delta)/distance over neighbors closer than
// radius, where delta points from the neighbor to the agent.
func Separation(self uint32, pos r2.Vec, neighbors []Entry, radius float64, topo Topology) r2.Vec {
	var sum r2.Vec
	count := 0
	for i := range neighbors {
		n := &neighbors[i]
		if n.ID == self {
			continue
		}
		delta := topo.Delta(pos, n.Pos)
		d := r2.Norm(delta)
		if d > epsilon && d < radius {
			sum = r2.Add(sum, r2.Scale(1/d, unit(delta)))
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/float64(count), sum)
}

// Alignment is the mean velocity of neighbors within radius.
func Alignment(self uint32, pos r2.Vec, neighbors []Entry, radius float64, topo Topology) r2.Vec {
	var sum r2.Vec
	count := 0
	for i := range neighbors {
		n := &neighbors[i]
		if n.ID == self {
			continue
		}
		d := r2.Norm(topo.Delta(pos, n.Pos))
		if d > 0 && d < radius {
			sum = r2.Add(sum, n.Vel)
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/float64(count), sum)
}

// Cohesion is the mean offset from the agent to each neighbor within
// radius: the direction to the local center of mass. Offsets follow the
// topology, so the result stays correct across a wrap seam.
func Cohesion(self uint32, pos r2.Vec, neighbors []Entry, radius float64, topo Topology) r2.Vec {
	var sum r2.Vec
	count := 0
	for i := range neighbors {
		n := &neighbors[i]
		if n.ID == self {
			continue
		}
		toward := topo.Delta(n.Pos, pos)
		d := r2.Norm(toward)
		if d > 0 && d < radius {
			sum = r2.Add(sum, toward)
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/float64(count), sum)
}

// falloff is the smooth quadratic strength used by the avoidance terms. It
// peaks at d == 0 and is zero from radius outward.
func falloff(d, radius, force float64) float64 {
	if !(d >= 0) || d >= radius {
		return 0
	}
	s := (radius - d) / radius
	return force * s * s
}

// AvoidPoint pushes pos directly away from threat with magnitude
// force*((radius-d)/radius)^2 inside radius, and zero outside it.
func AvoidPoint(pos, threat r2.Vec, radius, force float64, topo Topology) r2.Vec {
	if radius <= 0 || !finite(threat) {
		return r2.Vec{}
	}
	away := topo.Delta(pos, threat)
	d := r2.Norm(away)
	if !(d > 0) {
		// No direction to push in.
		return r2.Vec{}
	}
	return r2.Scale(falloff(d, radius, force), unit(away))
}

// AvoidEdges sums a push from each world edge within margin of pos, using
// the same falloff as AvoidPoint with d measured perpendicular to the edge.
// A wrapped world has no edges.
func AvoidEdges(pos r2.Vec, topo Topology, margin, force float64) r2.Vec {
	if topo.Wrap || margin <= 0 {
		return r2.Vec{}
	}
	half := topo.HalfExtent()
	var f r2.Vec
	if topo.Width > 0 {
		f.X += falloff(pos.X+half.X, margin, force)
		f.X -= falloff(half.X-pos.X, margin, force)
	}
	if topo.Height > 0 {
		f.Y += falloff(pos.Y+half.Y, margin, force)
		f.Y -= falloff(half.Y-pos.Y, margin, force)
	}
	return f
}

// Steer computes an agent's acceleration for the tick. Flocking and wander
// terms pass through Reynolds; the avoidance terms are already bounded
// forces and are added as they are. Every term is scaled by its weight.
func Steer(in SteeringInput) r2.Vec {
	p := in.Params
	self, pos, vel := in.Self.ID, in.Self.Pos, in.Self.Vel
	w := p.Weights

	var acc r2.Vec
	add := func(f r2.Vec, weight float64) {
		if weight != 0 {
			acc = r2.Add(acc, r2.Scale(weight, f))
		}
	}

	add(Reynolds(Separation(self, pos, in.Neighbors, p.SeparationRadius, p.Topology), vel, p.MaxSpeed, p.MaxForce), w.Separation)
	add(Reynolds(Alignment(self, pos, in.Neighbors, p.NeighborRadius, p.Topology), vel, p.MaxSpeed, p.MaxForce), w.Alignment)
	add(Reynolds(Cohesion(self, pos, in.Neighbors, p.NeighborRadius, p.Topology), vel, p.MaxSpeed, p.MaxForce), w.Cohesion)
	add(Reynolds(in.Wander, vel, p.MaxSpeed, p.MaxForce), w.Wander)

	if p.PointerEnabled && in.Pointer != nil {
		add(AvoidPoint(pos, *in.Pointer, p.PointerRadius, p.PointerForce, p.Topology), w.Pointer)
	}
	if p.EdgesEnabled {
		add(AvoidEdges(pos, p.Topology, p.EdgeMargin, p.EdgeForce), w.Edges)
	}

	return acc
}

// Heading returns the facing angle for a velocity: the sprite's forward axis
// is +Y, so the travel angle is rotated back by a quarter turn.
func Heading(vel r2.Vec) float64 {
	return normalizeAngle(math.Atan2(vel.Y, vel.X) - math.Pi/2)
}
