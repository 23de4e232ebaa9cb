package systems

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// HeadingEpsilon is the speed below which an agent keeps its previous facing.
const HeadingEpsilon = 0.001

// ApplyForces adds acceleration over dt to velocity. The added change is
// capped at maxSpeed; the resulting speed itself is not capped, so an agent
// only slows when its steering opposes its motion.
func ApplyForces(vel, acc r2.Vec, dt, maxSpeed float64) r2.Vec {
	return r2.Add(vel, ClampLength(r2.Scale(dt, acc), maxSpeed))
}

// UpdatePosition advances pos by vel over dt and returns the new position
// and facing. Near-zero velocities leave heading untouched to avoid jitter.
func UpdatePosition(pos, vel r2.Vec, heading, dt float64) (r2.Vec, float64) {
	pos = r2.Add(pos, r2.Scale(dt, vel))
	if r2.Norm(vel) > HeadingEpsilon {
		heading = Heading(vel)
	}
	return pos, heading
}
