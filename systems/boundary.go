package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// BoundaryPolicy selects how positions outside the world are corrected.
type BoundaryPolicy int

const (
	// Clamp teleports an agent that leaves one edge to the opposite edge.
	Clamp BoundaryPolicy = iota
	// Wrap maps positions onto the torus, keeping the overshoot.
	Wrap
)

func (p BoundaryPolicy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Wrap:
		return "wrap"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
	}
}

// ParseBoundaryPolicy converts a configuration name into a policy.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "clamp":
		return Clamp, nil
	case "wrap":
		return Wrap, nil
	}
	return 0, fmt.Errorf("unknown boundary policy %q (want clamp or wrap)", s)
}

// Topology returns the steering topology consistent with the policy, so
// boundary handling and neighbor distances always agree.
func (p BoundaryPolicy) Topology(width, height float64) Topology {
	return Topology{Width: width, Height: height, Wrap: p == Wrap}
}

// ResolveBoundary corrects pos for a world of the given extent centered on
// the origin. Non-positive extents leave that axis alone.
func ResolveBoundary(pos r2.Vec, width, height float64, policy BoundaryPolicy) r2.Vec {
	switch policy {
	case Wrap:
		pos.X = wrapAxis(pos.X, width)
		pos.Y = wrapAxis(pos.Y, height)
	default:
		pos.X = teleportAxis(pos.X, width)
		pos.Y = teleportAxis(pos.Y, height)
	}
	return pos
}

// wrapAxis is ((p + half) mod extent + extent) mod extent - half. The second
// mod folds the negative remainders math.Mod returns for negative inputs.
func wrapAxis(p, extent float64) float64 {
	if !(extent > 0) {
		return p
	}
	half := extent / 2
	return math.Mod(math.Mod(p+half, extent)+extent, extent) - half
}

func teleportAxis(p, extent float64) float64 {
	if !(extent > 0) {
		return p
	}
	half := extent / 2
	if p > half {
		return -half
	}
	if p < -half {
		return half
	}
	return p
}
