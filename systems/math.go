package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon below which a vector is treated as zero length.
const epsilon = 1e-9

// unit returns v scaled to length 1, or the zero vector when v has no length.
// r2.Unit divides by the norm unguarded and would return NaN.
func unit(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < epsilon || math.IsInf(n, 0) || math.IsNaN(n) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

// ClampLength returns v shortened to at most maxLen. A non-positive maxLen
// yields the zero vector.
func ClampLength(v r2.Vec, maxLen float64) r2.Vec {
	if maxLen <= 0 {
		return r2.Vec{}
	}
	n2 := r2.Norm2(v)
	if n2 <= maxLen*maxLen {
		return v
	}
	return r2.Scale(maxLen/math.Sqrt(n2), v)
}

// Topology describes the world's shape for distance and direction queries.
// The world is centered on the origin and spans [-Width/2, Width/2) on x.
type Topology struct {
	Width, Height float64
	Wrap          bool
}

// Delta returns the vector from b to a. With Wrap set, each axis takes the
// shorter way around the torus.
func (t Topology) Delta(a, b r2.Vec) r2.Vec {
	d := r2.Sub(a, b)
	if !t.Wrap {
		return d
	}
	d.X = wrapAxisDelta(d.X, t.Width)
	d.Y = wrapAxisDelta(d.Y, t.Height)
	return d
}

// HalfExtent returns half the world size on each axis.
func (t Topology) HalfExtent() r2.Vec {
	return r2.Vec{X: t.Width / 2, Y: t.Height / 2}
}

func wrapAxisDelta(d, extent float64) float64 {
	if extent <= 0 {
		return d
	}
	half := extent / 2
	if d > half {
		return d - extent
	}
	if d < -half {
		return d + extent
	}
	return d
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	angle = math.Mod(angle, 2*math.Pi)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// finite reports whether both components are finite numbers.
func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
