package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents an agent's world position.
// The world is centered on the origin; z is always 0.
type Position struct {
	X, Y float64
}

// Vec returns the position as a gonum vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Velocity represents an agent's velocity in world units per second.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a gonum vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Acceleration is the steering result of the current tick.
// It is overwritten every tick and never integrated across ticks.
type Acceleration struct {
	X, Y float64
}

// Vec returns the acceleration as a gonum vector.
func (a Acceleration) Vec() r2.Vec { return r2.Vec{X: a.X, Y: a.Y} }

// Rotation holds the facing angle used by renderers.
type Rotation struct {
	Heading float64 // radians, sprite forward axis is +Y
}

// PositionOf converts a gonum vector into a Position.
func PositionOf(v r2.Vec) Position { return Position{X: v.X, Y: v.Y} }

// VelocityOf converts a gonum vector into a Velocity.
func VelocityOf(v r2.Vec) Velocity { return Velocity{X: v.X, Y: v.Y} }

// AccelerationOf converts a gonum vector into an Acceleration.
func AccelerationOf(v r2.Vec) Acceleration { return Acceleration{X: v.X, Y: v.Y} }
