// Package components defines ECS components for the simulation.
package components

// Boid marks an agent and carries its stable identity.
// IDs are assigned from a monotonic counter and never reused, so they stay
// valid as handles across spawns and despawns.
type Boid struct {
	ID  uint32
	Hue float32 // display colour index in [0, 360), assigned at spawn
}
