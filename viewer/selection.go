package viewer

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/game"
)

// maxPickDistance is how far from an agent, in screen pixels, a click may
// land and still select it.
const maxPickDistance = 20

// agentAtScreen returns the agent nearest to a screen position, if any lies
// within maxPickDistance.
func (a *App) agentAtScreen(sx, sy float32) (uint32, bool) {
	var closest uint32
	closestDist := float32(maxPickDistance)
	found := false

	for i := range a.agents {
		ag := &a.agents[i]
		ax, ay := a.camera.WorldToScreen(float32(ag.Position.X), float32(ag.Position.Y))
		dx, dy := ax-sx, ay-sy
		dist := float32(r2.Norm(r2.Vec{X: float64(dx), Y: float64(dy)}))
		if dist < closestDist {
			closestDist = dist
			closest = ag.ID
			found = true
		}
	}
	return closest, found
}

// neighborhood counts the agents within the neighbor and separation radii
// of a, using the simulation's topology so wrapped neighbors count.
func (a *App) neighborhood(self game.AgentState) (neighbors, crowded int) {
	topo := a.sim.Topology()
	b := a.sim.Config().Behavior
	for i := range a.agents {
		other := &a.agents[i]
		if other.ID == self.ID {
			continue
		}
		d := r2.Norm(topo.Delta(other.Position, self.Position))
		if d < b.NeighborRadius {
			neighbors++
		}
		if d < b.SeparationRadius {
			crowded++
		}
	}
	return neighbors, crowded
}
