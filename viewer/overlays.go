package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/ui"
)

var (
	gridColor     = rl.Color{R: 60, G: 60, B: 90, A: 120}
	boundsColor   = rl.Color{R: 120, G: 120, B: 160, A: 255}
	neighborColor = rl.Color{R: 100, G: 200, B: 255, A: 90}
	sepColor      = rl.Color{R: 255, G: 120, B: 80, A: 140}
	velocityColor = rl.Color{R: 200, G: 255, B: 120, A: 160}
	pointerColor  = rl.Color{R: 255, G: 80, B: 80, A: 140}
)

// selectedAgent returns the current state of the selected agent.
func (a *App) selectedAgent() (game.AgentState, bool) {
	if !a.hasSelection {
		return game.AgentState{}, false
	}
	return a.sim.Agent(a.selected)
}

// drawUnderlays renders the space overlays beneath the flock.
func (a *App) drawUnderlays() {
	if a.overlays.IsEnabled(ui.OverlayGrid) {
		a.drawGrid()
	}
	if a.overlays.IsEnabled(ui.OverlayWorldBounds) {
		a.drawWorldBounds()
	}
}

// drawActiveOverlays renders the selection and debug overlays.
func (a *App) drawActiveOverlays() {
	for _, id := range a.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayNeighborRadius:
			a.drawRadii()
		case ui.OverlayNeighbors:
			a.drawNeighborLinks()
		case ui.OverlayVelocity:
			a.drawVelocities()
		case ui.OverlayPointerRadius:
			a.drawPointerRadius()
		// Grid and bounds are drawn by drawUnderlays, perf by drawUI.
		}
	}
}

// drawGrid draws the spatial hash cells covering the visible area. On a
// wrapping world cells stretch to divide the extent evenly.
func (a *App) drawGrid() {
	layout := a.sim.GridLayout()
	spanX, spanY := layout.CellSize, layout.CellSize
	originX, originY := 0.0, 0.0
	if layout.Cols > 0 {
		spanX, originX = a.env.Width/float64(layout.Cols), -a.env.Width/2
	}
	if layout.Rows > 0 {
		spanY, originY = a.env.Height/float64(layout.Rows), -a.env.Height/2
	}
	if spanX*float64(a.camera.Zoom) < 4 || spanY*float64(a.camera.Zoom) < 4 {
		return // too dense to be useful
	}

	// Visible world rectangle, unwrapped around the camera center.
	halfW := float64(a.camera.ViewportW / (2 * a.camera.Zoom))
	halfH := float64(a.camera.ViewportH / (2 * a.camera.Zoom))
	cx, cy := float64(a.camera.X), float64(a.camera.Y)

	first := func(lo, origin, span float64) float64 {
		n := int((lo - origin) / span)
		v := origin + float64(n)*span
		if v > lo {
			v -= span
		}
		return v
	}

	for x := first(cx-halfW, originX, spanX); x <= cx+halfW; x += spanX {
		sx, _ := a.screenOf(x, cy)
		rl.DrawLine(int32(sx), 0, int32(sx), int32(a.screenHeight), gridColor)
	}
	for y := first(cy-halfH, originY, spanY); y <= cy+halfH; y += spanY {
		_, sy := a.screenOf(cx, y)
		rl.DrawLine(0, int32(sy), int32(a.screenWidth), int32(sy), gridColor)
	}
}

// screenOf maps a world point near the camera without wrapping it back, so
// lines past the seam stay on the correct side.
func (a *App) screenOf(wx, wy float64) (float32, float32) {
	c := a.camera
	sx := c.ViewportW/2 + (float32(wx)-c.X)*c.Zoom
	sy := c.ViewportH/2 - (float32(wy)-c.Y)*c.Zoom
	return sx, sy
}

// drawWorldBounds outlines the world extent. Unbounded worlds have none.
func (a *App) drawWorldBounds() {
	w, h := a.env.Width, a.env.Height
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := a.camera.WorldToScreen(float32(-w/2), float32(h/2))
	if a.camera.Wrap {
		// The seam sits half a world from the origin; draw it unwrapped.
		x0, y0 = a.screenOf(-w/2, h/2)
	}
	z := a.camera.Zoom
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: float32(w) * z, Height: float32(h) * z}, 2, boundsColor)
}

// drawRadii draws the selected agent's neighbor and separation radii.
func (a *App) drawRadii() {
	sel, ok := a.selectedAgent()
	if !ok {
		return
	}
	b := a.sim.Config().Behavior
	sx, sy := a.camera.WorldToScreen(float32(sel.Position.X), float32(sel.Position.Y))
	z := a.camera.Zoom
	rl.DrawCircleLines(int32(sx), int32(sy), float32(b.NeighborRadius)*z, neighborColor)
	rl.DrawCircleLines(int32(sx), int32(sy), float32(b.SeparationRadius)*z, sepColor)
}

// drawNeighborLinks joins the selected agent to each neighbor, following
// the shortest path across a wrapping seam.
func (a *App) drawNeighborLinks() {
	sel, ok := a.selectedAgent()
	if !ok {
		return
	}
	topo := a.sim.Topology()
	radius := a.sim.Config().Behavior.NeighborRadius
	sx, sy := a.camera.WorldToScreen(float32(sel.Position.X), float32(sel.Position.Y))
	z := a.camera.Zoom

	for i := range a.agents {
		other := &a.agents[i]
		if other.ID == sel.ID {
			continue
		}
		d := topo.Delta(other.Position, sel.Position)
		if r2.Norm(d) >= radius {
			continue
		}
		ex := sx + float32(d.X)*z
		ey := sy - float32(d.Y)*z
		rl.DrawLine(int32(sx), int32(sy), int32(ex), int32(ey), neighborColor)
	}
}

// drawVelocities draws a velocity vector for every visible agent, scaled
// to a quarter second of travel.
func (a *App) drawVelocities() {
	z := a.camera.Zoom
	for i := range a.agents {
		ag := &a.agents[i]
		x, y := float32(ag.Position.X), float32(ag.Position.Y)
		if !a.camera.IsVisible(x, y, 0) {
			continue
		}
		sx, sy := a.camera.WorldToScreen(x, y)
		ex := sx + float32(ag.Velocity.X)*0.25*z
		ey := sy - float32(ag.Velocity.Y)*0.25*z
		rl.DrawLine(int32(sx), int32(sy), int32(ex), int32(ey), velocityColor)
	}
}

// drawPointerRadius shows where the pointer pushes agents away.
func (a *App) drawPointerRadius() {
	if a.pointer == nil {
		return
	}
	p := a.sim.Config().Behavior.Pointer
	sx, sy := a.camera.WorldToScreen(float32(a.pointer.X), float32(a.pointer.Y))
	color := pointerColor
	if !p.Enabled {
		color.A = 50
	}
	rl.DrawCircleLines(int32(sx), int32(sy), float32(p.Radius)*a.camera.Zoom, color)
}
