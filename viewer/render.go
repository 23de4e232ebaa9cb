package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/ui"
)

var background = rl.Color{R: 12, G: 12, B: 28, A: 255}

const controlsLegend = "SPACE: Pause | < >: Speed | Click: Select | Arrows/Wheel: Camera | TAB: Overlays | F1: Behavior | F5: Snapshot | F12: Frame"

// Draw renders one frame.
func (a *App) Draw() {
	a.sim.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(background)

	// Space overlays go under the flock, selection and debug overlays on top.
	a.drawUnderlays()
	a.boids.Draw(a.agents, a.camera)
	a.drawActiveOverlays()

	if sel, ok := a.selectedAgent(); ok {
		a.boids.Highlight(sel, a.camera)
	}

	a.drawUI()

	rl.EndDrawing()
}

// drawUI draws the HUD and panels.
func (a *App) drawUI() {
	polarization := -1.0
	if w, ok := a.sim.LastWindow(); ok {
		polarization = w.Polarization
	}
	cfg := a.sim.Config()

	a.hud.Draw(ui.HUDData{
		Title:        a.title,
		Agents:       len(a.agents),
		Tick:         a.sim.Tick(),
		SimTime:      a.sim.Time(),
		Speed:        a.stepsPerUpdate,
		FPS:          rl.GetFPS(),
		Paused:       a.paused,
		Policy:       cfg.Boundary.Policy,
		Polarization: polarization,
	})

	y := a.controls.Draw(a.overlays)

	if sel, ok := a.selectedAgent(); ok {
		neighbors, crowded := a.neighborhood(sel)
		a.inspector.SetPosition(10, y+10)
		a.inspector.Draw(ui.InspectorData{
			Agent:     sel,
			Neighbors: neighbors,
			Crowded:   crowded,
			MaxSpeed:  cfg.Movement.MaxSpeed,
		})
	}

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(a.sim.PerfStats())
	}

	// Edits apply from the next tick; a rejected edit leaves the old
	// behavior in place.
	if next, changed := a.behavior.Draw(cfg.Behavior); changed {
		if err := a.sim.SetBehavior(next); err != nil {
			a.logger.Warn("behavior change rejected", "error", err)
		}
	}

	a.hud.DrawControls(int32(a.screenHeight), controlsLegend)
}
