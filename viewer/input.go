package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	// Window resize propagation
	a.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && a.stepsPerUpdate > 1 {
		a.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && a.stepsPerUpdate < 10 {
		a.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		a.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		a.behavior.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		a.saveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyF12) {
		a.captureFrame(true)
	}

	a.handleOverlayKeys()
	a.handleCameraInput()
	a.handleMouse()
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h

	a.camera.Resize(w, h)
	a.perfPanel.SetPosition(int32(w)-270, 100)

	// A world sized from the window follows it.
	if a.followScreen {
		a.env.Width = float64(w)
		a.env.Height = float64(h)
		a.camera.SetWorld(w, h)
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (a *App) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / a.camera.Zoom

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		a.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !a.overPanel() {
		a.camera.ZoomBy(1.0 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		a.camera.Reset()
	}
}

// handleOverlayKeys checks for overlay toggle key presses.
func (a *App) handleOverlayKeys() {
	for _, desc := range a.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			a.overlays.Toggle(desc.ID)
		}
	}
}

// handleMouse tracks the pointer threat and handles selection clicks.
func (a *App) handleMouse() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.hasSelection = false
	}

	a.pointer = nil
	if !rl.IsCursorOnScreen() || a.overPanel() {
		return
	}

	mouse := rl.GetMousePosition()
	wx, wy := a.camera.ScreenToWorld(mouse.X, mouse.Y)
	a.pointer = &r2.Vec{X: float64(wx), Y: float64(wy)}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		if id, ok := a.agentAtScreen(mouse.X, mouse.Y); ok {
			a.selected, a.hasSelection = id, true
		} else {
			a.hasSelection = false
		}
	}
}

// overPanel reports whether the mouse is over an interactive panel.
func (a *App) overPanel() bool {
	mouse := rl.GetMousePosition()
	return a.behavior.Contains(mouse.X, mouse.Y)
}
