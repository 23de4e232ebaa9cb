// Package renderer draws the flock into the raylib window.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer/sprite"
)

// BoidRenderer draws agents as oriented triangles coloured by hue.
type BoidRenderer struct {
	Size     float32 // glyph size in world units
	Outlines bool
}

// NewBoidRenderer creates a boid renderer with the default glyph size.
func NewBoidRenderer() *BoidRenderer {
	return &BoidRenderer{Size: 6}
}

// Draw renders every visible agent plus its ghosts across the seam of a
// wrapping world.
func (r *BoidRenderer) Draw(agents []game.AgentState, cam *camera.Camera) {
	size := r.Size * cam.Zoom
	for i := range agents {
		a := &agents[i]
		x, y := float32(a.Position.X), float32(a.Position.Y)

		red, green, blue := sprite.RGB(a.Hue)
		color := rl.Color{R: red, G: green, B: blue, A: 255}

		if cam.IsVisible(x, y, r.Size*2) {
			sx, sy := cam.WorldToScreen(x, y)
			r.drawTriangle(camera.Point{X: sx, Y: sy}, a.Heading, size, color)
		}
		for _, g := range cam.GhostPositions(x, y, r.Size*2) {
			r.drawTriangle(g, a.Heading, size, color)
		}
	}
}

// Highlight draws a ring around one agent.
func (r *BoidRenderer) Highlight(a game.AgentState, cam *camera.Camera) {
	sx, sy := cam.WorldToScreen(float32(a.Position.X), float32(a.Position.Y))
	rl.DrawCircleLines(int32(sx), int32(sy), r.Size*cam.Zoom*2.5, rl.Yellow)
}

func (r *BoidRenderer) drawTriangle(c camera.Point, heading float64, size float32, color rl.Color) {
	tri := sprite.Triangle(c, heading, size)
	v1 := rl.Vector2{X: tri[0].X, Y: tri[0].Y}
	v2 := rl.Vector2{X: tri[1].X, Y: tri[1].Y}
	v3 := rl.Vector2{X: tri[2].X, Y: tri[2].Y}

	// DrawTriangle requires counter-clockwise winding (v1, v3, v2)
	rl.DrawTriangle(v1, v3, v2, color)
	if r.Outlines {
		rl.DrawTriangleLines(v1, v2, v3, rl.White)
	}
}
