// Package camera maps between the flock's world coordinates and screen
// pixels for the viewer.
package camera

import "math"

// Point is a screen position in pixels.
type Point struct {
	X, Y float32
}

// Camera is the viewer's window onto the world: a center, a zoom and the
// pixel size of the viewport.
//
// World Y points up and screen Y points down, so conversions flip it. On a
// wrapping world every offset from the center takes the short way around.
type Camera struct {
	X, Y float32 // center, world units
	Zoom float32 // pixels per world unit

	ViewportW, ViewportH float32

	// Zero on an axis means the world is unbounded there.
	WorldW, WorldH float32
	Wrap           bool

	MinZoom, MaxZoom float32
}

// New returns a camera on the origin at zoom 1.
func New(viewportW, viewportH, worldW, worldH float32, wrap bool) *Camera {
	c := &Camera{
		Zoom:      1,
		MaxZoom:   4,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		Wrap:      wrap,
	}
	c.MinZoom = c.minZoom()
	return c
}

// minZoom keeps a wrapping viewport no larger than the world, so each agent
// is drawn at most once per axis plus its ghost. Bounded worlds may be
// zoomed out until the whole world fits with margin.
func (c *Camera) minZoom() float32 {
	if c.WorldW <= 0 || c.WorldH <= 0 {
		return 0.25
	}
	z := max(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
	if !c.Wrap {
		z = min(z, 0.25)
	}
	return z
}

// halfView is half the visible area in world units.
func (c *Camera) halfView() (w, h float32) {
	return c.ViewportW / (2 * c.Zoom), c.ViewportH / (2 * c.Zoom)
}

// project maps an offset from the camera center to pixels.
func (c *Camera) project(dx, dy float32) Point {
	return Point{c.ViewportW/2 + dx*c.Zoom, c.ViewportH/2 - dy*c.Zoom}
}

// WorldToScreen maps a world position to pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	p := c.project(c.delta(wx, c.X, c.WorldW), c.delta(wy, c.Y, c.WorldH))
	return p.X, p.Y
}

// ScreenToWorld maps pixels back to a world position. The viewer uses it
// to place the pointer threat under the mouse.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (c.ViewportH/2 - sy) / c.Zoom
	return c.wrap(c.X+dx, c.WorldW), c.wrap(c.Y+dy, c.WorldH)
}

// IsVisible reports whether a circle of the given radius may overlap the
// view. It errs on the side of true.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	hw, hh := c.halfView()
	dx := c.delta(wx, c.X, c.WorldW)
	dy := c.delta(wy, c.Y, c.WorldH)
	return absf(dx) <= hw+radius && absf(dy) <= hh+radius
}

// GhostPositions returns extra screen positions for an agent straddling the
// edge of the view on a wrapping world, so it shows on both sides of the
// seam. A corner yields three.
func (c *Camera) GhostPositions(wx, wy, radius float32) []Point {
	if !c.Wrap {
		return nil
	}
	hw, hh := c.halfView()
	dx := c.delta(wx, c.X, c.WorldW)
	dy := c.delta(wy, c.Y, c.WorldH)

	shiftX, okX := seamShift(dx, hw, c.WorldW, radius)
	shiftY, okY := seamShift(dy, hh, c.WorldH, radius)

	var ghosts []Point
	if okX {
		ghosts = append(ghosts, c.project(dx+shiftX, dy))
	}
	if okY {
		ghosts = append(ghosts, c.project(dx, dy+shiftY))
	}
	if okX && okY {
		ghosts = append(ghosts, c.project(dx+shiftX, dy+shiftY))
	}
	return ghosts
}

// seamShift is the offset that carries d across the view edge at ±half, if
// a circle of radius r at d touches that edge.
func seamShift(d, half, size, r float32) (float32, bool) {
	switch {
	case absf(d-half) < r:
		return -size, true
	case absf(d+half) < r:
		return size, true
	}
	return 0, false
}

// Resize changes the viewport and re-derives the zoom floor.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW, c.ViewportH = viewportW, viewportH
	c.MinZoom = c.minZoom()
	c.SetZoom(c.Zoom)
}

// SetWorld updates the world extent, e.g. when the window is resized and
// the world follows the screen.
func (c *Camera) SetWorld(worldW, worldH float32) {
	c.WorldW, c.WorldH = worldW, worldH
	c.MinZoom = c.minZoom()
	c.SetZoom(c.Zoom)
}

// Pan shifts the center by a drag of (dx, dy) pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X = c.wrap(c.X+dx/c.Zoom, c.WorldW)
	c.Y = c.wrap(c.Y-dy/c.Zoom, c.WorldH)
}

// SetZoom clamps zoom to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy scales the zoom, e.g. 1.1 per wheel notch.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(factor * c.Zoom)
}

// Reset returns the camera to the origin at 1:1 zoom.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.SetZoom(1)
}

// delta is to-from, taking the short way around on a wrapping axis.
func (c *Camera) delta(to, from, size float32) float32 {
	d := to - from
	if !c.Wrap || size <= 0 {
		return d
	}
	switch half := size / 2; {
	case d > half:
		d -= size
	case d < -half:
		d += size
	}
	return d
}

// wrap maps v into [-size/2, size/2) on a wrapping axis.
func (c *Camera) wrap(v, size float32) float32 {
	if !c.Wrap || size <= 0 {
		return v
	}
	half := size / 2
	r := float32(math.Mod(float64(v+half), float64(size)))
	if r < 0 {
		r += size
	}
	return r - half
}

func absf(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(hi, x))
}
