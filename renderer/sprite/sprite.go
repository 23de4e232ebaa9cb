// Package sprite holds the boid glyph geometry and palette shared by the
// window renderer and the PNG frame exporter.
package sprite

import (
	"math"

	"github.com/pthm-cable/flock/camera"
)

// Boid glyph proportions relative to its size.
const (
	noseLength = 1.5
	tailSpread = 0.8 * math.Pi // angle of each tail corner from the nose
)

// Triangle returns the screen-space corners of a boid glyph centered on c:
// the nose first, then the left and right tail corners. Heading is in
// world space, where 0 faces +Y; screen Y grows downward.
func Triangle(c camera.Point, heading float64, size float32) [3]camera.Point {
	// World forward (-sin h, cos h) with Y flipped for the screen.
	theta := math.Atan2(-math.Cos(heading), -math.Sin(heading))

	at := func(angle float64, r float32) camera.Point {
		return camera.Point{
			X: c.X + float32(math.Cos(angle))*r,
			Y: c.Y + float32(math.Sin(angle))*r,
		}
	}
	return [3]camera.Point{
		at(theta, size*noseLength),
		at(theta+tailSpread, size),
		at(theta-tailSpread, size),
	}
}

// RGB converts an agent hue in degrees to a saturated, bright colour.
func RGB(hue float32) (r, g, b uint8) {
	const s, v = 0.6, 0.95

	h := math.Mod(float64(hue), 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return to8(rf), to8(gf), to8(bf)
}
