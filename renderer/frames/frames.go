// Package frames renders the flock to PNG images without a window, for
// headless runs that still want to be watched afterwards.
package frames

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer/sprite"
)

var (
	backgroundColor = color.RGBA{12, 12, 28, 255}
	borderColor     = color.RGBA{60, 70, 80, 255}
	textColor       = color.RGBA{200, 200, 200, 255}
)

// Exporter draws every Nth tick into a reusable context and saves it.
type Exporter struct {
	dir   string
	every int64
	size  float32 // glyph size in pixels

	cam *camera.Camera
	dc  *gg.Context
}

// NewExporter creates the output directory and a width x height canvas
// centered on the world origin. A frame is written every `every` ticks.
func NewExporter(dir string, width, height int, worldW, worldH float64, wrap bool, every int64) (*Exporter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}
	if every <= 0 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}

	cam := camera.New(float32(width), float32(height), float32(worldW), float32(worldH), wrap)
	// Fit a bounded world into the frame; a torus is shown at 1:1.
	if worldW > 0 && worldH > 0 {
		cam.SetZoom(min(float32(width)/float32(worldW), float32(height)/float32(worldH)))
	}

	return &Exporter{
		dir:   dir,
		every: every,
		size:  6,
		cam:   cam,
		dc:    gg.NewContext(width, height),
	}, nil
}

// Due reports whether tick should be captured.
func (e *Exporter) Due(tick int64) bool {
	return tick%e.every == 0
}

// Render draws agents onto the canvas and returns it. The image is reused
// by the next call.
func (e *Exporter) Render(tick int64, agents []game.AgentState) image.Image {
	dc := e.dc
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	if !e.cam.Wrap && e.cam.WorldW > 0 && e.cam.WorldH > 0 {
		x0, y0 := e.cam.WorldToScreen(-e.cam.WorldW/2, e.cam.WorldH/2)
		x1, y1 := e.cam.WorldToScreen(e.cam.WorldW/2, -e.cam.WorldH/2)
		dc.SetColor(borderColor)
		dc.SetLineWidth(1)
		dc.DrawRectangle(float64(x0), float64(y0), float64(x1-x0), float64(y1-y0))
		dc.Stroke()
	}

	size := e.size * e.cam.Zoom
	for i := range agents {
		a := &agents[i]
		x, y := float32(a.Position.X), float32(a.Position.Y)
		if !e.cam.IsVisible(x, y, size*2) {
			continue
		}
		sx, sy := e.cam.WorldToScreen(x, y)
		tri := sprite.Triangle(camera.Point{X: sx, Y: sy}, a.Heading, size)

		r, g, b := sprite.RGB(a.Hue)
		dc.SetColor(color.RGBA{r, g, b, 255})
		dc.MoveTo(float64(tri[0].X), float64(tri[0].Y))
		dc.LineTo(float64(tri[1].X), float64(tri[1].Y))
		dc.LineTo(float64(tri[2].X), float64(tri[2].Y))
		dc.ClosePath()
		dc.Fill()
	}

	dc.SetColor(textColor)
	dc.DrawString(fmt.Sprintf("tick %d  agents %d", tick, len(agents)), 8, 16)

	return dc.Image()
}

// Capture renders the frame for tick and writes it as frame_<tick>.png.
func (e *Exporter) Capture(tick int64, agents []game.AgentState) (string, error) {
	e.Render(tick, agents)

	path := filepath.Join(e.dir, fmt.Sprintf("frame_%08d.png", tick))
	if err := e.dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("write frame: %w", err)
	}
	return path, nil
}
