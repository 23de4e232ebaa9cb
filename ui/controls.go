package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/config"
)

// ControlsPanel lists the overlays by category with their toggle keys.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a hidden controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

const categoryGap = 4

var (
	toggleOff = rl.Color{R: 80, G: 80, B: 80, A: 255}
	toggleOn  = rl.Color{R: 100, G: 200, B: 100, A: 255}
	keyColor  = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// Draw renders the panel and returns the Y just below it, or the panel's
// top when hidden.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}
	t := c.renderer.Theme
	cats := overlays.Categories()

	// Title, then one header row per category and one row per overlay.
	rows := int32(len(overlays.All()) + len(cats))
	height := t.Padding*2 + t.LineHeight + categoryGap + rows*t.LineHeight + int32(len(cats))*categoryGap
	c.renderer.DrawPanel(c.x, c.y, c.width, height)

	x := c.x + t.Padding
	y := c.y + t.Padding
	rl.DrawText("Overlays", x, y, 16, rl.White)
	y += t.LineHeight + categoryGap

	for _, cat := range cats {
		rl.DrawText(string(cat), x, y, t.HeaderFontSize, t.SectionHeader)
		y += t.LineHeight
		for _, desc := range overlays.ByCategory(cat) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID))
			y += t.LineHeight
		}
		y += categoryGap
	}
	return c.y + height
}

func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, on bool) {
	t := c.renderer.Theme
	dot, name := toggleOff, t.LabelColor
	if on {
		dot, name = toggleOn, rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, dot)
	rl.DrawText(desc.Name, x+14, y, t.FontSize, name)

	if desc.KeyLabel != "" {
		key := "[" + desc.KeyLabel + "]"
		right := c.x + c.width - t.Padding
		rl.DrawText(key, right-rl.MeasureText(key, t.FontSize), y, t.FontSize, keyColor)
	}
}

// BehaviorPanel edits steering weights and radii with raygui sliders.
// Edits are returned to the caller, which applies them to the simulation
// and may reject them.
type BehaviorPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	defaults config.BehaviorConfig
}

// NewBehaviorPanel creates a behavior panel; Reset restores defaults.
func NewBehaviorPanel(x, y, width int32, defaults config.BehaviorConfig) *BehaviorPanel {
	return &BehaviorPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		defaults: defaults,
	}
}

// Toggle switches panel visibility.
func (p *BehaviorPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Contains reports whether a screen point is over the panel, so clicks on
// it are not treated as world clicks.
func (p *BehaviorPanel) Contains(x, y float32) bool {
	if !p.visible {
		return false
	}
	return x >= float32(p.x) && x <= float32(p.x+p.width) &&
		y >= float32(p.y) && y <= float32(p.y+p.height())
}

type slider struct {
	label    string
	value    *float64
	min, max float32
}

func (p *BehaviorPanel) height() int32 {
	const rows = 8 // sliders
	return p.renderer.Theme.Padding*2 + 24 + rows*38 + 2*24 + 40
}

// Draw renders the panel for b and returns the edited copy and whether
// anything changed this frame.
func (p *BehaviorPanel) Draw(b config.BehaviorConfig) (config.BehaviorConfig, bool) {
	if !p.visible {
		return b, false
	}

	r := p.renderer
	padding := r.Theme.Padding
	p.renderer.DrawPanel(p.x, p.y, p.width, p.height())

	x := float32(p.x + padding)
	y := float32(p.y + padding)
	w := float32(p.width - padding*2 - 50)

	rl.DrawText("Behavior", int32(x), int32(y), 16, rl.White)
	y += 24

	next := b
	sliders := []slider{
		{"Separation", &next.SeparationWeight, 0, 5},
		{"Alignment", &next.AlignmentWeight, 0, 5},
		{"Cohesion", &next.CohesionWeight, 0, 5},
		{"Wander", &next.WanderWeight, 0, 1},
		{"Separation radius", &next.SeparationRadius, 5, 100},
		{"Neighbor radius", &next.NeighborRadius, 10, 200},
		{"Pointer weight", &next.Pointer.Weight, 0, 5},
		{"Edge weight", &next.Edges.Weight, 0, 5},
	}
	for _, s := range sliders {
		rl.DrawText(fmt.Sprintf("%s: %.2f", s.label, *s.value), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += 16
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w, Height: 16},
			fmt.Sprint(s.min), fmt.Sprint(s.max), float32(*s.value), s.min, s.max)
		if v != float32(*s.value) {
			*s.value = float64(v)
		}
		y += 22
	}

	next.Pointer.Enabled = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Avoid pointer", next.Pointer.Enabled)
	y += 24
	next.Edges.Enabled = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Avoid edges", next.Edges.Enabled)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y + 4, Width: 120, Height: 26}, "Reset") {
		next = p.defaults
	}

	return next, next != b
}
