package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer/sprite"
)

// InspectorData holds everything the inspector shows for one agent.
type InspectorData struct {
	Agent     game.AgentState
	Neighbors int // agents within the neighbor radius
	Crowded   int // agents within the separation radius
	MaxSpeed  float64
}

// agentSections describes the inspector layout.
var agentSections = []SectionDescriptor{
	{
		Title: "Motion",
		Fields: []FieldDescriptor{
			{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
				p := d.(InspectorData).Agent.Position
				return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
			}},
			{ID: "velocity", Label: "Velocity", Widget: WidgetText, TextGetter: func(d any) string {
				v := d.(InspectorData).Agent.Velocity
				return fmt.Sprintf("(%.1f, %.1f)", v.X, v.Y)
			}},
			{ID: "speed", Label: "Speed", Widget: WidgetBar, Getter: func(d any) float32 {
				data := d.(InspectorData)
				if data.MaxSpeed <= 0 {
					return 0
				}
				return float32(r2.Norm(data.Agent.Velocity) / data.MaxSpeed)
			}},
			{ID: "heading", Label: "Heading", Widget: WidgetCenteredBar, Range: FieldRange{Min: -math.Pi, Max: math.Pi},
				Getter: func(d any) float32 { return float32(d.(InspectorData).Agent.Heading) }},
		},
	},
	{
		Title: "Neighborhood",
		Fields: []FieldDescriptor{
			{ID: "neighbors", Label: "Neighbors", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(d.(InspectorData).Neighbors) }},
			{ID: "crowded", Label: "Too close", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(d.(InspectorData).Crowded) }},
		},
	},
	{
		Title: "Look",
		Fields: []FieldDescriptor{
			{ID: "hue", Label: "Hue", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
				r, g, b := sprite.RGB(d.(InspectorData).Agent.Hue)
				return rl.Color{R: r, G: g, B: b, A: 255}
			}},
		},
	},
}

// Inspector renders the selected agent's panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range agentSections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + padding
	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Agent #%d", data.Agent.ID), x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sd := range agentSections {
		y = r.DrawSection(x, y, sd, data, ins.width-padding*2)
	}
}
