package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/telemetry"
)

// HUDData is what the top-left status lines show.
type HUDData struct {
	Title        string
	Agents       int
	Tick         int64
	SimTime      float64
	Speed        int
	FPS          int32
	Paused       bool
	Policy       string
	Polarization float64 // last stats window; negative before the first
}

// HUD draws the status lines and the key legend.
type HUD struct{}

// NewHUD creates a HUD.
func NewHUD() *HUD { return &HUD{} }

// Draw renders the title and status lines.
func (h *HUD) Draw(d HUDData) {
	rl.DrawText(d.Title, 10, 10, 20, rl.White)

	lines := [...]string{
		fmt.Sprintf("Agents: %d | Boundary: %s", d.Agents, d.Policy),
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %dx | FPS: %d", d.Tick, d.SimTime, d.Speed, d.FPS),
	}
	y := int32(35)
	for _, line := range lines {
		rl.DrawText(line, 10, y, 16, rl.LightGray)
		y += 20
	}

	status := "Running"
	if d.Paused {
		status = "PAUSED"
	}
	if d.Polarization >= 0 {
		status = fmt.Sprintf("%s | Polarization: %.2f", status, d.Polarization)
	}
	rl.DrawText(status, 10, y, 16, rl.Yellow)
}

// DrawControls renders the key legend along the bottom edge.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel shows tick timing and the per-phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a perf panel at x, y.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition moves the panel, e.g. after a window resize.
func (p *PerfPanel) SetPosition(x, y int32) { p.x, p.y = x, y }

const (
	perfPanelWidth = 260
	perfRowHeight  = 14
)

// phaseColor flags phases that dominate the tick.
func phaseColor(pct float64) rl.Color {
	switch {
	case pct > 50:
		return rl.Red
	case pct > 25:
		return rl.Orange
	}
	return rl.LightGray
}

// Draw renders stats with phases in tick order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	t := p.renderer.Theme
	height := t.Padding*2 + 20 + 2*16 + perfRowHeight*int32(len(telemetry.Phases))
	p.renderer.DrawPanel(p.x, p.y, perfPanelWidth, height)

	x, y := p.x+t.Padding, p.y+t.Padding
	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20

	us := func(d time.Duration) time.Duration { return d.Round(time.Microsecond) }
	rl.DrawText(fmt.Sprintf("Avg: %s  P95: %s", us(stats.AvgTickDuration), us(stats.P95TickDuration)), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("TPS: %.0f  Window: %d ticks", stats.TicksPerSecond, stats.Ticks), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		pct := stats.PhasePct[name]
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", name, us(stats.PhaseAvg[name]), pct), x, y, 12, phaseColor(pct))
		y += perfRowHeight
	}
}
