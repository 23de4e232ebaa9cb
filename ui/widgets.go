package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws panels and descriptor-driven fields in one theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a bordered panel background.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSection draws a section's title and fields and returns the Y below
// it. Hidden sections draw nothing.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	if sd.Title != "" {
		rl.DrawText(sd.Title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		r.drawField(x, y, fd, data, width)
		y += r.fieldHeight(fd)
	}
	return y + sectionGap
}

// SectionHeight is the height DrawSection uses, for sizing a panel before
// drawing into it.
func (r *Renderer) SectionHeight(sd SectionDescriptor, data any) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return 0
	}
	var h int32
	if sd.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		h += r.fieldHeight(fd)
	}
	return h + sectionGap
}

const (
	sectionGap = 4
	spacerGap  = 6
)

func (r *Renderer) fieldHeight(fd FieldDescriptor) int32 {
	switch fd.Widget {
	case WidgetBar, WidgetCenteredBar:
		return r.Theme.LineHeight + 2
	case WidgetSpacer:
		return spacerGap
	}
	return r.Theme.LineHeight
}

func (r *Renderer) drawField(x, y int32, fd FieldDescriptor, data any, width int32) {
	t := r.Theme
	var value float32
	if fd.Getter != nil {
		value = fd.Getter(data)
	}

	switch fd.Widget {
	case WidgetSection:
		rl.DrawText(fd.Label, x, y, t.HeaderFontSize, t.SectionHeader)
		return
	case WidgetSpacer:
		return
	}

	rl.DrawText(fd.Label+":", x, y, t.FontSize, t.LabelColor)
	vx := x + t.LabelWidth

	switch fd.Widget {
	case WidgetText:
		text := ""
		switch {
		case fd.TextGetter != nil:
			text = fd.TextGetter(data)
		case fd.Getter != nil:
			text = fmt.Sprintf(fd.Format, value)
		}
		rl.DrawText(text, vx, y, t.FontSize, t.ValueColor)

	case WidgetBar:
		value = max(0, min(1, value))
		track := r.drawTrack(vx, y, width)
		rl.DrawRectangle(vx, y+2, int32(float32(track)*value), t.BarHeight, t.BarFill)
		rl.DrawText(fmt.Sprintf("%.2f", value), vx+track+5, y, t.FontSize, t.ValueColor)

	case WidgetCenteredBar:
		track := r.drawTrack(vx, y, width)
		mid := vx + track/2
		rl.DrawLine(mid, y+2, mid, y+2+t.BarHeight, rl.Color{R: 80, G: 80, B: 80, A: 255})

		// Both halves share the larger of the two range ends as full scale.
		limit := float32(math.Max(math.Abs(float64(fd.Range.Min)), math.Abs(float64(fd.Range.Max))))
		var frac float32
		if limit > 0 {
			frac = min(1, float32(math.Abs(float64(value)))/limit)
		}
		fill := int32(float32(track/2) * frac)
		if value < 0 {
			rl.DrawRectangle(mid-fill, y+2, fill, t.BarHeight, t.BarFillNegative)
		} else {
			rl.DrawRectangle(mid, y+2, fill, t.BarHeight, t.BarFillPositive)
		}
		rl.DrawText(fmt.Sprintf("%+.2f", value), vx+track+5, y, t.FontSize, t.ValueColor)

	case WidgetColorSwatch:
		color := rl.White
		if fd.ColorGetter != nil {
			color = fd.ColorGetter(data)
		}
		rl.DrawRectangle(vx, y+1, 12, 12, color)
	}
}

// drawTrack draws an empty bar background and returns its width.
func (r *Renderer) drawTrack(x, y, width int32) int32 {
	w := width - r.Theme.LabelWidth - 50
	rl.DrawRectangle(x, y+2, w, r.Theme.BarHeight, r.Theme.BarBg)
	return w
}
