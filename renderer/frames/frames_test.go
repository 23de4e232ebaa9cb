package frames

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/game"
)

func TestRenderDrawsAgents(t *testing.T) {
	e, err := NewExporter(t.TempDir(), 200, 100, 200, 100, true, 1)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	agents := []game.AgentState{
		{ID: 0, Position: r2.Vec{X: 50, Y: 0}, Hue: 0},
		{ID: 1, Position: r2.Vec{X: -50, Y: 25}, Hue: 240},
	}
	img := e.Render(10, agents)

	tests := []struct {
		name string
		x, y int
		want func(r, g, b uint32) bool
	}{
		{"red agent right of center", 150, 50, func(r, g, b uint32) bool { return r > g && r > b }},
		{"blue agent up and left", 50, 25, func(r, g, b uint32) bool { return b > r && b > g }},
		{"empty space is background", 100, 90, func(r, g, b uint32) bool {
			return r>>8 == 12 && g>>8 == 12 && b>>8 == 28
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, _ := img.At(tt.x, tt.y).RGBA()
			if !tt.want(r, g, b) {
				t.Errorf("pixel (%d, %d) = %d %d %d", tt.x, tt.y, r>>8, g>>8, b>>8)
			}
		})
	}
}

func TestCaptureWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	e, err := NewExporter(dir, 64, 48, 640, 480, false, 30)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	if e.Due(31) || !e.Due(60) {
		t.Error("Due should fire on multiples of 30 only")
	}

	path, err := e.Capture(60, []game.AgentState{{Position: r2.Vec{}}})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if filepath.Base(path) != "frame_00000060.png" {
		t.Errorf("unexpected file name %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("frame is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestNewExporterRejectsEmptyCanvas(t *testing.T) {
	if _, err := NewExporter(t.TempDir(), 0, 10, 100, 100, true, 1); err == nil {
		t.Error("expected error for zero width")
	}
}
