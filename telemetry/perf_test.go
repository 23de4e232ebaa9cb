package telemetry

import (
	"testing"
	"time"
)

// tick records one tick that spends the given time in each phase.
func tick(pc *PerfCollector, phases map[string]time.Duration) {
	pc.StartTick()
	for _, name := range Phases {
		if d, ok := phases[name]; ok {
			pc.StartPhase(name)
			time.Sleep(d)
		}
	}
	pc.EndTick()
}

func TestPerfCollectorTracksPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	for range 5 {
		tick(pc, map[string]time.Duration{
			PhaseGrid:     50 * time.Microsecond,
			PhaseBehavior: 2 * time.Millisecond,
		})
	}

	stats := pc.Stats()
	if stats.Ticks != 5 {
		t.Errorf("Ticks = %d, want 5", stats.Ticks)
	}
	if stats.AvgTickDuration <= 0 || stats.TicksPerSecond <= 0 {
		t.Fatalf("avg = %v, tps = %v, want positive", stats.AvgTickDuration, stats.TicksPerSecond)
	}
	for _, name := range []string{PhaseGrid, PhaseBehavior} {
		if _, ok := stats.PhaseAvg[name]; !ok {
			t.Errorf("phase %q not tracked", name)
		}
	}
	if _, ok := stats.PhaseAvg[PhaseBoundary]; ok {
		t.Error("phase that never ran has an average")
	}
	if stats.PhasePct[PhaseBehavior] <= stats.PhasePct[PhaseGrid] {
		t.Errorf("behavior %.1f%% should exceed grid %.1f%%",
			stats.PhasePct[PhaseBehavior], stats.PhasePct[PhaseGrid])
	}
}

func TestPerfCollectorIgnoresUnknownPhase(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase("render")
	time.Sleep(time.Millisecond)
	pc.EndTick()

	stats := pc.Stats()
	if len(stats.PhaseAvg) != 0 {
		t.Errorf("PhaseAvg = %v, want empty", stats.PhaseAvg)
	}
	if stats.AvgTickDuration < time.Millisecond {
		t.Errorf("untracked phase should still count toward the tick, avg = %v", stats.AvgTickDuration)
	}
}

func TestPerfCollectorWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	for range 3 {
		tick(pc, map[string]time.Duration{PhaseBehavior: 5 * time.Millisecond})
	}
	for range 3 {
		tick(pc, nil)
	}

	stats := pc.Stats()
	if stats.Ticks != 3 {
		t.Errorf("Ticks = %d, want window size 3", stats.Ticks)
	}
	if stats.MaxTickDuration >= 5*time.Millisecond {
		t.Errorf("slow ticks should have left the window, max = %v", stats.MaxTickDuration)
	}
	if _, ok := stats.PhaseAvg[PhaseBehavior]; ok {
		t.Error("behavior phase should have left the window")
	}
}

func TestPerfCollectorPercentile(t *testing.T) {
	pc := NewPerfCollector(40)
	for range 39 {
		tick(pc, nil)
	}
	tick(pc, map[string]time.Duration{PhaseGrid: 5 * time.Millisecond})

	s := pc.Stats()
	if !(s.MinTickDuration <= s.AvgTickDuration && s.AvgTickDuration <= s.MaxTickDuration) {
		t.Errorf("min %v, avg %v, max %v out of order", s.MinTickDuration, s.AvgTickDuration, s.MaxTickDuration)
	}
	if s.P95TickDuration < s.MinTickDuration || s.P95TickDuration >= s.MaxTickDuration {
		t.Errorf("p95 = %v, want in [%v, %v)", s.P95TickDuration, s.MinTickDuration, s.MaxTickDuration)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.Ticks != 0 || stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector stats = %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("phase maps should be non-nil")
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.RecordFrame()
	if fps := pc.Stats().FPS; fps != 0 {
		t.Errorf("FPS after one frame = %v, want 0", fps)
	}

	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 16*time.Millisecond {
		t.Errorf("frame duration = %v, want >= 16ms", stats.FrameDuration)
	}
	// Sleep only bounds the frame time from below.
	if stats.FPS <= 0 || stats.FPS > 1000.0/16 {
		t.Errorf("FPS = %v, want in (0, 62.5]", stats.FPS)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		MinTickDuration: 100 * time.Microsecond,
		P95TickDuration: 600 * time.Microsecond,
		MaxTickDuration: 900 * time.Microsecond,
		PhasePct: map[string]float64{
			PhaseBehavior:  60,
			PhaseIntegrate: 15,
			PhaseGrid:      10,
		},
		TicksPerSecond: 4000,
	}

	row := stats.ToCSV(1200)
	want := PerfStatsCSV{
		WindowEnd:    1200,
		AvgTickUS:    250,
		MinTickUS:    100,
		P95TickUS:    600,
		MaxTickUS:    900,
		TicksPerSec:  4000,
		GridPct:      10,
		BehaviorPct:  60,
		IntegratePct: 15,
	}
	if row != want {
		t.Errorf("ToCSV = %+v\nwant %+v", row, want)
	}
}
