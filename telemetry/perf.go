package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step.
const (
	PhaseSnapshot  = "snapshot"
	PhaseGrid      = "grid"
	PhaseBehavior  = "behavior"
	PhaseIntegrate = "integrate"
	PhaseBoundary  = "boundary"
	PhaseApply     = "apply"
	PhaseTelemetry = "telemetry"
)

// Phases lists the tick phases in execution order.
var Phases = [...]string{
	PhaseSnapshot, PhaseGrid, PhaseBehavior,
	PhaseIntegrate, PhaseBoundary, PhaseApply, PhaseTelemetry,
}

const numPhases = len(Phases)

func phaseIndex(name string) int {
	return slices.Index(Phases[:], name)
}

// tickSample is the timing of one tick, one slot per phase.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector keeps a ring of recent tick timings. Phases outside
// Phases still count toward the tick total but get no breakdown.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // index into Phases, -1 when untracked or idle

	// Frame timing (for graphics mode)
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over the last windowSize
// ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:  make([]tickSample, windowSize),
		phase: -1,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	now := time.Now()
	p.cur = tickSample{}
	p.tickStart = now
	p.phaseStart = now
	p.phase = -1
}

// StartPhase closes the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phaseIndex(name)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the tick and pushes it into the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = -1
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordFrame records the time since the previous frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the ticks in the collector's window.
type PerfStats struct {
	Ticks int // samples in the window

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average time and share of the average tick per phase name.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Ticks:         p.count,
		PhaseAvg:      make(map[string]time.Duration, numPhases),
		PhasePct:      make(map[string]float64, numPhases),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	for i := range p.count {
		t := p.ring[i]
		totals[i] = float64(t.total)
		for j, d := range t.phases {
			phaseSum[j] += d
		}
	}
	slices.Sort(totals)

	n := time.Duration(p.count)
	s.AvgTickDuration = time.Duration(stat.Mean(totals, nil))
	s.MinTickDuration = time.Duration(totals[0])
	s.MaxTickDuration = time.Duration(totals[len(totals)-1])
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))

	for j, name := range Phases {
		if phaseSum[j] == 0 {
			continue
		}
		avg := phaseSum[j] / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer. Phases are listed in tick order.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, name := range Phases {
		if pct := s.PhasePct[name]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(name+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	GridPct      float64 `csv:"grid_pct"`
	BehaviorPct  float64 `csv:"behavior_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	BoundaryPct  float64 `csv:"boundary_pct"`
	ApplyPct     float64 `csv:"apply_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		GridPct:      s.PhasePct[PhaseGrid],
		BehaviorPct:  s.PhasePct[PhaseBehavior],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		BoundaryPct:  s.PhasePct[PhaseBoundary],
		ApplyPct:     s.PhasePct[PhaseApply],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
