package game

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/telemetry"
)

func TestSpawnDespawnNeverReusesIDs(t *testing.T) {
	s := newTestSim(t, "population:\n  num_agents: 5\n", Options{})
	if err := s.Init(screenEnv()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	id, err := s.Spawn(r2.Vec{X: 1, Y: 2}, r2.Vec{X: 3})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if id != 5 {
		t.Errorf("first spawned ID = %d, want 5", id)
	}

	if !s.Despawn(3) {
		t.Fatal("Despawn(3) reported missing agent")
	}
	if s.Despawn(3) {
		t.Error("second Despawn(3) should report false")
	}
	if _, ok := s.Agent(3); ok {
		t.Error("despawned agent still visible")
	}

	next, _ := s.Spawn(r2.Vec{}, r2.Vec{})
	if next != 6 {
		t.Errorf("ID after despawn = %d, want 6", next)
	}
	if s.Count() != 6 {
		t.Errorf("count = %d, want 6", s.Count())
	}

	stepN(t, s, screenEnv(), 3)
	for _, a := range s.Agents(nil) {
		if a.ID == 3 {
			t.Fatal("despawned agent came back")
		}
	}
}

func TestSpawnRejectsNonFinite(t *testing.T) {
	s := newTestSim(t, "", Options{})
	tests := []struct {
		name     string
		pos, vel r2.Vec
	}{
		{"nan position", r2.Vec{X: math.NaN()}, r2.Vec{}},
		{"infinite velocity", r2.Vec{}, r2.Vec{Y: math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Spawn(tt.pos, tt.vel); err == nil {
				t.Error("expected error")
			}
		})
	}
	if s.Count() != 0 {
		t.Errorf("rejected spawns created %d agents", s.Count())
	}
}

func TestSpawnedAgentHeading(t *testing.T) {
	s := newTestSim(t, "population:\n  num_agents: 0\n", Options{})

	id, _ := s.Spawn(r2.Vec{}, r2.Vec{Y: 10})
	if a, _ := s.Agent(id); math.Abs(a.Heading) > 1e-12 {
		t.Errorf("agent moving +Y should face 0, got %v", a.Heading)
	}

	still, _ := s.Spawn(r2.Vec{}, r2.Vec{})
	if a, _ := s.Agent(still); a.Heading != 0 {
		t.Errorf("stationary agent heading = %v, want 0", a.Heading)
	}
}

func TestSnapshotRestoreContinuesIdentically(t *testing.T) {
	overlay := "behavior:\n  wander_weight: 0\n"
	env := screenEnv()

	orig := newTestSim(t, overlay, Options{RunID: "run-a"})
	if err := orig.Init(env); err != nil {
		t.Fatalf("Init: %v", err)
	}
	stepN(t, orig, env, 30)
	orig.Despawn(7)

	path, err := telemetry.SaveSnapshot(orig.Snapshot(nil), t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	resumed := newTestSim(t, overlay, Options{})
	if err := resumed.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if resumed.Tick() != 30 || resumed.Time() != orig.Time() {
		t.Errorf("clock = %d / %v, want 30 / %v", resumed.Tick(), resumed.Time(), orig.Time())
	}

	compare := func(stage string) {
		t.Helper()
		want := orig.Agents(nil)
		got := resumed.Agents(nil)
		if len(got) != len(want) {
			t.Fatalf("%s: %d agents, want %d", stage, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: agent %d differs:\n got  %+v\n want %+v", stage, want[i].ID, got[i], want[i])
			}
		}
	}
	compare("after restore")

	// Without wander the rest of a tick is a pure function of agent state.
	stepN(t, orig, env, 20)
	stepN(t, resumed, env, 20)
	compare("after 20 more ticks")

	a, _ := orig.Spawn(r2.Vec{}, r2.Vec{})
	b, _ := resumed.Spawn(r2.Vec{}, r2.Vec{})
	if a != b {
		t.Errorf("next IDs diverged: %d vs %d", a, b)
	}
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	s := newTestSim(t, "", Options{})
	if err := s.Init(screenEnv()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	outOfRange := s.Snapshot(nil)
	outOfRange.NextID = 0 // every ID is now out of range

	tests := []struct {
		name string
		snap *telemetry.Snapshot
	}{
		{"id past next_id", outOfRange},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Restore(tt.snap); err == nil {
				t.Fatal("expected error")
			}
			if s.Count() != 150 {
				t.Errorf("failed restore touched the population: %d agents", s.Count())
			}
		})
	}
}

func TestStatsWindowFollowsStepDT(t *testing.T) {
	var ends []int64
	s := newTestSim(t, "telemetry:\n  stats_window_sec: 0.5\n", Options{
		StatsCallback: func(w telemetry.WindowStats) { ends = append(ends, w.WindowEndTick) },
	})
	// The configured dt is 1/60; stepping at 8 Hz still yields 0.5s windows.
	env := screenEnv()
	env.DT = 0.125
	if err := s.Init(env); err != nil {
		t.Fatalf("Init: %v", err)
	}
	stepN(t, s, env, 9)

	if !slices.Equal(ends, []int64{4, 8}) {
		t.Errorf("window ends = %v, want [4 8]", ends)
	}
}

// metricValue reads a counter or gauge without labels from reg.
func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestTelemetryWiring(t *testing.T) {
	outDir := t.TempDir()
	snapDir := filepath.Join(t.TempDir(), "snapshots")

	out, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	reg := prometheus.NewRegistry()

	var windows []telemetry.WindowStats
	s := newTestSim(t, "telemetry:\n  stats_window_sec: 0.5\n", Options{
		Metrics:       telemetry.NewMetrics(reg),
		Output:        out,
		SnapshotDir:   snapDir,
		StatsCallback: func(w telemetry.WindowStats) { windows = append(windows, w) },
		RunID:         "run-b",
	})
	env := screenEnv()
	if err := s.Init(env); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.Spawn(r2.Vec{}, r2.Vec{X: 1}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	s.Despawn(0)

	stepN(t, s, env, 65)
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// 0.5s windows at 60 ticks per second flush at ticks 30 and 60.
	if len(windows) != 2 {
		t.Fatalf("expected 2 stats windows, got %d", len(windows))
	}
	first, second := windows[0], windows[1]
	if first.WindowEndTick != 30 || second.WindowEndTick != 60 {
		t.Errorf("window ends = %d, %d; want 30, 60", first.WindowEndTick, second.WindowEndTick)
	}
	if first.Spawned != 1 || first.Despawned != 1 || second.Spawned != 0 {
		t.Errorf("lifecycle counts = %d/%d then %d, want 1/1 then 0", first.Spawned, first.Despawned, second.Spawned)
	}
	if last, ok := s.LastWindow(); !ok || last.WindowEndTick != 60 {
		t.Errorf("LastWindow = %+v, %v; want the tick 60 window", last, ok)
	}
	if first.Agents != 150 {
		t.Errorf("window agents = %d, want 150", first.Agents)
	}
	if first.Polarization < 0 || first.Polarization > 1 {
		t.Errorf("polarization %v out of [0, 1]", first.Polarization)
	}

	if n := countLines(t, filepath.Join(outDir, "telemetry.csv")); n != 3 {
		t.Errorf("telemetry.csv has %d lines, want header + 2", n)
	}
	if n := countLines(t, filepath.Join(outDir, "perf.csv")); n != 3 {
		t.Errorf("perf.csv has %d lines, want header + 2", n)
	}

	snaps, _ := filepath.Glob(filepath.Join(snapDir, "snapshot_*.json"))
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %v", snaps)
	}
	snap, err := telemetry.LoadSnapshot(snaps[0])
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.RunID != "run-b" || len(snap.Agents) != 150 {
		t.Errorf("snapshot run %q with %d agents", snap.RunID, len(snap.Agents))
	}

	if got := metricValue(t, reg, "flock_ticks_total"); got != 65 {
		t.Errorf("flock_ticks_total = %v, want 65", got)
	}
	if got := metricValue(t, reg, "flock_agents"); got != 150 {
		t.Errorf("flock_agents = %v, want 150", got)
	}
	if got := metricValue(t, reg, "flock_spawns_total"); got != 1 {
		t.Errorf("flock_spawns_total = %v, want 1", got)
	}
}
