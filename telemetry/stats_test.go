package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/systems"
)

func TestComputeFlockStats_Polarization(t *testing.T) {
	tests := []struct {
		name string
		vel  []r2.Vec
		want float64
	}{
		{"aligned", []r2.Vec{{X: 1}, {X: 2}, {X: 3}}, 1},
		{"opposed", []r2.Vec{{X: 1}, {X: -1}}, 0},
		{"perpendicular", []r2.Vec{{X: 1}, {Y: 1}}, math.Sqrt2 / 2},
		{"stationary ignored", []r2.Vec{{X: 5}, {}}, 1},
		{"all stationary", []r2.Vec{{}, {}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := make([]r2.Vec, len(tt.vel))
			for i := range pos {
				pos[i] = r2.Vec{X: float64(i) * 10}
			}
			s := ComputeFlockStats(pos, tt.vel, systems.Topology{})
			if math.Abs(s.Polarization-tt.want) > 1e-9 {
				t.Errorf("polarization = %v, want %v", s.Polarization, tt.want)
			}
		})
	}
}

func TestComputeFlockStats_Speed(t *testing.T) {
	pos := []r2.Vec{{X: 0}, {X: 10}, {X: 20}, {X: 30}}
	vel := []r2.Vec{{X: 2}, {X: 4}, {X: 4}, {X: 6}}
	s := ComputeFlockStats(pos, vel, systems.Topology{})

	if s.SpeedMean != 4 {
		t.Errorf("speed mean = %v, want 4", s.SpeedMean)
	}
	// Sample standard deviation of {2,4,4,6}
	if want := math.Sqrt(8.0 / 3); math.Abs(s.SpeedStd-want) > 1e-9 {
		t.Errorf("speed std = %v, want %v", s.SpeedStd, want)
	}
	if math.Abs(s.HeadingMean) > 1e-9 {
		t.Errorf("heading mean = %v, want 0", s.HeadingMean)
	}
}

func TestComputeFlockStats_NearestNeighbor(t *testing.T) {
	// 3x3 lattice with spacing 10: every agent's nearest neighbor is 10 away.
	var pos, vel []r2.Vec
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			pos = append(pos, r2.Vec{X: float64(x) * 10, Y: float64(y) * 10})
			vel = append(vel, r2.Vec{Y: 1})
		}
	}
	s := ComputeFlockStats(pos, vel, systems.Topology{})

	for name, got := range map[string]float64{
		"mean": s.NNMean, "p10": s.NNP10, "p50": s.NNP50, "p90": s.NNP90,
	} {
		if math.Abs(got-10) > 1e-9 {
			t.Errorf("nn %s = %v, want 10", name, got)
		}
	}
	if s.Agents != 9 {
		t.Errorf("agents = %d, want 9", s.Agents)
	}
}

func TestComputeFlockStats_NearestNeighborAcrossSeam(t *testing.T) {
	pos := []r2.Vec{{X: -48}, {X: 48}}
	vel := []r2.Vec{{X: 1}, {X: 1}}

	wrapped := ComputeFlockStats(pos, vel, systems.Topology{Width: 100, Height: 100, Wrap: true})
	if math.Abs(wrapped.NNP50-4) > 1e-9 {
		t.Errorf("wrapped nn = %v, want 4", wrapped.NNP50)
	}

	flat := ComputeFlockStats(pos, vel, systems.Topology{Width: 100, Height: 100})
	if math.Abs(flat.NNP50-96) > 1e-9 {
		t.Errorf("unwrapped nn = %v, want 96", flat.NNP50)
	}
}

func TestComputeFlockStats_Degenerate(t *testing.T) {
	empty := ComputeFlockStats(nil, nil, systems.Topology{})
	if empty != (FlockStats{}) {
		t.Errorf("empty stats = %+v, want zero", empty)
	}

	single := ComputeFlockStats([]r2.Vec{{}}, []r2.Vec{{X: 3, Y: 4}}, systems.Topology{})
	if single.SpeedMean != 5 || single.SpeedStd != 0 {
		t.Errorf("single speed = %v±%v, want 5±0", single.SpeedMean, single.SpeedStd)
	}
	if single.NNMean != 0 || math.IsNaN(single.NNP50) {
		t.Errorf("single nn = %v/%v, want 0", single.NNMean, single.NNP50)
	}
}

func TestCollector_Windowing(t *testing.T) {
	c := NewCollector(1.0)
	c.RecordSpawn()
	c.RecordSpawn()
	c.RecordDespawn()

	// Ten ticks of 0.1s sum to slightly under 1.0.
	var simTime float64
	for tick := int64(1); tick <= 9; tick++ {
		simTime += 0.1
		if c.ShouldFlush(tick, simTime) {
			t.Fatalf("flushed early at tick %d (t=%v)", tick, simTime)
		}
	}
	simTime += 0.1
	if !c.ShouldFlush(10, simTime) {
		t.Fatalf("should flush at the window boundary (t=%v)", simTime)
	}

	ws := c.Flush(10, simTime, FlockStats{Agents: 7, Polarization: 0.5})
	if ws.WindowStartTick != 0 || ws.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", ws.WindowStartTick, ws.WindowEndTick)
	}
	if ws.Spawned != 2 || ws.Despawned != 1 || ws.Agents != 7 || ws.Polarization != 0.5 {
		t.Errorf("window stats = %+v", ws)
	}

	if c.ShouldFlush(15, simTime+0.5) {
		t.Error("window should restart at the flush time")
	}
	next := c.Flush(20, simTime+1, FlockStats{})
	if next.Spawned != 0 || next.Despawned != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollector_WindowFollowsSimTime(t *testing.T) {
	tests := []struct {
		name      string
		dt        float64
		wantTicks int64
	}{
		{"60Hz", 1.0 / 60, 30},
		{"30Hz", 1.0 / 30, 15},
		{"coarse", 0.25, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(0.5)
			var simTime float64
			for tick := int64(1); tick <= 1000; tick++ {
				simTime += tt.dt
				if c.ShouldFlush(tick, simTime) {
					if tick != tt.wantTicks {
						t.Errorf("first flush at tick %d, want %d", tick, tt.wantTicks)
					}
					return
				}
			}
			t.Fatal("never flushed")
		})
	}
}

func TestCollector_ZeroWindowFlushesEveryTick(t *testing.T) {
	c := NewCollector(0)
	if c.ShouldFlush(0, 0) {
		t.Error("no tick has passed yet")
	}
	if !c.ShouldFlush(1, 0.1) {
		t.Error("zero-length window should flush after one tick")
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector(1.0)
	c.RecordSpawn()
	c.Reset(500, 50)

	if c.ShouldFlush(505, 50.5) {
		t.Error("window should restart at the reset time")
	}
	if !c.ShouldFlush(510, 51) {
		t.Error("window should end one second after the reset")
	}
	if ws := c.Flush(510, 51, FlockStats{}); ws.Spawned != 0 || ws.WindowStartTick != 500 {
		t.Errorf("after reset = %+v", ws)
	}
}
