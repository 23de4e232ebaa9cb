// Package telemetry provides flock statistics, bookmarking, snapshots and
// run output.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/systems"
)

// FlockStats describes the flock's shape at one instant.
type FlockStats struct {
	Agents int

	// Polarization is |mean unit velocity|: 1 when every agent heads the
	// same way, near 0 when headings cancel out.
	Polarization float64

	SpeedMean float64
	SpeedStd  float64

	// Nearest-neighbor distance distribution.
	NNMean float64
	NNP10  float64
	NNP50  float64
	NNP90  float64

	// HeadingMean is the circular mean travel direction in radians.
	HeadingMean float64
}

// ComputeFlockStats summarizes positions and velocities. Distances follow
// topo, so agents on either side of a wrap seam count as close.
func ComputeFlockStats(pos, vel []r2.Vec, topo systems.Topology) FlockStats {
	n := len(pos)
	s := FlockStats{Agents: n}
	if n == 0 {
		return s
	}

	speeds := make([]float64, n)
	angles := make([]float64, 0, n)
	var dirSum r2.Vec
	for i, v := range vel {
		speed := r2.Norm(v)
		speeds[i] = speed
		if speed > systems.HeadingEpsilon {
			dirSum = r2.Add(dirSum, r2.Scale(1/speed, v))
			angles = append(angles, math.Atan2(v.Y, v.X))
		}
	}

	if len(angles) > 0 {
		s.Polarization = r2.Norm(dirSum) / float64(len(angles))
		s.HeadingMean = stat.CircularMean(angles, nil)
	}

	if n > 1 {
		s.SpeedMean, s.SpeedStd = stat.MeanStdDev(speeds, nil)
	} else {
		s.SpeedMean = speeds[0]
	}

	if n > 1 {
		nn := nearestNeighborDistances(pos, topo)
		sort.Float64s(nn)
		s.NNMean = stat.Mean(nn, nil)
		s.NNP10 = stat.Quantile(0.10, stat.Empirical, nn, nil)
		s.NNP50 = stat.Quantile(0.50, stat.Empirical, nn, nil)
		s.NNP90 = stat.Quantile(0.90, stat.Empirical, nn, nil)
	}

	return s
}

// nearestNeighborDistances is the all-pairs minimum; it runs once per stats
// window, not per tick.
func nearestNeighborDistances(pos []r2.Vec, topo systems.Topology) []float64 {
	out := make([]float64, len(pos))
	for i := range pos {
		best := math.Inf(1)
		for j := range pos {
			if i == j {
				continue
			}
			if d := r2.Norm2(topo.Delta(pos[i], pos[j])); d < best {
				best = d
			}
		}
		out[i] = math.Sqrt(best)
	}
	return out
}

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end and churn during the window
	Agents    int `csv:"agents"`
	Spawned   int `csv:"spawned"`
	Despawned int `csv:"despawned"`

	// Flock shape sampled at window end
	Polarization float64 `csv:"polarization"`
	SpeedMean    float64 `csv:"speed_mean"`
	SpeedStd     float64 `csv:"speed_std"`
	NNMean       float64 `csv:"nn_mean"`
	NNP10        float64 `csv:"nn_p10"`
	NNP50        float64 `csv:"nn_p50"`
	NNP90        float64 `csv:"nn_p90"`
	HeadingMean  float64 `csv:"heading_mean"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("spawned", s.Spawned),
		slog.Int("despawned", s.Despawned),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("nn_mean", s.NNMean),
		slog.Float64("nn_p10", s.NNP10),
		slog.Float64("nn_p50", s.NNP50),
		slog.Float64("nn_p90", s.NNP90),
		slog.Float64("heading_mean", s.HeadingMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"polarization", s.Polarization,
		"speed_mean", s.SpeedMean,
		"nn_p50", s.NNP50,
	)
}
