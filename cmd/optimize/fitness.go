package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// Targets is the flock shape the optimizer steers toward.
type Targets struct {
	Polarization float64 // |mean unit velocity| in [0, 1]
	Spacing      float64 // median nearest-neighbor distance in world units
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	baseConfig config.Config
	targets    Targets

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. baseCfg is copied.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  *baseCfg,
		targets:     targets,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the stats windows of the best evaluation's best seed.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// invalidFitness is returned for parameter vectors the config rejects or
// runs that fail, worse than any quality-based score.
const invalidFitness = 1.0

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	quality float64
	windows []telemetry.WindowStats
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative quality averaged over seeds, so it lies in [-1, 0]
// for valid runs.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		slog.Debug("parameters rejected", "error", err)
		return invalidFitness
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(cfg, s)
			results[idx] = seedResult{
				quality: fe.computeQuality(windows),
				windows: windows,
				err:     err,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalQuality float64
	bestSeed := -1
	for i, r := range results {
		if r.err != nil {
			slog.Warn("evaluation run failed", "seed", fe.seeds[i], "error", r.err)
			return invalidFitness
		}
		totalQuality += r.quality
		if bestSeed < 0 || r.quality > results[bestSeed].quality {
			bestSeed = i
		}
	}

	n := float64(len(fe.seeds))
	avgQuality := totalQuality / n
	fitness := -avgQuality

	// Update best tracking
	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		if bestSeed >= 0 {
			fe.bestWindows = results[bestSeed].windows
		}
	}
	fe.lastQuality = avgQuality
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless simulation run and returns the
// stats windows it produced.
func (fe *FitnessEvaluator) runSimulation(cfg config.Config, seed int64) ([]telemetry.WindowStats, error) {
	cfg.Population.Seed = seed

	var windows []telemetry.WindowStats
	sim, err := game.New(&cfg, game.Options{
		// Seeds already run in parallel.
		Workers: 1,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	env := game.Environment{
		DT:     cfg.Physics.DT,
		Width:  cfg.Derived.WorldW,
		Height: cfg.Derived.WorldH,
	}
	if err := sim.Init(env); err != nil {
		return nil, err
	}
	for sim.Tick() < fe.maxTicks {
		if err := sim.Step(env); err != nil {
			return windows, err
		}
	}
	return windows, nil
}

// Quality component weights.
const (
	qualityWeightPolarization = 0.5
	qualityWeightSpacing      = 0.3
	qualityWeightStability    = 0.2

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores how closely the windows match the targets, in
// [0, 1]. Polarization is scored on its absolute error, spacing on its log
// ratio so that too tight and too loose are penalized alike.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var polSum, spaceSum float64
	var count int
	spacings := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Agents < 2 || !(w.NNP50 > 0) {
			continue
		}
		polErr := (w.Polarization - fe.targets.Polarization) / 0.2
		polSum += math.Exp(-polErr * polErr)

		logErr := math.Log(w.NNP50 / fe.targets.Spacing)
		spaceSum += math.Exp(-logErr * logErr / 0.25)

		spacings = append(spacings, w.NNP50)
		count++
	}
	if count == 0 {
		return 0
	}

	// Stability (CV of spacing across windows)
	stabilityScore := 0.0
	if len(spacings) >= 2 {
		c := cv(spacings)
		stabilityScore = math.Exp(-c * c / 0.1)
	}

	quality := qualityWeightPolarization*polSum/float64(count) +
		qualityWeightSpacing*spaceSum/float64(count) +
		qualityWeightStability*stabilityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
