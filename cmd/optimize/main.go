// Command optimize searches behavior weights with CMA-ES for a flock that
// settles at a target polarization and spacing.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flock/config"
)

type options struct {
	configPath string
	outputDir  string
	maxTicks   int64
	seeds      int
	maxEvals   int
	population int
	targets    Targets
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Int64Var(&opts.maxTicks, "max-ticks", 3600, "Simulation duration per run in ticks")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.Float64Var(&opts.targets.Polarization, "target-polarization", 0.8, "Target polarization in [0, 1]")
	flag.Float64Var(&opts.targets.Spacing, "target-spacing", 20, "Target median nearest-neighbor distance")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("--output is required")
	}
	if opts.targets.Spacing <= 0 {
		return errors.New("--target-spacing must be positive")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	base := config.Cfg()
	if err := base.ApplyEnv(os.LookupEnv); err != nil {
		return fmt.Errorf("environment override: %w", err)
	}

	params := NewParamVector()
	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(42 + 1000*i)
	}
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, seeds, base, opts.targets)

	rec, err := newRecorder(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer rec.close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(params.Dim())))
	}

	fmt.Printf("CMA-ES over %d parameters, population %d, up to %d evaluations\n",
		params.Dim(), popSize, opts.maxEvals)
	fmt.Printf("%d seeds x %d ticks per evaluation, target polarization %.2f, spacing %.1f\n",
		opts.seeds, opts.maxTicks, opts.targets.Polarization, opts.targets.Spacing)

	start := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			n := rec.record(values, fitness)

			elapsed := time.Since(start)
			eta := time.Duration(opts.maxEvals-n) * (elapsed / time.Duration(n))
			fmt.Printf("eval %d/%d quality=%.3f best=%.3f elapsed=%s eta=%s\n",
				n, opts.maxEvals, evaluator.LastQuality(), -rec.bestFitness,
				elapsed.Round(time.Second), eta.Round(time.Second))
			return fitness
		},
	}
	result, err := optimize.Minimize(problem,
		params.Normalize(params.ExtractFromConfig(base)),
		// Concurrent 0 evaluates one vector at a time; seeds already run in parallel.
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("optimization stopped: %v", err)
	}

	best := rec.best
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return errors.New("no evaluation completed")
	}

	fmt.Printf("\n%d evaluations in %s, best quality %.3f\n",
		rec.evals, time.Since(start).Round(time.Second), -rec.bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %-18s %.6f\n", spec.Name, best[i])
	}
	return writeResults(opts.outputDir, base, params, best, evaluator)
}

// writeResults saves best_config.yaml and the best run's stats windows.
func writeResults(dir string, base *config.Config, params *ParamVector, best []float64, fe *FitnessEvaluator) error {
	cfg := *base
	if err := params.ApplyToConfig(&cfg, best); err != nil {
		return fmt.Errorf("best parameters are invalid: %w", err)
	}
	path := filepath.Join(dir, "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	fmt.Println("best config:", path)

	windows := fe.BestWindows()
	if len(windows) == 0 {
		return nil
	}
	path = filepath.Join(dir, "best_windows.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating best windows file: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&windows, f); err != nil {
		return fmt.Errorf("writing best windows: %w", err)
	}
	fmt.Println("best run windows:", path)
	return nil
}

// recorder appends one optimize_log.csv row per evaluation and remembers
// the best vector seen. Columns follow the parameter list.
type recorder struct {
	f           *os.File
	w           *csv.Writer
	evals       int
	best        []float64
	bestFitness float64
}

func newRecorder(path string, params *ParamVector) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	rec := &recorder{f: f, w: csv.NewWriter(f), bestFitness: invalidFitness}

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := rec.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	return rec, nil
}

// record logs one evaluation and returns the evaluation count.
func (r *recorder) record(values []float64, fitness float64) int {
	r.evals++
	if fitness < r.bestFitness {
		r.bestFitness = fitness
		r.best = values
	}

	row := []string{strconv.Itoa(r.evals), strconv.FormatFloat(fitness, 'f', 6, 64)}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := r.w.Write(row); err != nil {
		log.Printf("optimize log: %v", err)
	}
	r.w.Flush()
	return r.evals
}

func (r *recorder) close() error {
	r.w.Flush()
	return errors.Join(r.w.Error(), r.f.Close())
}
