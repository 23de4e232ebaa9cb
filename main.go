package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer/frames"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files (one per stats window, F5 in the viewer)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restore := flag.String("restore", "", "Resume from a snapshot file instead of spawning a new flock")
	frameDir := flag.String("frame-dir", "", "Directory for PNG frames")
	frameEvery := flag.Int64("frame-every", 0, "Write a PNG frame every N ticks (0 = only on F12)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = use config)")
	realtime := flag.Bool("realtime", false, "Pace headless ticks to wall-clock time")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per viewer frame")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// A missing .env is normal; overrides may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		slog.Error("invalid environment override", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Population.Seed = *seed
	}

	if err := run(cfg, runOptions{
		headless:       *headless,
		logStats:       *logStats,
		snapshotDir:    *snapshotDir,
		outputDir:      *outputDir,
		restore:        *restore,
		frameDir:       *frameDir,
		frameEvery:     *frameEvery,
		maxTicks:       *maxTicks,
		workers:        *workers,
		realtime:       *realtime,
		stepsPerUpdate: *stepsPerUpdate,
	}); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	headless       bool
	logStats       bool
	snapshotDir    string
	outputDir      string
	restore        string
	frameDir       string
	frameEvery     int64
	maxTicks       int64
	workers        int
	realtime       bool
	stepsPerUpdate int
}

func run(cfg *config.Config, opts runOptions) error {
	info := telemetry.NewRunInfo(cfg)

	output, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	if output != nil {
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			return err
		}
		if err := output.WriteRunInfo(info); err != nil {
			return err
		}
	}

	sim, err := game.New(cfg, game.Options{
		Workers:     opts.workers,
		Logger:      slog.Default(),
		Metrics:     telemetry.NewMetrics(prometheus.DefaultRegisterer),
		Output:      output,
		SnapshotDir: opts.snapshotDir,
		LogStats:    opts.logStats,
		RunID:       info.ID,
	})
	if err != nil {
		return err
	}
	defer sim.Close()

	env := game.Environment{
		DT:     cfg.Physics.DT,
		Width:  cfg.Derived.WorldW,
		Height: cfg.Derived.WorldH,
	}

	if opts.restore != "" {
		snap, err := telemetry.LoadSnapshot(opts.restore)
		if err != nil {
			return err
		}
		if err := sim.Restore(snap); err != nil {
			return err
		}
		env.Width, env.Height = snap.WorldWidth, snap.WorldHeight
	} else if err := sim.Init(env); err != nil {
		return err
	}

	var exporter *frames.Exporter
	if opts.frameDir != "" {
		exporter, err = frames.NewExporter(opts.frameDir, cfg.Screen.Width, cfg.Screen.Height,
			env.Width, env.Height, cfg.Derived.Wrap, opts.frameEvery)
		if err != nil {
			return err
		}
	}

	slog.Info("starting simulation",
		"run_id", info.ID,
		"seed", cfg.Population.Seed,
		"agents", sim.Count(),
		"headless", opts.headless,
		"max_ticks", opts.maxTicks,
	)

	if opts.headless {
		// Headless mode - pure CPU simulation, no raylib needed
		return runHeadless(sim, env, exporter, opts)
	}
	return runWindow(cfg, sim, env, exporter, opts)
}

// runHeadless steps until max-ticks or an interrupt.
func runHeadless(sim *game.Simulation, env game.Environment, exporter *frames.Exporter, opts runOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var limiter *rate.Limiter
	if opts.realtime {
		limiter = rate.NewLimiter(rate.Every(time.Duration(env.DT*float64(time.Second))), 1)
	}

	var agents []game.AgentState
	for opts.maxTicks <= 0 || sim.Tick() < opts.maxTicks {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		if err := sim.Step(env); err != nil {
			return err
		}

		if exporter != nil && exporter.Due(sim.Tick()) {
			agents = sim.Agents(agents)
			if _, err := exporter.Capture(sim.Tick(), agents); err != nil {
				return err
			}
		}
	}

	slog.Info("simulation stopped", "tick", sim.Tick(), "agents", sim.Count())
	sim.PerfStats().LogStats()
	return nil
}

// runWindow opens the raylib viewer.
func runWindow(cfg *config.Config, sim *game.Simulation, env game.Environment, exporter *frames.Exporter, opts runOptions) error {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flock")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	// Esc clears the selection instead of closing the window.
	rl.SetExitKey(0)

	app := viewer.New(sim, env, viewer.Options{
		Title:          "Flock",
		StepsPerUpdate: opts.stepsPerUpdate,
		SnapshotDir:    opts.snapshotDir,
		Frames:         exporter,
		Logger:         slog.Default(),
	})

	for !rl.WindowShouldClose() {
		if err := app.Update(); err != nil {
			return err
		}
		app.Draw()

		if opts.maxTicks > 0 && app.Tick() >= opts.maxTicks {
			break
		}
	}
	return nil
}
