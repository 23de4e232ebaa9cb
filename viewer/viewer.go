// Package viewer is the interactive raylib front end: it steps the
// simulation once per frame, maps the mouse into the world as the pointer
// threat, and draws the flock with its overlays and panels.
package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/renderer/frames"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

// Options configures an App.
type Options struct {
	Title          string
	StepsPerUpdate int
	SnapshotDir    string           // F5 saves a snapshot here when set
	Frames         *frames.Exporter // F12 and periodic captures when set
	Logger         *slog.Logger
}

// App owns the window-side state around a simulation.
type App struct {
	sim    *game.Simulation
	cfg    config.Config
	logger *slog.Logger
	title  string

	camera *camera.Camera
	boids  *renderer.BoidRenderer

	// UI
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlsPanel
	behavior  *ui.BehaviorPanel
	inspector *ui.Inspector
	overlays  *ui.OverlayRegistry

	// Per-frame state
	agents       []game.AgentState
	env          game.Environment
	pointer      *r2.Vec       // world-space cursor, nil when off screen or over UI
	followScreen bool          // world extent tracks the window size
	screenWidth  float32
	screenHeight float32

	paused         bool
	stepsPerUpdate int
	selected       uint32
	hasSelection   bool

	snapshotDir string
	frames      *frames.Exporter
}

// New creates the viewer for an initialized simulation. It must be called
// after the raylib window exists.
func New(sim *game.Simulation, env game.Environment, opts Options) *App {
	cfg := sim.Config()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	return &App{
		sim:    sim,
		cfg:    cfg,
		logger: logger,
		title:  opts.Title,

		camera: camera.New(w, h, float32(env.Width), float32(env.Height), cfg.Derived.Wrap),
		boids:  renderer.NewBoidRenderer(),

		hud:       ui.NewHUD(),
		perfPanel: ui.NewPerfPanel(int32(w)-270, 100),
		controls:  ui.NewControlsPanel(10, 100, 200),
		behavior:  ui.NewBehaviorPanel(int32(w)-290, 10, 280, cfg.Behavior),
		inspector: ui.NewInspector(10, 300, 240),
		overlays:  ui.NewOverlayRegistry(),

		env:            env,
		followScreen:   cfg.World.Width == 0 && cfg.World.Height == 0,
		screenWidth:    w,
		screenHeight:   h,
		stepsPerUpdate: steps,
		snapshotDir:    opts.SnapshotDir,
		frames:         opts.Frames,
	}
}

// Update handles input and advances the simulation by stepsPerUpdate ticks
// unless paused.
func (a *App) Update() error {
	a.handleInput()

	if !a.paused {
		env := a.tickEnv()
		for i := 0; i < a.stepsPerUpdate; i++ {
			if err := a.sim.Step(env); err != nil {
				return err
			}
			a.captureFrame(false)
		}
	}

	a.agents = a.sim.Agents(a.agents)
	if a.hasSelection {
		if _, ok := a.sim.Agent(a.selected); !ok {
			a.hasSelection = false
		}
	}
	return nil
}

// tickEnv builds the environment for this frame's ticks.
func (a *App) tickEnv() game.Environment {
	env := a.env
	env.Pointer = nil
	if a.pointer != nil {
		p := *a.pointer
		env.Pointer = &p
	}
	return env
}

// Tick returns the number of completed simulation ticks.
func (a *App) Tick() int64 {
	return a.sim.Tick()
}

// captureFrame writes a PNG when the exporter is due or when forced.
func (a *App) captureFrame(force bool) {
	if a.frames == nil {
		return
	}
	tick := a.sim.Tick()
	if !force && !a.frames.Due(tick) {
		return
	}
	path, err := a.frames.Capture(tick, a.sim.Agents(nil))
	if err != nil {
		a.logger.Error("failed to capture frame", "error", err)
		return
	}
	if force {
		a.logger.Info("frame saved", "path", path)
	}
}

// saveSnapshot writes the current state for later -restore.
func (a *App) saveSnapshot() {
	if a.snapshotDir == "" {
		a.logger.Warn("snapshot requested but no snapshot directory is set")
		return
	}
	path, err := telemetry.SaveSnapshot(a.sim.Snapshot(nil), a.snapshotDir)
	if err != nil {
		a.logger.Error("failed to save snapshot", "error", err)
		return
	}
	a.logger.Info("snapshot saved", "path", path, "tick", a.sim.Tick())
}
