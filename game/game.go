// Package game hosts the simulation: the run loop, input, rendering and
// telemetry output around a sim.Engine.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/inspector"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/telemetry"
	"github.com/pthm-cable/slime/ui"
)

// MaxStepsPerUpdate bounds the speed control.
const MaxStepsPerUpdate = 64

// Options configures a game run.
type Options struct {
	Seed           int64
	LogStats       bool   // Log window and perf stats via slog
	OutputDir      string // CSV, config and frame output (empty = off)
	Headless       bool   // Skip all raylib resources
	StepsPerUpdate int    // Ticks per Update (0 = sim.steps_per_update)
	Logger         *slog.Logger

	// StatsCallback receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the engine and everything the host draws or writes around it.
type Game struct {
	cfg    *config.Config
	engine *sim.Engine
	logger *slog.Logger
	seed   int64
	runID  string

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	frameEvery    int32
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Rendering (nil in headless mode)
	camera    *camera.Camera
	field     *renderer.FieldRenderer
	hud       *ui.HUD
	controls  *ui.ControlPanel
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry
	inspector *inspector.Inspector

	// State
	headless       bool
	paused         bool
	stepOnce       bool
	stepsPerUpdate int
	screenWidth    float32
	screenHeight   float32
}

// NewGame builds the engine and host resources. In graphical mode the
// raylib window must already be open.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := telemetry.NewRunID()
	logger = logger.With("run_id", runID)

	steps := opts.StepsPerUpdate
	if steps <= 0 {
		steps = cfg.Sim.StepsPerUpdate
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		seed:           opts.Seed,
		runID:          runID,
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow, runID),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:      telemetry.NewBookmarkDetector(10),
		frameEvery:     int32(cfg.Telemetry.FrameEvery),
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		headless:       opts.Headless,
		stepsPerUpdate: min(max(steps, 1), MaxStepsPerUpdate),
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	engine, err := sim.New(cfg, sim.Options{
		Seed:      opts.Seed,
		Logger:    logger,
		Collector: g.collector,
		Perf:      g.perfCollector,
	})
	if err != nil {
		om.Close()
		return nil, err
	}
	g.engine = engine

	if !g.headless {
		g.initRendering()
	}

	logger.Info("game_started",
		"seed", opts.Seed,
		"width", cfg.Field.Width,
		"height", cfg.Field.Height,
		"target_agents", engine.TargetAgents(),
		"steps_per_update", g.stepsPerUpdate,
		"headless", g.headless,
		"output_dir", om.Dir(),
	)
	return g, nil
}

func (g *Game) initRendering() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	wrap := g.cfg.Modes.Boundary == config.BoundaryPeriodic
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(g.cfg.Field.Width), float32(g.cfg.Field.Height), wrap)
	g.field = renderer.NewFieldRenderer(float32(g.cfg.Screen.Gain), wrap)
	g.field.Init(g.cfg.Field.Width, g.cfg.Field.Height)

	g.hud = ui.NewHUD()
	g.overlays = ui.NewOverlayRegistry()
	g.controls = ui.NewControlPanel(10, 100, 300, max(4*g.engine.TargetAgents(), g.cfg.Derived.Cells/4))
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-260, int32(g.screenHeight)-200, 250)
	g.inspector = inspector.NewInspector(int32(g.screenWidth), int32(g.screenHeight))
}

// Engine returns the simulation engine.
func (g *Game) Engine() *sim.Engine { return g.engine }

// Tick returns the engine tick count.
func (g *Game) Tick() int32 { return g.engine.TickCount() }

// RunID returns the identifier written to telemetry rows.
func (g *Game) RunID() string { return g.runID }

// Unload releases engine, GPU and output resources.
func (g *Game) Unload() {
	if g.field != nil {
		g.field.Unload()
	}
	g.engine.Close()
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("closing output", "error", err)
	}
}
