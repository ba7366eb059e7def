package sim

import (
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

const eps = 1e-5

func testConfig(t *testing.T, w, h int, edit func(cfg *config.Config)) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Field.Width = w
	cfg.Field.Height = h
	cfg.Field.Workers = 1
	cfg.Agents.Count = 0
	if edit != nil {
		edit(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	e, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// singleAgent places one agent at (x, y) heading along angle.
func singleAgent(x, y float32) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		cfg.Spawn.Mode = config.SpawnPoints
		cfg.Spawn.Points = []config.SpawnPointConfig{{X: float64(x), Y: float64(y), Agents: 1}}
	}
}

func setHeading(t *testing.T, e *Engine, slot int, angle float32) {
	t.Helper()
	_, head, _, ok := e.AgentComponents(slot)
	if !ok {
		t.Fatalf("no agent in slot %d", slot)
	}
	head.Angle = angle
}

func TestSingleAgentFirstTick(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		singleAgent(5, 5)(cfg)
		cfg.Field.DecayFactor = 0.5
		cfg.Agents.StepSize = 1
		cfg.Agents.DepositionAmount = 5
	})
	e := newTestEngine(t, cfg, Options{Seed: 1})
	setHeading(t, e, 0, 0)

	counts := e.StepAgents()
	if counts.Moved != 1 {
		t.Fatalf("counts = %+v, want one move", counts)
	}
	a := e.Agents()[0]
	if math.Abs(float64(a.X-6)) > eps || math.Abs(float64(a.Y-5)) > eps {
		t.Errorf("position = (%v, %v), want (6, 5)", a.X, a.Y)
	}
	f := e.Field()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := float32(0)
			if x == 6 && y == 5 {
				want = 5
			}
			if got := f.Dep[y*10+x]; got != want {
				t.Fatalf("deposition(%d,%d) = %v before the field pass, want %v", x, y, got, want)
			}
		}
	}

	// Field pass only.
	f.Step()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := float32(0)
			if x >= 5 && x <= 7 && y >= 4 && y <= 6 {
				want = 2.5 / 9
			}
			if got := f.Dep[y*10+x]; math.Abs(float64(got-want)) > eps {
				t.Errorf("deposition(%d,%d) = %v after the field pass, want %v", x, y, got, want)
			}
		}
	}
}

func TestTickRunsFieldPass(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		singleAgent(5, 5)(cfg)
		cfg.Field.DecayFactor = 0.5
		cfg.Agents.DepositionAmount = 5
	})
	e := newTestEngine(t, cfg, Options{Seed: 1})
	setHeading(t, e, 0, 0)

	e.Tick()
	if e.TickCount() != 1 {
		t.Errorf("TickCount = %d, want 1", e.TickCount())
	}
	if got := e.Field().TotalDeposition(); math.Abs(float64(got-2.5)) > eps {
		t.Errorf("total deposition = %v, want 2.5", got)
	}
	if got := e.Field().Dep[5*10+6]; math.Abs(float64(got-2.5/9)) > eps {
		t.Errorf("deposition(6,5) = %v, want %v", got, 2.5/9)
	}
}

func TestReflectiveBoundary(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		singleAgent(9.5, 5)(cfg)
		cfg.Modes.Boundary = config.BoundaryReflective
	})
	e := newTestEngine(t, cfg, Options{Seed: 1})
	setHeading(t, e, 0, 0)

	counts := e.StepAgents()
	if counts.Boundary != 1 {
		t.Fatalf("counts = %+v, want one boundary rejection", counts)
	}
	a := e.Agents()[0]
	if a.X != 9.5 || a.Y != 5 {
		t.Errorf("position = (%v, %v), want unchanged (9.5, 5)", a.X, a.Y)
	}
	if math.Abs(float64(a.Heading)-math.Pi) > eps {
		t.Errorf("heading = %v, want pi (toward the center)", a.Heading)
	}
	if a.Blocked != 1 {
		t.Errorf("Blocked = %d, want 1", a.Blocked)
	}
	if e.Field().TotalDeposition() != 0 {
		t.Errorf("rejected move deposited %v", e.Field().TotalDeposition())
	}
}

func TestObstacleRejection(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		singleAgent(5.5, 5.5)(cfg)
		cfg.Obstacles = []config.ObstacleConfig{{X: 6, Y: 0, Width: 2, Height: 10, Color: [3]float64{1, 0, 0}}}
	})
	e := newTestEngine(t, cfg, Options{Seed: 1})
	setHeading(t, e, 0, 0)

	counts := e.StepAgents()
	if counts.Obstacle != 1 {
		t.Fatalf("counts = %+v, want one obstacle rejection", counts)
	}
	a := e.Agents()[0]
	if a.X != 5.5 || a.Y != 5.5 {
		t.Errorf("position = (%v, %v), want unchanged", a.X, a.Y)
	}

	// Obstacle cells keep their paint color through field passes.
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	f := e.Field()
	for y := 0; y < 10; y++ {
		for x := 6; x < 8; x++ {
			if got := f.Dep[y*10+x]; got != 1 {
				t.Fatalf("obstacle cell (%d,%d) deposition = %v, want 1", x, y, got)
			}
		}
	}
}

func TestOccupancyUnique(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		cfg.Agents.Count = 60
		cfg.Modes.Collision = config.CollisionOnePerCell
	})
	e := newTestEngine(t, cfg, Options{Seed: 7})

	for tick := 0; tick < 50; tick++ {
		e.Tick()

		seen := make(map[[2]int]int32)
		for _, a := range e.Agents() {
			cell := [2]int{int(math.Floor(float64(a.X))), int(math.Floor(float64(a.Y)))}
			if other, dup := seen[cell]; dup {
				t.Fatalf("tick %d: agents %d and %d share cell %v", tick, other, a.Slot, cell)
			}
			seen[cell] = a.Slot
			if occ, ok := e.Occupancy().Occupant(cell[0], cell[1]); !ok || occ != a.Slot {
				t.Fatalf("tick %d: occupancy at %v = %d/%v, want %d", tick, cell, occ, ok, a.Slot)
			}
		}
		if e.Occupancy().Count() != 60 {
			t.Fatalf("tick %d: occupancy count = %d, want 60", tick, e.Occupancy().Count())
		}
	}
}

func setPosition(t *testing.T, e *Engine, slot int, x, y float32) {
	t.Helper()
	pos, _, _, ok := e.AgentComponents(slot)
	if !ok {
		t.Fatalf("no agent in slot %d", slot)
	}
	pos.X, pos.Y = x, y
}

func TestSameTickCoupling(t *testing.T) {
	t.Run("occupancy", func(t *testing.T) {
		cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
			cfg.Modes.Collision = config.CollisionOnePerCell
			cfg.Agents.SensorDistance = 0
			cfg.Agents.StepSize = 1
			cfg.Spawn.Mode = config.SpawnPoints
			cfg.Spawn.Points = []config.SpawnPointConfig{
				{X: 5.5, Y: 5.5, Agents: 1},
				{X: 7.5, Y: 5.5, Agents: 1},
			}
		})
		e := newTestEngine(t, cfg, Options{Seed: 1})

		// Both agents head for cell (6, 5).
		for slot, a := range e.Agents() {
			angle := float32(0)
			if a.X > 6 {
				angle = math.Pi
			}
			setHeading(t, e, slot, angle)
		}

		counts := e.StepAgents()
		if counts.Moved != 1 || counts.Occupied != 1 {
			t.Fatalf("counts = %+v, want one move and one occupancy rejection", counts)
		}
		agents := e.Agents()
		if got := int(math.Floor(float64(agents[0].X))); got != 6 {
			t.Errorf("first agent in cell x = %d, want 6", got)
		}
		if agents[1].Blocked != 1 {
			t.Errorf("second agent blocked = %d, want 1", agents[1].Blocked)
		}
		if occ, ok := e.Occupancy().Occupant(6, 5); !ok || occ != 0 {
			t.Errorf("occupant of (6,5) = %d/%v, want slot 0", occ, ok)
		}
	})

	t.Run("deposition", func(t *testing.T) {
		cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
			cfg.Agents.Count = 2
			cfg.Agents.SensorDistance = 1
			cfg.Agents.SensorAngle = math.Pi / 2
			cfg.Agents.RotationAngle = math.Pi / 4
			cfg.Agents.StepSize = 1
			cfg.Agents.DepositionAmount = 5
		})
		e := newTestEngine(t, cfg, Options{Seed: 1})

		// The first agent deposits into (6, 5); the second agent's left
		// sensor reads that cell in the same pass.
		setPosition(t, e, 0, 5.5, 5.5)
		setHeading(t, e, 0, 0)
		setPosition(t, e, 1, 6.5, 4.5)
		setHeading(t, e, 1, 0)

		e.StepAgents()
		if got := e.Field().Dep[5*10+6]; got < 5 {
			t.Fatalf("deposition(6,5) = %v, want >= 5", got)
		}
		_, head, _, _ := e.AgentComponents(1)
		if math.Abs(float64(head.Angle)-math.Pi/4) > eps {
			t.Errorf("second agent heading = %v, want a left turn to %v", head.Angle, math.Pi/4)
		}
	})
}

func TestSpawnSaturation(t *testing.T) {
	cfg := testConfig(t, 4, 4, func(cfg *config.Config) {
		cfg.Agents.Count = 20
		cfg.Modes.Collision = config.CollisionOnePerCell
	})
	_, err := New(cfg, Options{Seed: 1, Logger: slog.New(slog.DiscardHandler)})
	if !errors.Is(err, systems.ErrSpawnSaturated) {
		t.Fatalf("New error = %v, want ErrSpawnSaturated", err)
	}

	// Paced growth stops at saturation without failing the run.
	cfg.Spawn.AgentsPerTick = 8
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	collector := telemetry.NewCollector(10, "run")
	e := newTestEngine(t, cfg, Options{Seed: 1, Collector: collector})
	for i := 0; i < 4; i++ {
		if _, err := e.Advance(); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}
	if e.Population() != 16 {
		t.Errorf("Population = %d, want 16", e.Population())
	}
	stats := collector.Flush(e.TickCount(), e.Sample())
	if stats.Spawned != 16 || stats.SpawnFailures != 1 {
		t.Errorf("spawned/failures = %d/%d, want 16/1", stats.Spawned, stats.SpawnFailures)
	}
	if !e.Saturated() {
		t.Error("Saturated = false after running out of cells")
	}

	// Saturated engines stop attempting paced batches.
	for i := 0; i < 3; i++ {
		if _, err := e.Advance(); err != nil {
			t.Fatalf("Advance after saturation: %v", err)
		}
	}
	stats = collector.Flush(e.TickCount(), e.Sample())
	if stats.SpawnFailures != 0 || stats.Spawned != 0 {
		t.Errorf("spawned/failures after saturation = %d/%d, want 0/0", stats.Spawned, stats.SpawnFailures)
	}

	// A population reset clears the condition.
	if err := e.SetTargetAgents(10); err != nil {
		t.Fatalf("SetTargetAgents: %v", err)
	}
	if e.Saturated() {
		t.Error("Saturated = true after population reset")
	}
	if _, err := e.Advance(); err != nil {
		t.Fatalf("Advance after reset: %v", err)
	}
	if e.Population() != 8 {
		t.Errorf("Population after reset and one Advance = %d, want 8", e.Population())
	}
}

func TestPacedGrowth(t *testing.T) {
	cfg := testConfig(t, 20, 20, func(cfg *config.Config) {
		cfg.Agents.Count = 20
		cfg.Spawn.AgentsPerTick = 6
	})
	e := newTestEngine(t, cfg, Options{Seed: 3})

	if e.Population() != 0 {
		t.Fatalf("Population = %d before the first Advance, want 0", e.Population())
	}
	want := []int{6, 12, 18, 20, 20}
	for i, w := range want {
		if _, err := e.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if e.Population() != w {
			t.Errorf("after Advance %d: Population = %d, want %d", i+1, e.Population(), w)
		}
	}

	// Slots follow spawn order.
	for i, a := range e.Agents() {
		if int(a.Slot) != i {
			t.Fatalf("agent %d has slot %d", i, a.Slot)
		}
	}
}

func TestDeterministicForSeed(t *testing.T) {
	run := func(workers int) ([]AgentState, []float32) {
		cfg := testConfig(t, 80, 80, func(cfg *config.Config) {
			cfg.Agents.Count = 400
			cfg.Field.Workers = workers
		})
		e := newTestEngine(t, cfg, Options{Seed: 42})
		for i := 0; i < 25; i++ {
			e.Tick()
		}
		return e.Agents(), append([]float32(nil), e.Field().Dep...)
	}

	agentsA, depA := run(1)
	agentsB, depB := run(4)
	for i := range agentsA {
		if agentsA[i] != agentsB[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, agentsA[i], agentsB[i])
		}
	}
	for i := range depA {
		if depA[i] != depB[i] {
			t.Fatalf("deposition[%d] differs: %v vs %v", i, depA[i], depB[i])
		}
	}
}

func TestPrePatternRebuildOnCardinalityChange(t *testing.T) {
	cfg := testConfig(t, 12, 12, func(cfg *config.Config) {
		cfg.Modes.Stimulus = config.StimulusPrePattern
		cfg.Stimulus.PrePatternWeight = 0.1
		cfg.Stimulus.Points = []config.StimulusPointConfig{{X: 3, Y: 3, Intensity: 10}}
	})
	collector := telemetry.NewCollector(100, "run")
	e := newTestEngine(t, cfg, Options{Seed: 1, Collector: collector})
	f := e.Field()

	if got := f.Pre[3*12+3]; math.Abs(float64(got-1)) > eps {
		t.Fatalf("pre(3,3) after New = %v, want 1", got)
	}

	e.Tick()
	if got := f.Pre[3*12+3]; math.Abs(float64(got-1)) > eps {
		t.Errorf("pre(3,3) after Tick = %v, want center re-asserted to 1", got)
	}

	if err := e.AddStimulus(systems.Stimulus{X: 8, Y: 8, Intensity: 20}); err != nil {
		t.Fatalf("AddStimulus: %v", err)
	}
	e.Tick()
	if got := f.Pre[8*12+8]; math.Abs(float64(got-2)) > eps {
		t.Errorf("pre(8,8) = %v, want 2", got)
	}
	if got := f.Pre[3*12+3]; math.Abs(float64(got-1)) > eps {
		t.Errorf("pre(3,3) = %v, want 1", got)
	}

	if err := e.SetStimulusIntensity(0, 30); err != nil {
		t.Fatalf("SetStimulusIntensity: %v", err)
	}
	if got := f.Pre[3*12+3]; math.Abs(float64(got-3)) > eps {
		t.Errorf("pre(3,3) after SetStimulusIntensity = %v, want 3", got)
	}
	if err := e.SetStimulusIntensity(5, 1); !errors.Is(err, systems.ErrStimulusIndex) {
		t.Errorf("SetStimulusIntensity(5) error = %v, want ErrStimulusIndex", err)
	}

	stats := collector.Flush(e.TickCount(), e.Sample())
	if stats.Rebuilds != 2 {
		t.Errorf("Rebuilds = %d, want 2 (cardinality change and intensity change)", stats.Rebuilds)
	}
}

func TestAddStimulusOutsideField(t *testing.T) {
	e := newTestEngine(t, testConfig(t, 8, 8, nil), Options{})
	if err := e.AddStimulus(systems.Stimulus{X: 8, Y: 0, Intensity: 1}); err == nil {
		t.Error("AddStimulus outside the field succeeded")
	}
	if err := e.RemoveStimulus(0); !errors.Is(err, systems.ErrStimulusIndex) {
		t.Errorf("RemoveStimulus on empty list error = %v, want ErrStimulusIndex", err)
	}
}

func TestSetTargetAgentsResets(t *testing.T) {
	cfg := testConfig(t, 30, 30, func(cfg *config.Config) {
		cfg.Agents.Count = 10
		cfg.Modes.Collision = config.CollisionOnePerCell
	})
	e := newTestEngine(t, cfg, Options{Seed: 5})
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	if e.Field().TotalDeposition() == 0 {
		t.Fatal("expected deposits after five ticks")
	}

	if err := e.SetTargetAgents(25); err != nil {
		t.Fatalf("SetTargetAgents: %v", err)
	}
	if e.Population() != 25 || e.TargetAgents() != 25 {
		t.Errorf("population/target = %d/%d, want 25/25", e.Population(), e.TargetAgents())
	}
	if e.Occupancy().Count() != 25 {
		t.Errorf("occupancy count = %d, want 25", e.Occupancy().Count())
	}
	if e.Field().TotalDeposition() != 0 {
		t.Errorf("field not reset: total deposition %v", e.Field().TotalDeposition())
	}
	if e.Tunables().TargetAgents != 25 {
		t.Errorf("Tunables().TargetAgents = %d, want 25", e.Tunables().TargetAgents)
	}
	if err := e.SetTargetAgents(-1); !errors.Is(err, ErrInvalidTunables) {
		t.Errorf("SetTargetAgents(-1) error = %v, want ErrInvalidTunables", err)
	}
}

func TestSetTunables(t *testing.T) {
	cfg := testConfig(t, 20, 20, func(cfg *config.Config) { cfg.Agents.Count = 5 })
	e := newTestEngine(t, cfg, Options{Seed: 1})

	tun := e.Tunables()
	tun.DecayFactor = 0.8
	tun.StepSize = 2
	tun.SensorDistance = 3
	if err := e.SetTunables(tun); err != nil {
		t.Fatalf("SetTunables: %v", err)
	}
	if got := e.Field().Decay(); got != 0.8 {
		t.Errorf("field decay = %v, want 0.8", got)
	}
	if e.Population() != 5 {
		t.Errorf("unchanged target reset the population: %d agents", e.Population())
	}

	bad := tun
	bad.DecayFactor = 1
	bad.StepSize = 0
	err := e.SetTunables(bad)
	if !errors.Is(err, ErrInvalidTunables) {
		t.Fatalf("SetTunables(bad) error = %v, want ErrInvalidTunables", err)
	}
	if e.Tunables() != tun {
		t.Errorf("rejected tunables were applied: %+v", e.Tunables())
	}

	tun.TargetAgents = 9
	if err := e.SetTunables(tun); err != nil {
		t.Fatalf("SetTunables(target 9): %v", err)
	}
	if e.Population() != 9 {
		t.Errorf("Population = %d, want 9", e.Population())
	}
}

func TestSampleSkipsObstacles(t *testing.T) {
	cfg := testConfig(t, 10, 10, func(cfg *config.Config) {
		cfg.Agents.Count = 4
		cfg.Obstacles = []config.ObstacleConfig{{X: 0, Y: 0, Width: 10, Height: 2, Color: [3]float64{0.5, 0, 0}}}
	})
	e := newTestEngine(t, cfg, Options{Seed: 2})

	s := e.Sample()
	if len(s.Deposition) != 80 {
		t.Errorf("sampled %d cells, want 80 non-obstacle cells", len(s.Deposition))
	}
	if len(s.Headings) != 4 || s.Agents != 4 {
		t.Errorf("sample agents/headings = %d/%d, want 4/4", s.Agents, len(s.Headings))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Field.Width = 0
	if _, err := New(cfg, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New error = %v, want config.ErrInvalid", err)
	}
}

func BenchmarkTick(b *testing.B) {
	cfg := config.Default()
	cfg.Agents.Count = 6000
	if err := cfg.Finalize(); err != nil {
		b.Fatal(err)
	}
	e, err := New(cfg, Options{Seed: 1, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Tick()
	}
}
