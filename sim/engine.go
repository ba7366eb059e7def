// Package sim wires the field, agents and stimuli into a steppable engine.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// ErrInvalidTunables is returned by SetTunables for out-of-range values.
var ErrInvalidTunables = errors.New("invalid tunables")

// Options configures an Engine beyond its Config.
type Options struct {
	Seed      int64 // RNG seed; the caller resolves time-based seeds
	Logger    *slog.Logger
	Collector *telemetry.Collector     // nil disables window counters
	Perf      *telemetry.PerfCollector // nil disables phase timing
}

// StepCounts tallies one agent pass by outcome.
type StepCounts struct {
	Moved    int
	Boundary int
	Obstacle int
	Occupied int
}

// Blocked returns the number of rejected moves.
func (c StepCounts) Blocked() int { return c.Boundary + c.Obstacle + c.Occupied }

func (c *StepCounts) add(o systems.Outcome) {
	switch o {
	case systems.Moved:
		c.Moved++
	case systems.BlockedBoundary:
		c.Boundary++
	case systems.BlockedObstacle:
		c.Obstacle++
	case systems.BlockedOccupied:
		c.Occupied++
	}
}

// AgentState is a read-only copy of one agent.
type AgentState struct {
	Slot    int32
	Region  int32
	X, Y    float32
	Heading float32
	Blocked uint32
}

// Tunables are the parameters a host may change while running.
type Tunables struct {
	SensorDistance   float32
	SensorAngle      float32
	StepSize         float32
	RotationAngle    float32
	DepositionAmount float32
	DecayFactor      float32
	TargetAgents     int
}

type marker struct {
	x, y  int
	color systems.Color
}

// Engine owns the simulation state and advances it one tick at a time.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	rng    *rand.Rand

	world        *ecs.World
	agentMap     *ecs.Map3[components.Position, components.Heading, components.Agent]
	headingQuery *ecs.Filter2[components.Heading, components.Agent]
	agents       []ecs.Entity // spawn order

	field     *systems.TrailField
	mask      *systems.ObstacleMask
	occupancy *systems.OccupancyIndex // nil without one-agent-per-cell
	overlay   *systems.StimulusOverlay
	spawner   *systems.SpawnScheduler
	stepper   *systems.Stepper

	tunables Tunables
	markers  []marker

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector

	tick      int32
	saturated bool // spawn_saturated logged for the current population
}

// New builds an engine from a validated config. With spawn.agents_per_tick
// at zero the whole population is placed before New returns.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("sim: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, h := cfg.Field.Width, cfg.Field.Height
	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		collector: opts.Collector,
		perf:      opts.Perf,
	}
	e.perf.SetCells(w * h)

	e.mask = systems.NewObstacleMask(w, h, obstaclesFromConfig(cfg.Obstacles))
	e.field = systems.NewTrailField(w, h, float32(cfg.Field.DecayFactor), e.mask)
	e.field.SetWorkers(cfg.Field.Workers)
	if cfg.Modes.Sense == config.SenseCombined {
		e.field.SetSenseChannel(systems.SenseCombined)
	}

	if cfg.Modes.Collision == config.CollisionOnePerCell {
		e.occupancy = systems.NewOccupancyIndex(w, h)
	}

	stimuli := stimuliFromConfig(cfg.Stimulus.Points)
	if cfg.Stimulus.Noise.Enabled {
		stimuli = append(stimuli, systems.GenerateNoiseStimuli(w, h, cfg.Stimulus.Noise, e.mask)...)
	}
	e.overlay = systems.NewStimulusOverlay(
		stimulusMode(cfg.Modes.Stimulus),
		float32(cfg.Stimulus.PrePatternWeight),
		float32(cfg.Stimulus.NeighborFactor),
		stimuli,
	)
	if e.overlay.Mode() == systems.StimulusPrePattern {
		e.overlay.Rebuild(e.field)
	}

	if cfg.Spawn.Mode == config.SpawnPoints {
		regions := regionsFromConfig(cfg.Spawn.Points)
		e.spawner = systems.NewSpawnScheduler(w, h, regions, cfg.Spawn.MaxAttempts)
		if cfg.Spawn.PaintMarkers {
			for _, r := range regions {
				e.markers = append(e.markers, marker{x: int(r.X), y: int(r.Y), color: r.Color})
			}
		}
	} else {
		e.spawner = systems.NewUniformSpawnScheduler(w, h, cfg.Agents.Count, cfg.Spawn.MaxAttempts)
	}

	e.tunables = Tunables{
		SensorDistance:   float32(cfg.Agents.SensorDistance),
		SensorAngle:      float32(cfg.Agents.SensorAngle),
		StepSize:         float32(cfg.Agents.StepSize),
		RotationAngle:    float32(cfg.Agents.RotationAngle),
		DepositionAmount: float32(cfg.Agents.DepositionAmount),
		DecayFactor:      float32(cfg.Field.DecayFactor),
		TargetAgents:     e.spawner.Total(),
	}
	e.stepper = &systems.Stepper{
		Boundary:  boundaryMode(cfg.Modes.Boundary),
		Field:     e.field,
		Mask:      e.mask,
		Occupancy: e.occupancy,
		Rng:       e.rng,
	}
	e.applyTunables()

	e.newWorld()
	if cfg.Spawn.AgentsPerTick == 0 {
		if err := e.Populate(); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.logger.Info("engine_created",
		"width", w,
		"height", h,
		"target_agents", e.spawner.Total(),
		"obstacles", e.mask.Len(),
		"stimuli", e.overlay.Len(),
		"boundary", cfg.Modes.Boundary,
		"collision", cfg.Modes.Collision,
		"stimulus_mode", cfg.Modes.Stimulus,
	)
	return e, nil
}

// newWorld replaces the ark world and the mappers bound to it.
func (e *Engine) newWorld() {
	e.world = ecs.NewWorld()
	e.agentMap = ecs.NewMap3[components.Position, components.Heading, components.Agent](e.world)
	e.headingQuery = ecs.NewFilter2[components.Heading, components.Agent](e.world)
	e.agents = e.agents[:0]
}

// Tick advances the simulation by one step: agents in spawn order, spawn
// markers, stimulus pre-pass, field pass, stimulus post-pass.
func (e *Engine) Tick() StepCounts {
	e.perf.StartTick()
	counts := e.tickPhases()
	e.perf.EndTick(len(e.agents))
	return counts
}

// Advance places the next paced spawn batch, then ticks. Once the field is
// saturated no further batches are attempted until the population is reset.
func (e *Engine) Advance() (StepCounts, error) {
	e.perf.StartTick()
	e.perf.StartPhase(telemetry.PhaseSpawn)
	var spawnErr error
	if n := e.cfg.Spawn.AgentsPerTick; n > 0 && !e.spawner.Done() && !e.saturated {
		_, spawnErr = e.SpawnBatch(n)
	}
	counts := e.tickPhases()
	e.perf.EndTick(len(e.agents))
	if errors.Is(spawnErr, systems.ErrSpawnSaturated) {
		// Saturation stops growth but the population keeps running.
		spawnErr = nil
	}
	return counts, spawnErr
}

func (e *Engine) tickPhases() StepCounts {
	e.perf.StartPhase(telemetry.PhaseAgents)
	counts := e.StepAgents()

	e.perf.StartPhase(telemetry.PhaseMarkers)
	for _, m := range e.markers {
		e.field.PaintCell(m.x, m.y, m.color)
	}

	e.perf.StartPhase(telemetry.PhaseStimulus)
	if e.overlay.BeforeStep(e.field) {
		e.collector.RecordRebuild()
		e.logger.Debug("stimuli_rebuilt", "tick", e.tick, "stimuli", e.overlay.Len())
	}

	e.perf.StartPhase(telemetry.PhaseField)
	e.field.Step()

	e.perf.StartPhase(telemetry.PhaseStimulus)
	e.overlay.AfterStep(e.field)

	e.tick++
	e.collector.RecordSteps(counts.Moved, counts.Boundary, counts.Obstacle, counts.Occupied)
	return counts
}

// StepAgents runs only the agent pass. Agents move one after another, so a
// later agent senses deposits and occupancy left by earlier ones.
func (e *Engine) StepAgents() StepCounts {
	var counts StepCounts
	for _, entity := range e.agents {
		pos, head, agent := e.agentMap.Get(entity)
		outcome := e.stepper.Step(agent.Slot, pos, head)
		if outcome != systems.Moved {
			agent.Blocked++
		}
		counts.add(outcome)
	}
	return counts
}

// Tunables returns the current runtime parameters.
func (e *Engine) Tunables() Tunables { return e.tunables }

// SetTunables validates and applies t. A changed TargetAgents resets the
// population.
func (e *Engine) SetTunables(t Tunables) error {
	var problems []error
	if t.SensorDistance < 0 {
		problems = append(problems, fmt.Errorf("sensor distance %v < 0", t.SensorDistance))
	}
	if t.StepSize <= 0 {
		problems = append(problems, fmt.Errorf("step size %v <= 0", t.StepSize))
	}
	if t.RotationAngle < 0 || t.SensorAngle < 0 {
		problems = append(problems, fmt.Errorf("angles must be >= 0 (rotation %v, sensor %v)", t.RotationAngle, t.SensorAngle))
	}
	if t.DepositionAmount < 0 {
		problems = append(problems, fmt.Errorf("deposition amount %v < 0", t.DepositionAmount))
	}
	if t.DecayFactor < 0 || t.DecayFactor >= 1 {
		problems = append(problems, fmt.Errorf("decay factor %v outside [0,1)", t.DecayFactor))
	}
	if t.TargetAgents < 0 {
		problems = append(problems, fmt.Errorf("target agents %d < 0", t.TargetAgents))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTunables, errors.Join(problems...))
	}

	resize := t.TargetAgents != e.tunables.TargetAgents
	e.tunables = t
	e.applyTunables()
	if resize {
		return e.SetTargetAgents(t.TargetAgents)
	}
	return nil
}

func (e *Engine) applyTunables() {
	t := e.tunables
	e.stepper.Params = systems.StepParams{
		SensorDistance: t.SensorDistance,
		SensorAngle:    t.SensorAngle,
		SensorSize:     float32(e.cfg.Agents.SensorSize),
		StepSize:       t.StepSize,
		Deposit:        t.DepositionAmount,
	}
	if e.cfg.Agents.Steering == config.SteeringGreedy {
		e.stepper.Policy = systems.GreedySteering{Rotation: t.RotationAngle}
	} else {
		e.stepper.Policy = systems.ExploreSteering{Rotation: t.RotationAngle}
	}
	e.field.SetDecay(t.DecayFactor)
}

// SetStimulusIntensity changes one stimulus and, in pre-pattern mode,
// rebuilds the pre-pattern channel immediately.
func (e *Engine) SetStimulusIntensity(i int, v float32) error {
	if v < 0 {
		return fmt.Errorf("stimulus %d intensity %v < 0: %w", i, v, ErrInvalidTunables)
	}
	if err := e.overlay.SetIntensity(i, v); err != nil {
		return err
	}
	if e.overlay.Mode() == systems.StimulusPrePattern {
		e.overlay.Rebuild(e.field)
		e.collector.RecordRebuild()
	}
	return nil
}

// AddStimulus appends a stimulus. The pre-pattern is rebuilt on the next tick.
func (e *Engine) AddStimulus(s systems.Stimulus) error {
	if s.X < 0 || s.X >= e.field.W || s.Y < 0 || s.Y >= e.field.H {
		return fmt.Errorf("stimulus at (%d, %d) outside %dx%d field: %w", s.X, s.Y, e.field.W, e.field.H, systems.ErrStimulusIndex)
	}
	if s.Intensity < 0 {
		return fmt.Errorf("stimulus intensity %v < 0: %w", s.Intensity, ErrInvalidTunables)
	}
	e.overlay.Add(s)
	return nil
}

// RemoveStimulus deletes the stimulus at index i.
func (e *Engine) RemoveStimulus(i int) error {
	return e.overlay.Remove(i)
}

// Stimuli returns a copy of the stimulus list.
func (e *Engine) Stimuli() []systems.Stimulus { return e.overlay.Stimuli() }

// StimulusMode returns how stimuli enter the field.
func (e *Engine) StimulusMode() systems.StimulusMode { return e.overlay.Mode() }

// Agents returns a copy of every agent in spawn order.
func (e *Engine) Agents() []AgentState {
	out := make([]AgentState, len(e.agents))
	for i, entity := range e.agents {
		pos, head, agent := e.agentMap.Get(entity)
		out[i] = AgentState{
			Slot:    agent.Slot,
			Region:  agent.Region,
			X:       pos.X,
			Y:       pos.Y,
			Heading: head.Angle,
			Blocked: agent.Blocked,
		}
	}
	return out
}

// AgentComponents returns pointers to the live components of the agent in
// slot, for inspection. They are invalidated by a population reset.
func (e *Engine) AgentComponents(slot int) (*components.Position, *components.Heading, *components.Agent, bool) {
	if slot < 0 || slot >= len(e.agents) {
		return nil, nil, nil, false
	}
	pos, head, agent := e.agentMap.Get(e.agents[slot])
	return pos, head, agent, true
}

// SensorReadings returns what the agent in slot currently senses.
func (e *Engine) SensorReadings(slot int) (front, left, right float32, ok bool) {
	pos, head, _, ok := e.AgentComponents(slot)
	if !ok {
		return 0, 0, 0, false
	}
	front, left, right = e.stepper.Sense(pos, head)
	return front, left, right, true
}

// NearestAgent returns the slot of the agent closest to (x, y) within
// radius cells, or -1.
func (e *Engine) NearestAgent(x, y, radius float32) int {
	best, bestD := -1, radius*radius
	for i, entity := range e.agents {
		pos, _, _ := e.agentMap.Get(entity)
		dx, dy := pos.X-x, pos.Y-y
		if d := dx*dx + dy*dy; d <= bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Field returns the trail field. Callers must treat it as read-only.
func (e *Engine) Field() *systems.TrailField { return e.field }

// Mask returns the obstacle mask.
func (e *Engine) Mask() *systems.ObstacleMask { return e.mask }

// Occupancy returns the occupancy index, or nil without one-agent-per-cell.
func (e *Engine) Occupancy() *systems.OccupancyIndex { return e.occupancy }

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config { return e.cfg }

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() int32 { return e.tick }

// Sample collects the field and agent state for a telemetry window.
func (e *Engine) Sample() telemetry.FieldSample {
	dep := make([]float64, 0, len(e.field.Dep)-e.mask.Covered())
	for y := 0; y < e.field.H; y++ {
		for x := 0; x < e.field.W; x++ {
			if e.mask.IsObstacleCell(x, y) {
				continue
			}
			dep = append(dep, float64(e.field.Dep[y*e.field.W+x]))
		}
	}

	headings := make([]float64, 0, len(e.agents))
	query := e.headingQuery.Query()
	for query.Next() {
		head, _ := query.Get()
		headings = append(headings, float64(head.Angle))
	}

	return telemetry.FieldSample{
		Agents:          len(e.agents),
		TargetAgents:    e.spawner.Total(),
		Deposition:      dep,
		TotalDeposition: float64(e.field.TotalDeposition()),
		TotalPrepattern: float64(e.field.TotalPrepattern()),
		Headings:        headings,
	}
}

// Close stops the field's row workers.
func (e *Engine) Close() {
	e.field.Close()
}

func obstaclesFromConfig(cfgs []config.ObstacleConfig) []systems.Obstacle {
	out := make([]systems.Obstacle, len(cfgs))
	for i, o := range cfgs {
		out[i] = systems.Obstacle{
			X: float32(o.X), Y: float32(o.Y),
			W: float32(o.Width), H: float32(o.Height),
			Color: colorFromConfig(o.Color),
		}
	}
	return out
}

func stimuliFromConfig(cfgs []config.StimulusPointConfig) []systems.Stimulus {
	out := make([]systems.Stimulus, len(cfgs))
	for i, s := range cfgs {
		out[i] = systems.Stimulus{X: s.X, Y: s.Y, Intensity: float32(s.Intensity)}
	}
	return out
}

func regionsFromConfig(cfgs []config.SpawnPointConfig) []systems.SpawnRegion {
	out := make([]systems.SpawnRegion, len(cfgs))
	for i, p := range cfgs {
		out[i] = systems.SpawnRegion{
			X: float32(p.X), Y: float32(p.Y),
			Radius: float32(p.Radius),
			Quota:  p.Agents,
			Color:  colorFromConfig(p.Color),
		}
	}
	return out
}

func colorFromConfig(c [3]float64) systems.Color {
	return systems.Color{R: float32(c[0]), G: float32(c[1]), B: float32(c[2])}
}

func stimulusMode(s string) systems.StimulusMode {
	switch s {
	case config.StimulusAdditive:
		return systems.StimulusAdditive
	case config.StimulusPrePattern:
		return systems.StimulusPrePattern
	}
	return systems.StimulusNone
}

func boundaryMode(s string) systems.Boundary {
	if s == config.BoundaryReflective {
		return systems.BoundaryReflective
	}
	return systems.BoundaryPeriodic
}
