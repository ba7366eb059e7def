package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation tick.
type Phase uint8

const (
	PhaseSpawn Phase = iota
	PhaseAgents
	PhaseMarkers
	PhaseStimulus
	PhaseField
	numPhases
)

var phaseNames = [numPhases]string{"spawn", "agents", "markers", "stimulus", "field"}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists the tick phases in execution order.
var Phases = []Phase{PhaseSpawn, PhaseAgents, PhaseMarkers, PhaseStimulus, PhaseField}

// perfSample is the timing of one tick. The stimulus phase runs twice per
// tick and both parts accumulate into its slot.
type perfSample struct {
	tick   time.Duration
	phases [numPhases]time.Duration
	agents int
}

// PerfCollector times tick phases over a rolling window of ticks.
// All recording methods are no-ops on a nil collector.
type PerfCollector struct {
	cells   int // field cells, for field-pass throughput
	samples []perfSample
	next    int
	count   int

	current    perfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]perfSample, windowSize)}
}

// SetCells records the field size used for cell throughput.
func (p *PerfCollector) SetCells(n int) {
	if p == nil {
		return
	}
	p.cells = n
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.tickStart = time.Now()
	p.current = perfSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick records the tick. agents is the population the agent pass stepped.
func (p *PerfCollector) EndTick(agents int) {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.current.tick = now.Sub(p.tickStart)
	p.current.agents = agents
	p.record(p.current)
}

func (p *PerfCollector) record(s perfSample) {
	p.samples[p.next] = s
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// RecordFrame records the time since the previous host frame.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the window.
type PerfStats struct {
	Ticks int // samples in the window

	AvgTick time.Duration
	P95Tick time.Duration
	MaxTick time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick, in percent

	TicksPerSecond float64
	AgentSteps     float64 // agent updates per second of agent-pass time
	CellUpdates    float64 // cells per second of field-pass time

	FrameDuration time.Duration
	FPS           float64
}

// Dominant returns the phase with the largest average time.
func (s PerfStats) Dominant() Phase {
	best := PhaseAgents
	for _, ph := range Phases {
		if s.PhaseAvg[ph] > s.PhaseAvg[best] {
			best = ph
		}
	}
	return best
}

// Stats aggregates the window. A nil collector returns zero stats.
func (p *PerfCollector) Stats() PerfStats {
	if p == nil {
		return PerfStats{}
	}
	s := PerfStats{Ticks: p.count, FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	ticks := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	var agentSum int
	for i, sample := range p.samples[:p.count] {
		ticks[i] = float64(sample.tick)
		for ph, d := range sample.phases {
			phaseSum[ph] += d
		}
		agentSum += sample.agents
	}

	s.AvgTick = time.Duration(stat.Mean(ticks, nil))
	sort.Float64s(ticks)
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	s.MaxTick = time.Duration(ticks[len(ticks)-1])

	n := time.Duration(p.count)
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	if agents := phaseSum[PhaseAgents]; agents > 0 {
		s.AgentSteps = float64(agentSum) / agents.Seconds()
	}
	if field := phaseSum[PhaseField]; field > 0 && p.cells > 0 {
		s.CellUpdates = float64(p.cells*p.count) / field.Seconds()
	}
	return s
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("agent_steps_per_sec", s.AgentSteps),
		slog.Float64("cell_updates_per_sec", s.CellUpdates),
		slog.String("dominant", s.Dominant().String()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, ph := range Phases {
		if s.PhasePct[ph] > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd   int32   `csv:"window_end"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	P95TickUS   int64   `csv:"p95_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	AgentSteps  float64 `csv:"agent_steps_per_sec"`
	CellUpdates float64 `csv:"cell_updates_per_sec"`
	FPS         float64 `csv:"fps"`
	SpawnPct    float64 `csv:"spawn_pct"`
	AgentsPct   float64 `csv:"agents_pct"`
	MarkersPct  float64 `csv:"markers_pct"`
	StimulusPct float64 `csv:"stimulus_pct"`
	FieldPct    float64 `csv:"field_pct"`
	Dominant    string  `csv:"dominant"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgTickUS:   s.AvgTick.Microseconds(),
		P95TickUS:   s.P95Tick.Microseconds(),
		MaxTickUS:   s.MaxTick.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		AgentSteps:  s.AgentSteps,
		CellUpdates: s.CellUpdates,
		FPS:         s.FPS,
		SpawnPct:    s.PhasePct[PhaseSpawn],
		AgentsPct:   s.PhasePct[PhaseAgents],
		MarkersPct:  s.PhasePct[PhaseMarkers],
		StimulusPct: s.PhasePct[PhaseStimulus],
		FieldPct:    s.PhasePct[PhaseField],
		Dominant:    s.Dominant().String(),
	}
}
