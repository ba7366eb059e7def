package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	RunID           string `csv:"run_id"`
	WindowStartTick int32  `csv:"-"`
	WindowEndTick   int32  `csv:"window_end"`

	// Population at window end
	Agents       int `csv:"agents"`
	TargetAgents int `csv:"target_agents"`

	// Events during window
	Spawned         int     `csv:"spawned"`
	SpawnFailures   int     `csv:"spawn_failures"`
	Moves           int     `csv:"moves"`
	BlockedBoundary int     `csv:"blocked_boundary"`
	BlockedObstacle int     `csv:"blocked_obstacle"`
	BlockedOccupied int     `csv:"blocked_occupied"`
	BlockedRate     float64 `csv:"blocked_rate"`
	Rebuilds        int     `csv:"stimulus_rebuilds"`

	// Field state at window end (non-obstacle cells)
	TotalDeposition float64 `csv:"total_deposition"`
	TotalPrepattern float64 `csv:"total_prepattern"`
	DepositionMax   float64 `csv:"deposition_max"`
	DepositionMean  float64 `csv:"deposition_mean"`
	DepositionP50   float64 `csv:"deposition_p50"`
	DepositionP90   float64 `csv:"deposition_p90"`
	TrailCoverage   float64 `csv:"trail_coverage"` // Share of cells above the coverage threshold

	// Mean resultant length of agent headings, 0 (isotropic) to 1 (aligned)
	HeadingCoherence float64 `csv:"heading_coherence"`
}

// CoverageThreshold is the deposition level a cell needs to count as trail.
const CoverageThreshold = 0.5

// ComputeFieldStats returns mean, max, median and 90th percentile of values.
// Percentiles use the empirical quantile. Returns zeros for no values.
func ComputeFieldStats(values []float64) (mean, maxVal, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	maxVal = floats.Max(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, maxVal, p50, p90
}

// Coverage returns the fraction of values strictly above threshold.
func Coverage(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// HeadingCoherence returns the mean resultant length of the headings.
func HeadingCoherence(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	cos := make([]float64, len(headings))
	sin := make([]float64, len(headings))
	for i, h := range headings {
		cos[i] = math.Cos(h)
		sin[i] = math.Sin(h)
	}
	c := stat.Mean(cos, nil)
	s := stat.Mean(sin, nil)
	return math.Hypot(c, s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("agents", s.Agents),
		slog.Int("target_agents", s.TargetAgents),
		slog.Int("spawned", s.Spawned),
		slog.Int("spawn_failures", s.SpawnFailures),
		slog.Int("moves", s.Moves),
		slog.Int("blocked_boundary", s.BlockedBoundary),
		slog.Int("blocked_obstacle", s.BlockedObstacle),
		slog.Int("blocked_occupied", s.BlockedOccupied),
		slog.Float64("blocked_rate", s.BlockedRate),
		slog.Int("stimulus_rebuilds", s.Rebuilds),
		slog.Float64("total_deposition", s.TotalDeposition),
		slog.Float64("total_prepattern", s.TotalPrepattern),
		slog.Float64("deposition_max", s.DepositionMax),
		slog.Float64("deposition_mean", s.DepositionMean),
		slog.Float64("deposition_p50", s.DepositionP50),
		slog.Float64("deposition_p90", s.DepositionP90),
		slog.Float64("trail_coverage", s.TrailCoverage),
		slog.Float64("heading_coherence", s.HeadingCoherence),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"agents", s.Agents,
		"target_agents", s.TargetAgents,
		"spawned", s.Spawned,
		"spawn_failures", s.SpawnFailures,
		"moves", s.Moves,
		"blocked_rate", s.BlockedRate,
		"total_deposition", s.TotalDeposition,
		"total_prepattern", s.TotalPrepattern,
		"deposition_p90", s.DepositionP90,
		"trail_coverage", s.TrailCoverage,
		"heading_coherence", s.HeadingCoherence,
	)
}
