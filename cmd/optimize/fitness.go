package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/telemetry"
)

// FitnessEvaluator runs headless simulations and scores the trail network.
type FitnessEvaluator struct {
	params         *ParamVector
	maxTicks       int32
	seeds          []int64
	baseConfig     *config.Config
	coverageTarget float64

	mu          sync.Mutex
	bestFitness float64
	bestStats   telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, coverageTarget float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:         params,
		maxTicks:       maxTicks,
		seeds:          seeds,
		baseConfig:     baseCfg,
		coverageTarget: coverageTarget,
		bestFitness:    math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// BestStats returns the final window stats of the best evaluation so far.
func (fe *FitnessEvaluator) BestStats() telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestStats
}

type seedResult struct {
	quality float64
	stats   telemetry.WindowStats
	err     error
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the negated mean network quality across seeds.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	results := make([]seedResult, len(fe.seeds))

	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			results[i] = fe.runSeed(raw, seed)
		}(i, seed)
	}
	wg.Wait()

	var sum float64
	best := 0
	for i, r := range results {
		if r.err != nil {
			// Invalid parameter sets score worst.
			fe.record(1, 0, telemetry.WindowStats{})
			return 1
		}
		sum += r.quality
		if r.quality > results[best].quality {
			best = i
		}
	}
	quality := sum / float64(len(results))
	fitness := -quality
	fe.record(fitness, quality, results[best].stats)
	return fitness
}

func (fe *FitnessEvaluator) record(fitness, quality float64, stats telemetry.WindowStats) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.lastQuality = quality
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestStats = stats
	}
}

// runSeed runs one headless simulation and scores its final field.
func (fe *FitnessEvaluator) runSeed(raw []float64, seed int64) seedResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, raw)
	// Seeds already run in parallel.
	cfg.Field.Workers = 1
	if err := cfg.Finalize(); err != nil {
		return seedResult{err: err}
	}

	collector := telemetry.NewCollector(int(fe.maxTicks), "")
	e, err := sim.New(cfg, sim.Options{
		Seed:      seed,
		Logger:    slog.New(slog.DiscardHandler),
		Collector: collector,
	})
	if err != nil {
		return seedResult{err: err}
	}
	defer e.Close()

	for e.TickCount() < fe.maxTicks {
		if _, err := e.Advance(); err != nil {
			return seedResult{err: err}
		}
	}

	stats := collector.Flush(e.TickCount(), e.Sample())
	return seedResult{
		quality: NetworkQuality(stats, fe.coverageTarget),
		stats:   stats,
	}
}

// NetworkQuality scores a window in [0,1]. Coverage near target earns
// balance; a wide spread between median and p90 deposition earns contrast,
// which separates sharp trails from uniform haze.
func NetworkQuality(stats telemetry.WindowStats, coverageTarget float64) float64 {
	if coverageTarget <= 0 {
		return 0
	}
	balance := math.Max(0, 1-math.Abs(stats.TrailCoverage-coverageTarget)/coverageTarget)

	const eps = 1e-9
	contrast := (stats.DepositionP90 - stats.DepositionP50) / (stats.DepositionP90 + eps)
	contrast = math.Min(math.Max(contrast, 0), 1)

	return balance * (0.5 + 0.5*contrast)
}
