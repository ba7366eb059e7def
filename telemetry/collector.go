package telemetry

// FieldSample is the state the caller samples when a window closes.
type FieldSample struct {
	Agents       int
	TargetAgents int

	// Deposition values of non-obstacle cells
	Deposition []float64

	TotalDeposition float64
	TotalPrepattern float64

	// Agent headings in radians
	Headings []float64
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	runID               string
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawned         int
	spawnFailures   int
	moves           int
	blockedBoundary int
	blockedObstacle int
	blockedOccupied int
	rebuilds        int
}

// NewCollector creates a collector that closes a window every windowTicks ticks.
func NewCollector(windowTicks int, runID string) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		runID:               runID,
		windowDurationTicks: int32(windowTicks),
	}
}

// RecordSteps adds one tick's agent step outcomes. The Record methods are
// no-ops on a nil Collector.
func (c *Collector) RecordSteps(moved, boundary, obstacle, occupied int) {
	if c == nil {
		return
	}
	c.moves += moved
	c.blockedBoundary += boundary
	c.blockedObstacle += obstacle
	c.blockedOccupied += occupied
}

// RecordSpawn records n placed agents.
func (c *Collector) RecordSpawn(n int) {
	if c == nil {
		return
	}
	c.spawned += n
}

// RecordSpawnFailure records a saturated placement.
func (c *Collector) RecordSpawnFailure() {
	if c == nil {
		return
	}
	c.spawnFailures++
}

// RecordRebuild records a pre-pattern rebuild.
func (c *Collector) RecordRebuild() {
	if c == nil {
		return
	}
	c.rebuilds++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FieldSample) WindowStats {
	attempts := c.moves + c.blockedBoundary + c.blockedObstacle + c.blockedOccupied
	var blockedRate float64
	if attempts > 0 {
		blockedRate = float64(attempts-c.moves) / float64(attempts)
	}

	mean, maxVal, p50, p90 := ComputeFieldStats(sample.Deposition)

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Agents:       sample.Agents,
		TargetAgents: sample.TargetAgents,

		Spawned:         c.spawned,
		SpawnFailures:   c.spawnFailures,
		Moves:           c.moves,
		BlockedBoundary: c.blockedBoundary,
		BlockedObstacle: c.blockedObstacle,
		BlockedOccupied: c.blockedOccupied,
		BlockedRate:     blockedRate,
		Rebuilds:        c.rebuilds,

		TotalDeposition: sample.TotalDeposition,
		TotalPrepattern: sample.TotalPrepattern,
		DepositionMax:   maxVal,
		DepositionMean:  mean,
		DepositionP50:   p50,
		DepositionP90:   p90,
		TrailCoverage:   Coverage(sample.Deposition, CoverageThreshold),

		HeadingCoherence: HeadingCoherence(sample.Headings),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawned = 0
	c.spawnFailures = 0
	c.moves = 0
	c.blockedBoundary = 0
	c.blockedObstacle = 0
	c.blockedOccupied = 0
	c.rebuilds = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// RunID returns the run identifier stamped on every window.
func (c *Collector) RunID() string {
	return c.runID
}
