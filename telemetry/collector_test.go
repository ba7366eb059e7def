package telemetry

import (
	"math"
	"testing"
)

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(100, "run")

	if c.ShouldFlush(99) {
		t.Error("ShouldFlush(99) = true, want false")
	}
	if !c.ShouldFlush(100) {
		t.Error("ShouldFlush(100) = false, want true")
	}

	c.Flush(100, FieldSample{})
	if c.ShouldFlush(150) {
		t.Error("ShouldFlush(150) after flush at 100 = true, want false")
	}
	if !c.ShouldFlush(200) {
		t.Error("ShouldFlush(200) after flush at 100 = false, want true")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10, "abc")
	c.RecordSteps(6, 1, 2, 1)
	c.RecordSteps(4, 0, 0, 0)
	c.RecordSpawn(3)
	c.RecordSpawnFailure()
	c.RecordRebuild()

	stats := c.Flush(10, FieldSample{
		Agents:          3,
		TargetAgents:    5,
		Deposition:      []float64{0, 1, 2, 3},
		TotalDeposition: 6,
		TotalPrepattern: 2,
		Headings:        []float64{0, 0, 0},
	})

	if stats.RunID != "abc" {
		t.Errorf("RunID = %q, want abc", stats.RunID)
	}
	if stats.WindowStartTick != 0 || stats.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Moves != 10 {
		t.Errorf("Moves = %d, want 10", stats.Moves)
	}
	if stats.BlockedBoundary != 1 || stats.BlockedObstacle != 2 || stats.BlockedOccupied != 1 {
		t.Errorf("blocked = %d/%d/%d, want 1/2/1", stats.BlockedBoundary, stats.BlockedObstacle, stats.BlockedOccupied)
	}
	if math.Abs(stats.BlockedRate-4.0/14.0) > 1e-9 {
		t.Errorf("BlockedRate = %v, want %v", stats.BlockedRate, 4.0/14.0)
	}
	if stats.Spawned != 3 || stats.SpawnFailures != 1 || stats.Rebuilds != 1 {
		t.Errorf("spawned/failures/rebuilds = %d/%d/%d, want 3/1/1", stats.Spawned, stats.SpawnFailures, stats.Rebuilds)
	}
	if stats.DepositionMax != 3 {
		t.Errorf("DepositionMax = %v, want 3", stats.DepositionMax)
	}
	if math.Abs(stats.TrailCoverage-0.75) > 1e-9 {
		t.Errorf("TrailCoverage = %v, want 0.75", stats.TrailCoverage)
	}
	if math.Abs(stats.HeadingCoherence-1) > 1e-9 {
		t.Errorf("HeadingCoherence = %v, want 1", stats.HeadingCoherence)
	}

	// Counters reset
	next := c.Flush(20, FieldSample{})
	if next.Moves != 0 || next.Spawned != 0 || next.Rebuilds != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("next WindowStartTick = %d, want 10", next.WindowStartTick)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0, "")
	if c.WindowDurationTicks() != 1 {
		t.Errorf("WindowDurationTicks = %d, want 1", c.WindowDurationTicks())
	}
}
