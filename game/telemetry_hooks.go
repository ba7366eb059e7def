package game

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.engine.TickCount()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.engine.Sample())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
	}
}

// dumpFrame writes the field every frameEvery ticks when output is enabled.
func (g *Game) dumpFrame() {
	if g.frameEvery <= 0 || g.outputManager == nil {
		return
	}
	tick := g.engine.TickCount()
	if tick%g.frameEvery != 0 {
		return
	}

	f := g.engine.Field()
	fw, err := g.outputManager.Frames(f.W, f.H, g.runID)
	if err != nil {
		g.logger.Error("failed to open frame stream", "error", err)
		g.frameEvery = 0
		return
	}
	if err := fw.WriteFrame(int64(tick), f.Dep, f.Pre); err != nil {
		g.logger.Error("failed to write frame", "tick", tick, "error", err)
	}
}

// recording reports whether frame dumps are active.
func (g *Game) recording() bool {
	return g.frameEvery > 0 && g.outputManager != nil
}
