package game

// Update runs one host frame in graphical mode: input, then
// stepsPerUpdate ticks unless paused.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	g.handleInput()

	if g.paused && !g.stepOnce {
		return
	}
	steps := g.stepsPerUpdate
	if g.paused {
		steps = 1
	}
	g.stepOnce = false
	for i := 0; i < steps; i++ {
		g.simulationStep()
	}
}

// UpdateHeadless runs stepsPerUpdate ticks with no input or rendering.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// simulationStep advances the engine one tick and handles telemetry.
func (g *Game) simulationStep() {
	if _, err := g.engine.Advance(); err != nil {
		g.logger.Error("spawn_failed", "tick", g.engine.TickCount(), "error", err)
	}
	g.flushTelemetry()
	g.dumpFrame()
}
