package sim

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/systems"
)

// SpawnBatch places up to n agents and returns how many were placed. It
// stops early once every quota is spent, and returns an error wrapping
// systems.ErrSpawnSaturated when no free cell is left.
func (e *Engine) SpawnBatch(n int) (int, error) {
	placed := 0
	defer func() { e.collector.RecordSpawn(placed) }()

	for placed < n && !e.spawner.Done() {
		p, err := e.spawner.Place(e.rng, e.occupancy, e.mask)
		if errors.Is(err, systems.ErrSpawnComplete) {
			break
		}
		if err != nil {
			e.collector.RecordSpawnFailure()
			if errors.Is(err, systems.ErrSpawnSaturated) && !e.saturated {
				e.saturated = true
				e.logger.Warn("spawn_saturated",
					"tick", e.tick,
					"agents", len(e.agents),
					"target_agents", e.spawner.Total(),
					"error", err,
				)
			}
			return placed, err
		}
		if err := e.addAgent(p); err != nil {
			return placed, err
		}
		placed++
	}

	if placed > 0 && e.spawner.Done() {
		e.logger.Info("population_complete",
			"tick", e.tick,
			"agents", humanize.Comma(int64(len(e.agents))),
		)
	}
	return placed, nil
}

// Populate places every remaining agent.
func (e *Engine) Populate() error {
	if _, err := e.SpawnBatch(e.spawner.Remaining()); err != nil {
		return fmt.Errorf("populating %d agents: %w", e.spawner.Total(), err)
	}
	return nil
}

// addAgent creates the entity for a committed placement and claims its cell.
func (e *Engine) addAgent(p systems.Placement) error {
	slot := int32(len(e.agents))
	pos := components.Position{X: p.X, Y: p.Y}
	if e.occupancy != nil {
		cx, cy := pos.Cell()
		if !e.occupancy.TryOccupy(cx, cy, slot) {
			return fmt.Errorf("agent %d at (%d, %d): %w", slot, cx, cy, systems.ErrSpawnSaturated)
		}
	}
	head := components.Heading{Angle: p.Heading}
	agent := components.Agent{Slot: slot, Region: int32(p.Region)}
	e.agents = append(e.agents, e.agentMap.NewEntity(&pos, &head, &agent))
	return nil
}

// Population returns the number of live agents.
func (e *Engine) Population() int { return len(e.agents) }

// TargetAgents returns the population the spawner is working toward.
func (e *Engine) TargetAgents() int { return e.spawner.Total() }

// Saturated reports whether spawning ran out of free cells for the current
// population. SetTargetAgents clears it.
func (e *Engine) Saturated() bool { return e.saturated }

// SetTargetAgents discards every agent and the field contents, rescales the
// spawn quotas to n and starts a new population. Paced spawning resumes on
// the next Advance; otherwise the population is placed immediately.
func (e *Engine) SetTargetAgents(n int) error {
	if n < 0 {
		return fmt.Errorf("target agents %d < 0: %w", n, ErrInvalidTunables)
	}

	previous := len(e.agents)
	e.spawner.Rescale(n)
	e.tunables.TargetAgents = e.spawner.Total()
	e.newWorld()
	if e.occupancy != nil {
		e.occupancy.Clear()
	}
	e.field.Reset()
	if e.overlay.Mode() == systems.StimulusPrePattern {
		e.overlay.Rebuild(e.field)
	}
	e.saturated = false

	e.logger.Info("population_reset",
		"tick", e.tick,
		"previous_agents", humanize.Comma(int64(previous)),
		"target_agents", humanize.Comma(int64(n)),
	)

	if e.cfg.Spawn.AgentsPerTick == 0 {
		return e.Populate()
	}
	return nil
}
