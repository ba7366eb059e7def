// Package components defines ECS components for the simulation.
package components

// Position is an agent's continuous position in field cell units.
// Cell (x, y) covers [x, x+1) × [y, y+1).
type Position struct {
	X float32 `inspect:"label,fmt:%.2f"`
	Y float32 `inspect:"label,fmt:%.2f"`
}

// Cell returns the floored cell coordinates of the position.
// Callers clamp or wrap as their boundary mode requires.
func (p Position) Cell() (int, int) {
	return floorInt(p.X), floorInt(p.Y)
}

// Heading is an agent's direction of travel in radians.
// It is not canonicalized into [0, 2π).
type Heading struct {
	Angle float32 `inspect:"angle"`
}

// Agent holds per-agent bookkeeping.
type Agent struct {
	Slot    int32  `inspect:"label"` // Stable index in spawn order, also the occupancy key
	Region  int32  `inspect:"label"` // Spawn region the agent was placed from
	Blocked uint32 `inspect:"label"` // Rejected moves since spawn
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}
