package systems

// Rand is the random source used by steering, stepping and spawning.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float32() float32
}

// SteeringPolicy turns three sensor readings into a heading change.
type SteeringPolicy interface {
	Steer(front, left, right float32, rng Rand) float32
}

// ExploreSteering keeps straight while the front sensor is at least as
// strong as both sides, turns randomly when the front is weaker than both,
// and otherwise turns away from the weaker side. The left sensor sits at
// +sensorAngle, so a positive delta turns left.
type ExploreSteering struct {
	Rotation float32
}

// Steer implements SteeringPolicy.
func (s ExploreSteering) Steer(front, left, right float32, rng Rand) float32 {
	switch {
	case front >= left && front >= right:
		return 0
	case front < left && front < right:
		if rng.Float32() < 0.5 {
			return s.Rotation
		}
		return -s.Rotation
	case left < right:
		return -s.Rotation
	case right < left:
		return s.Rotation
	default:
		return 0
	}
}

// GreedySteering keeps straight only when the front sensor is strictly the
// strongest and otherwise turns toward the stronger side. Ties between the
// sides turn right.
type GreedySteering struct {
	Rotation float32
}

// Steer implements SteeringPolicy.
func (s GreedySteering) Steer(front, left, right float32, _ Rand) float32 {
	switch {
	case front > left && front > right:
		return 0
	case left > right:
		return s.Rotation
	default:
		return -s.Rotation
	}
}
