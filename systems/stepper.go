package systems

import (
	"math"

	"github.com/pthm-cable/slime/components"
)

// Boundary selects what happens when an agent's move leaves the field.
type Boundary uint8

const (
	BoundaryPeriodic   Boundary = iota // wrap around
	BoundaryReflective                 // stay put and turn toward the center
)

// Outcome is the result of one agent step.
type Outcome uint8

const (
	Moved Outcome = iota
	BlockedBoundary
	BlockedObstacle
	BlockedOccupied
	numOutcomes
)

// NumOutcomes is the number of distinct step outcomes.
const NumOutcomes = int(numOutcomes)

var outcomeNames = [...]string{"moved", "blocked_boundary", "blocked_obstacle", "blocked_occupied"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// StepParams holds the per-agent geometry. Angles are in radians.
type StepParams struct {
	SensorDistance float32
	SensorAngle    float32
	SensorSize     float32 // 0 reads a single cell
	StepSize       float32
	Deposit        float32
}

// Stepper advances one agent at a time: sense, steer, move, resolve
// boundary, obstacle and occupancy rules, deposit.
type Stepper struct {
	Params    StepParams
	Boundary  Boundary
	Policy    SteeringPolicy
	Field     *TrailField
	Mask      *ObstacleMask
	Occupancy *OccupancyIndex // nil disables one-agent-per-cell
	Rng       Rand
}

// sensor reads the field at distance along angle from pos.
func (s *Stepper) sensor(pos *components.Position, angle float32) float32 {
	d := s.Params.SensorDistance
	return s.Field.SenseWindow(pos.X+d*cosf(angle), pos.Y+d*sinf(angle), s.Params.SensorSize)
}

// Sense returns the front, left and right sensor readings for an agent.
func (s *Stepper) Sense(pos *components.Position, head *components.Heading) (front, left, right float32) {
	a := head.Angle
	front = s.sensor(pos, a)
	left = s.sensor(pos, a+s.Params.SensorAngle)
	right = s.sensor(pos, a-s.Params.SensorAngle)
	return front, left, right
}

// Step advances the agent in slot. pos and head are updated in place.
func (s *Stepper) Step(slot int32, pos *components.Position, head *components.Heading) Outcome {
	front, left, right := s.Sense(pos, head)

	head.Angle += s.Policy.Steer(front, left, right, s.Rng)

	w, h := float32(s.Field.W), float32(s.Field.H)
	nx := pos.X + s.Params.StepSize*cosf(head.Angle)
	ny := pos.Y + s.Params.StepSize*sinf(head.Angle)

	switch s.Boundary {
	case BoundaryPeriodic:
		nx = wrapCoord(nx, w)
		ny = wrapCoord(ny, h)
	case BoundaryReflective:
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			head.Angle = float32(math.Atan2(float64(h/2-pos.Y), float64(w/2-pos.X)))
			return BlockedBoundary
		}
	}

	if s.Mask != nil && s.Mask.Contains(nx, ny) {
		head.Angle = s.Rng.Float32() * twoPi
		return BlockedObstacle
	}

	cx, cy := floorInt(nx), floorInt(ny)
	if s.Occupancy != nil {
		ox, oy := pos.Cell()
		if !s.Occupancy.Move(ox, oy, cx, cy, slot) {
			head.Angle = s.Rng.Float32() * twoPi
			return BlockedOccupied
		}
	}

	pos.X, pos.Y = nx, ny
	s.Field.Deposit(cx, cy, s.Params.Deposit)
	return Moved
}
