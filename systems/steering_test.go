package systems

import "testing"

// seqRand replays fixed values, repeating the last one.
type seqRand struct {
	vals []float32
	n    int
}

func (r *seqRand) Float32() float32 {
	v := r.vals[min(r.n, len(r.vals)-1)]
	r.n++
	return v
}

func TestExploreSteering(t *testing.T) {
	const rot = 0.5
	s := ExploreSteering{Rotation: rot}

	tests := []struct {
		name               string
		front, left, right float32
		rng                float32
		want               float32
	}{
		{"front strongest", 5, 3, 3, 0, 0},
		{"front ties sides", 4, 4, 4, 0, 0},
		{"all zero", 0, 0, 0, 0, 0},
		{"front weakest, random left", 1, 5, 5, 0.2, rot},
		{"front weakest, random right", 1, 5, 5, 0.8, -rot},
		{"right weaker than left", 2, 4, 1, 0, rot},
		{"left weaker than right", 2, 1, 4, 0, -rot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &seqRand{vals: []float32{tt.rng}}
			if got := s.Steer(tt.front, tt.left, tt.right, rng); got != tt.want {
				t.Errorf("Steer(%v, %v, %v) = %v, want %v", tt.front, tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestExploreSteeringOnlyDrawsWhenRandom(t *testing.T) {
	s := ExploreSteering{Rotation: 1}
	rng := &seqRand{vals: []float32{0}}
	s.Steer(5, 1, 1, rng)
	s.Steer(2, 4, 1, rng)
	if rng.n != 0 {
		t.Errorf("deterministic branches drew %d random numbers", rng.n)
	}
	s.Steer(1, 2, 2, rng)
	if rng.n != 1 {
		t.Errorf("random branch drew %d random numbers, want 1", rng.n)
	}
}

func TestGreedySteering(t *testing.T) {
	const rot = 0.25
	s := GreedySteering{Rotation: rot}

	tests := []struct {
		front, left, right float32
		want               float32
	}{
		{5, 3, 3, 0},
		{3, 3, 1, rot}, // front ties left: not strictly best
		{1, 2, 4, -rot},
		{1, 4, 2, rot},
		{1, 2, 2, -rot}, // side ties turn right
	}
	for _, tt := range tests {
		if got := s.Steer(tt.front, tt.left, tt.right, nil); got != tt.want {
			t.Errorf("Steer(%v, %v, %v) = %v, want %v", tt.front, tt.left, tt.right, got, tt.want)
		}
	}
}
