package systems

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestSpawnQuotasAndWeighting(t *testing.T) {
	s := NewSpawnScheduler(100, 100, []SpawnRegion{
		{X: 25, Y: 25, Radius: 5, Quota: 300},
		{X: 75, Y: 75, Radius: 5, Quota: 100},
	}, 16)
	rng := rand.New(rand.NewSource(1))

	counts := [2]int{}
	early := [2]int{}
	for i := 0; i < 400; i++ {
		p, err := s.Place(rng, nil, nil)
		if err != nil {
			t.Fatalf("Place %d: %v", i, err)
		}
		counts[p.Region]++
		if i < 100 {
			early[p.Region]++
		}

		r := s.Regions()[p.Region]
		if d := math.Hypot(float64(p.X-r.X), float64(p.Y-r.Y)); d > float64(r.Radius)+1e-4 {
			t.Fatalf("placement %d at distance %v from its region center, radius %v", i, d, r.Radius)
		}
		if p.Heading < 0 || p.Heading >= 2*math.Pi {
			t.Fatalf("heading %v outside [0, 2pi)", p.Heading)
		}
	}

	if counts != [2]int{300, 100} {
		t.Errorf("region counts = %v, want [300 100]", counts)
	}
	// The larger region dominates early placements.
	if early[0] < 55 || early[0] > 95 {
		t.Errorf("first 100 placements: %d from the 300-quota region, want about 75", early[0])
	}
	if !s.Done() || s.Spawned() != 400 || s.Remaining() != 0 {
		t.Errorf("done/spawned/remaining = %v/%d/%d", s.Done(), s.Spawned(), s.Remaining())
	}
	if _, err := s.Place(rng, nil, nil); !errors.Is(err, ErrSpawnComplete) {
		t.Errorf("Place after completion = %v, want ErrSpawnComplete", err)
	}
}

func TestSpawnSaturation(t *testing.T) {
	s := NewSpawnScheduler(3, 3, []SpawnRegion{{X: 1.5, Y: 1.5, Radius: 0, Quota: 12}}, 4)
	occ := NewOccupancyIndex(3, 3)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 9; i++ {
		p, err := s.Place(rng, occ, nil)
		if err != nil {
			t.Fatalf("Place %d: %v", i, err)
		}
		if !occ.TryOccupy(floorInt(p.X), floorInt(p.Y), int32(i)) {
			t.Fatalf("Place %d returned occupied cell (%v, %v)", i, p.X, p.Y)
		}
	}
	if _, err := s.Place(rng, occ, nil); !errors.Is(err, ErrSpawnSaturated) {
		t.Fatalf("10th Place = %v, want ErrSpawnSaturated", err)
	}
	if s.Spawned() != 9 || s.Remaining() != 3 {
		t.Errorf("spawned/remaining = %d/%d, want 9/3", s.Spawned(), s.Remaining())
	}
}

func TestSpawnAvoidsObstacles(t *testing.T) {
	mask := NewObstacleMask(20, 20, []Obstacle{{X: 5, Y: 5, W: 10, H: 10}})
	s := NewSpawnScheduler(20, 20, []SpawnRegion{{X: 10, Y: 10, Radius: 8, Quota: 100}}, 8)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		p, err := s.Place(rng, nil, mask)
		if err != nil {
			t.Fatalf("Place %d: %v", i, err)
		}
		if mask.Contains(p.X, p.Y) || mask.IsObstacleCell(floorInt(p.X), floorInt(p.Y)) {
			t.Fatalf("placement %d at (%v, %v) is inside an obstacle", i, p.X, p.Y)
		}
	}
}

func TestUniformSpawnIntegerCells(t *testing.T) {
	s := NewUniformSpawnScheduler(8, 6, 30, 4)
	rng := rand.New(rand.NewSource(4))

	if !s.Uniform() || s.Total() != 30 {
		t.Fatalf("uniform/total = %v/%d", s.Uniform(), s.Total())
	}
	for i := 0; i < 30; i++ {
		p, err := s.Place(rng, nil, nil)
		if err != nil {
			t.Fatalf("Place %d: %v", i, err)
		}
		if p.X != float32(int(p.X)) || p.Y != float32(int(p.Y)) {
			t.Fatalf("uniform placement (%v, %v) not on integer coordinates", p.X, p.Y)
		}
		if p.X < 0 || p.X >= 8 || p.Y < 0 || p.Y >= 6 {
			t.Fatalf("uniform placement (%v, %v) outside the field", p.X, p.Y)
		}
	}
}

func TestSpawnRescale(t *testing.T) {
	s := NewSpawnScheduler(10, 10, []SpawnRegion{
		{X: 2, Y: 2, Quota: 30},
		{X: 8, Y: 8, Quota: 10},
	}, 4)

	tests := []struct {
		total int
		want  []int
	}{
		{8, []int{6, 2}},
		{3, []int{2, 1}},
		{0, []int{0, 0}},
		{5, []int{3, 2}}, // all-zero quotas split evenly, remainder to the first
	}
	for _, tt := range tests {
		s.Rescale(tt.total)
		regions := s.Regions()
		for i, want := range tt.want {
			if regions[i].Quota != want {
				t.Errorf("Rescale(%d): region %d quota = %d, want %d", tt.total, i, regions[i].Quota, want)
			}
		}
		if s.Total() != tt.total || s.Remaining() != tt.total || s.Spawned() != 0 {
			t.Errorf("Rescale(%d): total/remaining/spawned = %d/%d/%d", tt.total, s.Total(), s.Remaining(), s.Spawned())
		}
	}
}

func TestSpawnReset(t *testing.T) {
	s := NewUniformSpawnScheduler(4, 4, 3, 4)
	rng := rand.New(rand.NewSource(5))
	if _, err := s.Place(rng, nil, nil); err != nil {
		t.Fatalf("Place: %v", err)
	}
	s.Reset()
	if s.Remaining() != 3 || s.Spawned() != 0 {
		t.Errorf("after Reset remaining/spawned = %d/%d, want 3/0", s.Remaining(), s.Spawned())
	}
}
