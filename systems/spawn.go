package systems

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrSpawnSaturated is returned when no free cell is left for an agent.
	ErrSpawnSaturated = errors.New("spawn saturated: no free cell")
	// ErrSpawnComplete is returned by Place once every quota is spent.
	ErrSpawnComplete = errors.New("spawn quota exhausted")
)

// SpawnRegion is a disk that agents are placed in.
type SpawnRegion struct {
	X, Y, Radius float32
	Quota        int
	Color        Color
}

// Placement is a proposed or committed agent start.
type Placement struct {
	X, Y    float32
	Heading float32
	Region  int
}

// SpawnScheduler hands out agent start positions, choosing regions in
// proportion to their remaining quota.
type SpawnScheduler struct {
	w, h        int
	regions     []SpawnRegion
	uniform     bool // single implicit region covering the field
	quotas      []int
	remaining   []int
	spawned     int
	maxAttempts int
}

// NewSpawnScheduler creates a scheduler over explicit regions.
func NewSpawnScheduler(w, h int, regions []SpawnRegion, maxAttempts int) *SpawnScheduler {
	s := &SpawnScheduler{
		w: w, h: h,
		regions:     append([]SpawnRegion(nil), regions...),
		maxAttempts: maxAttempts,
	}
	s.quotas = make([]int, len(regions))
	for i, r := range regions {
		s.quotas[i] = r.Quota
	}
	s.Reset()
	return s
}

// NewUniformSpawnScheduler creates a scheduler that scatters total agents
// over the whole field at integer cell coordinates.
func NewUniformSpawnScheduler(w, h, total, maxAttempts int) *SpawnScheduler {
	s := &SpawnScheduler{
		w: w, h: h,
		regions: []SpawnRegion{{
			X: float32(w) / 2, Y: float32(h) / 2,
			Radius: float32(max(w, h)),
			Quota:  total,
		}},
		uniform:     true,
		quotas:      []int{total},
		maxAttempts: maxAttempts,
	}
	s.Reset()
	return s
}

// Reset restores every quota.
func (s *SpawnScheduler) Reset() {
	s.remaining = append(s.remaining[:0], s.quotas...)
	s.spawned = 0
}

// Regions returns a copy of the regions with their current quotas.
func (s *SpawnScheduler) Regions() []SpawnRegion {
	out := append([]SpawnRegion(nil), s.regions...)
	for i := range out {
		out[i].Quota = s.quotas[i]
	}
	return out
}

// Uniform reports whether the scheduler scatters over the whole field.
func (s *SpawnScheduler) Uniform() bool { return s.uniform }

// Total returns the sum of all quotas.
func (s *SpawnScheduler) Total() int {
	total := 0
	for _, q := range s.quotas {
		total += q
	}
	return total
}

// Remaining returns how many agents are still to be placed.
func (s *SpawnScheduler) Remaining() int {
	rem := 0
	for _, r := range s.remaining {
		rem += r
	}
	return rem
}

// Spawned returns how many placements have been committed.
func (s *SpawnScheduler) Spawned() int { return s.spawned }

// Done reports whether every quota is spent.
func (s *SpawnScheduler) Done() bool { return s.Remaining() == 0 }

// Rescale sets new quotas summing to total, proportional to the current
// ones (largest remainder, ties to the lower index), and resets.
// With all quotas zero the total is split evenly.
func (s *SpawnScheduler) Rescale(total int) {
	if total < 0 {
		total = 0
	}
	n := len(s.quotas)
	if n == 0 {
		return
	}

	weights := make([]float64, n)
	sum := 0.0
	for i, q := range s.quotas {
		weights[i] = float64(q)
		sum += weights[i]
	}
	if sum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(n)
	}

	type frac struct {
		i int
		f float64
	}
	fracs := make([]frac, n)
	assigned := 0
	for i, wgt := range weights {
		exact := float64(total) * wgt / sum
		base := math.Floor(exact)
		s.quotas[i] = int(base)
		assigned += int(base)
		fracs[i] = frac{i: i, f: exact - base}
	}
	sort.SliceStable(fracs, func(a, b int) bool { return fracs[a].f > fracs[b].f })
	for k := 0; assigned < total; k++ {
		s.quotas[fracs[k%n].i]++
		assigned++
	}

	for i := range s.regions {
		s.regions[i].Quota = s.quotas[i]
	}
	s.Reset()
}

// Propose samples a start without committing it. It returns false when no
// quota remains.
func (s *SpawnScheduler) Propose(rng Rand) (Placement, bool) {
	rem := s.Remaining()
	if rem == 0 {
		return Placement{}, false
	}

	target := int(rng.Float32() * float32(rem))
	if target >= rem {
		target = rem - 1
	}
	region := 0
	for i, r := range s.remaining {
		if target < r {
			region = i
			break
		}
		target -= r
	}

	var x, y float32
	if s.uniform {
		x = float32(int(rng.Float32() * float32(s.w)))
		y = float32(int(rng.Float32() * float32(s.h)))
		x, y = min(x, float32(s.w-1)), min(y, float32(s.h-1))
	} else {
		r := s.regions[region]
		dist := r.Radius * float32(math.Sqrt(float64(rng.Float32())))
		theta := rng.Float32() * twoPi
		x = wrapCoord(r.X+dist*cosf(theta), float32(s.w))
		y = wrapCoord(r.Y+dist*sinf(theta), float32(s.h))
	}

	return Placement{X: x, Y: y, Heading: rng.Float32() * twoPi, Region: region}, true
}

// free reports whether an agent may start at (x, y).
func (s *SpawnScheduler) free(x, y float32, occ *OccupancyIndex, mask *ObstacleMask) bool {
	cx, cy := floorInt(x), floorInt(y)
	if mask != nil && (mask.IsObstacleCell(cx, cy) || mask.Contains(x, y)) {
		return false
	}
	return occ == nil || !occ.IsOccupied(cx, cy)
}

// Place finds a valid start and commits it against the quota. Random
// proposals are tried up to the attempt cap, then the nearest free cell to
// the chosen region's center is taken, searching outward ring by ring over
// the whole field. occ and mask may be nil. The caller is responsible for
// occupying the returned cell.
func (s *SpawnScheduler) Place(rng Rand, occ *OccupancyIndex, mask *ObstacleMask) (Placement, error) {
	var p Placement
	for attempt := 0; attempt < max(s.maxAttempts, 1); attempt++ {
		var ok bool
		p, ok = s.Propose(rng)
		if !ok {
			return Placement{}, ErrSpawnComplete
		}
		if s.free(p.X, p.Y, occ, mask) {
			s.commit(p.Region)
			return p, nil
		}
	}

	r := s.regions[p.Region]
	x, y, ok := s.nearestFree(floorInt(r.X), floorInt(r.Y), occ, mask)
	if !ok {
		return Placement{}, fmt.Errorf("placing in region %d after %d attempts: %w", p.Region, s.maxAttempts, ErrSpawnSaturated)
	}
	p.X, p.Y = x, y
	s.commit(p.Region)
	return p, nil
}

func (s *SpawnScheduler) commit(region int) {
	s.remaining[region]--
	s.spawned++
}

// nearestFree scans Chebyshev rings around (cx, cy), clamped to the field,
// and returns the first free cell's center.
func (s *SpawnScheduler) nearestFree(cx, cy int, occ *OccupancyIndex, mask *ObstacleMask) (float32, float32, bool) {
	cx, cy = clampInt(cx, s.w), clampInt(cy, s.h)
	maxR := max(s.w, s.h)
	for r := 0; r <= maxR; r++ {
		for dy := -r; dy <= r; dy++ {
			y := cy + dy
			if y < 0 || y >= s.h {
				continue
			}
			step := 1
			if dy != -r && dy != r {
				step = 2 * r // only the ring's left and right edges
			}
			for dx := -r; dx <= r; dx += max(step, 1) {
				x := cx + dx
				if x < 0 || x >= s.w {
					continue
				}
				fx, fy := float32(x)+0.5, float32(y)+0.5
				if s.free(fx, fy, occ, mask) {
					return fx, fy, true
				}
			}
		}
	}
	return 0, 0, false
}
