package systems

// Color is a paint color with channels in [0, 1].
// When painted into the field, R lands on deposition, G on pre-pattern
// and B on the render-only tint channel.
type Color struct {
	R, G, B float32
}

// Obstacle is an axis-aligned rectangle that blocks agents and is excluded
// from decay and diffusion.
type Obstacle struct {
	X, Y, W, H float32
	Color      Color
}

// Contains reports whether the point lies inside the half-open rectangle
// [X, X+W) × [Y, Y+H).
func (o Obstacle) Contains(px, py float32) bool {
	return px >= o.X && px < o.X+o.W && py >= o.Y && py < o.Y+o.H
}

// ObstacleMask is the static obstacle set plus a per-cell lookup table.
// A cell (x, y) is masked when its lower corner (x, y) lies inside a
// rectangle; the first matching rectangle owns the cell.
type ObstacleMask struct {
	w, h  int
	rects []Obstacle
	cells []int32 // rectangle index per cell, -1 when free
	count int
}

// NewObstacleMask builds the mask for a w×h field.
func NewObstacleMask(w, h int, obstacles []Obstacle) *ObstacleMask {
	m := &ObstacleMask{
		w:     w,
		h:     h,
		rects: append([]Obstacle(nil), obstacles...),
		cells: make([]int32, w*h),
	}
	for i := range m.cells {
		m.cells[i] = -1
	}
	if len(m.rects) == 0 {
		return m
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ri, r := range m.rects {
				if r.Contains(float32(x), float32(y)) {
					m.cells[y*w+x] = int32(ri)
					m.count++
					break
				}
			}
		}
	}
	return m
}

// Contains reports whether any rectangle contains the point.
func (m *ObstacleMask) Contains(px, py float32) bool {
	for _, r := range m.rects {
		if r.Contains(px, py) {
			return true
		}
	}
	return false
}

// IsObstacleCell reports whether cell (x, y) is masked.
// Out-of-range cells are never masked.
func (m *ObstacleMask) IsObstacleCell(x, y int) bool {
	if x < 0 || x >= m.w || y < 0 || y >= m.h {
		return false
	}
	return m.cells[y*m.w+x] >= 0
}

// masked is the unchecked flat-index form of IsObstacleCell.
func (m *ObstacleMask) masked(i int) bool {
	return m.cells[i] >= 0
}

// CellColor returns the paint color of a masked cell.
func (m *ObstacleMask) CellColor(x, y int) (Color, bool) {
	if !m.IsObstacleCell(x, y) {
		return Color{}, false
	}
	return m.rects[m.cells[y*m.w+x]].Color, true
}

// Paint writes every masked cell's color into the field channels.
func (m *ObstacleMask) Paint(f *TrailField) {
	if m.count == 0 {
		return
	}
	for i, ri := range m.cells {
		if ri < 0 {
			continue
		}
		c := m.rects[ri].Color
		f.Dep[i] = c.R
		f.Pre[i] = c.G
		f.Tint[i] = c.B
	}
}

// Empty reports whether the mask has no rectangles.
func (m *ObstacleMask) Empty() bool { return len(m.rects) == 0 }

// Len returns the number of rectangles.
func (m *ObstacleMask) Len() int { return len(m.rects) }

// Covered returns the number of masked cells.
func (m *ObstacleMask) Covered() int { return m.count }

// Obstacles returns a copy of the rectangle list.
func (m *ObstacleMask) Obstacles() []Obstacle {
	return append([]Obstacle(nil), m.rects...)
}
