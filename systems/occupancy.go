package systems

// OccupancyIndex maps field cells to the agent slot standing on them.
// Each cell holds at most one agent. Slots are non-negative.
type OccupancyIndex struct {
	w, h  int
	cells []int32 // agent slot per cell, -1 when free
	count int
}

// NewOccupancyIndex creates an empty index for a w×h field.
func NewOccupancyIndex(w, h int) *OccupancyIndex {
	o := &OccupancyIndex{w: w, h: h, cells: make([]int32, w*h)}
	o.Clear()
	return o
}

func (o *OccupancyIndex) index(x, y int) (int, bool) {
	if x < 0 || x >= o.w || y < 0 || y >= o.h {
		return 0, false
	}
	return y*o.w + x, true
}

// TryOccupy places agent on cell (x, y) if the cell is free.
// It returns false for occupied or out-of-range cells.
func (o *OccupancyIndex) TryOccupy(x, y int, agent int32) bool {
	i, ok := o.index(x, y)
	if !ok || o.cells[i] >= 0 {
		return false
	}
	o.cells[i] = agent
	o.count++
	return true
}

// Release frees cell (x, y). Releasing a free cell is a no-op.
func (o *OccupancyIndex) Release(x, y int) {
	i, ok := o.index(x, y)
	if !ok || o.cells[i] < 0 {
		return
	}
	o.cells[i] = -1
	o.count--
}

// IsOccupied reports whether cell (x, y) holds an agent.
func (o *OccupancyIndex) IsOccupied(x, y int) bool {
	i, ok := o.index(x, y)
	return ok && o.cells[i] >= 0
}

// Occupant returns the agent on cell (x, y), if any.
func (o *OccupancyIndex) Occupant(x, y int) (int32, bool) {
	i, ok := o.index(x, y)
	if !ok || o.cells[i] < 0 {
		return -1, false
	}
	return o.cells[i], true
}

// Move transfers agent from one cell to another. It fails, changing
// nothing, when the destination holds a different agent. Moving within the
// same cell always succeeds.
func (o *OccupancyIndex) Move(fromX, fromY, toX, toY int, agent int32) bool {
	if fromX == toX && fromY == toY {
		return true
	}
	to, ok := o.index(toX, toY)
	if !ok {
		return false
	}
	if cur := o.cells[to]; cur >= 0 && cur != agent {
		return false
	}
	if from, ok := o.index(fromX, fromY); ok && o.cells[from] == agent {
		o.cells[from] = -1
		o.count--
	}
	if o.cells[to] != agent {
		o.cells[to] = agent
		o.count++
	}
	return true
}

// Count returns the number of occupied cells.
func (o *OccupancyIndex) Count() int { return o.count }

// Clear frees every cell.
func (o *OccupancyIndex) Clear() {
	for i := range o.cells {
		o.cells[i] = -1
	}
	o.count = 0
}

// Each calls fn for every occupied cell in row-major order.
func (o *OccupancyIndex) Each(fn func(x, y int, agent int32)) {
	for i, a := range o.cells {
		if a >= 0 {
			fn(i%o.w, i/o.w, a)
		}
	}
}
