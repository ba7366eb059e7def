package systems

import "testing"

func TestOccupancyIndex(t *testing.T) {
	o := NewOccupancyIndex(4, 4)

	if !o.TryOccupy(1, 1, 0) {
		t.Fatal("TryOccupy on a free cell failed")
	}
	if o.TryOccupy(1, 1, 1) {
		t.Error("TryOccupy on an occupied cell succeeded")
	}
	if o.TryOccupy(4, 0, 2) || o.TryOccupy(0, -1, 2) {
		t.Error("TryOccupy outside the grid succeeded")
	}
	if a, ok := o.Occupant(1, 1); !ok || a != 0 {
		t.Errorf("Occupant(1,1) = %d/%v, want 0", a, ok)
	}
	if o.Count() != 1 {
		t.Errorf("Count = %d, want 1", o.Count())
	}

	o.Release(1, 1)
	o.Release(1, 1)
	if o.IsOccupied(1, 1) || o.Count() != 0 {
		t.Errorf("after Release: occupied = %v, count = %d", o.IsOccupied(1, 1), o.Count())
	}
}

func TestOccupancyMove(t *testing.T) {
	o := NewOccupancyIndex(4, 4)
	o.TryOccupy(0, 0, 0)
	o.TryOccupy(2, 0, 1)

	if !o.Move(0, 0, 0, 0, 0) {
		t.Error("move within the same cell failed")
	}
	if o.Move(0, 0, 2, 0, 0) {
		t.Error("move onto another agent succeeded")
	}
	if a, _ := o.Occupant(0, 0); a != 0 {
		t.Errorf("failed move changed the source cell: %d", a)
	}
	if !o.Move(0, 0, 1, 0, 0) {
		t.Fatal("move to a free cell failed")
	}
	if o.IsOccupied(0, 0) {
		t.Error("source cell still occupied after move")
	}
	if a, ok := o.Occupant(1, 0); !ok || a != 0 {
		t.Errorf("Occupant(1,0) = %d/%v, want 0", a, ok)
	}
	if o.Count() != 2 {
		t.Errorf("Count = %d, want 2", o.Count())
	}
	if o.Move(1, 0, 5, 0, 0) {
		t.Error("move outside the grid succeeded")
	}
}

func TestOccupancyEachAndClear(t *testing.T) {
	o := NewOccupancyIndex(3, 3)
	o.TryOccupy(2, 0, 5)
	o.TryOccupy(0, 2, 7)

	var got []int32
	o.Each(func(x, y int, agent int32) {
		got = append(got, agent)
	})
	if len(got) != 2 || got[0] != 5 || got[1] != 7 {
		t.Errorf("Each visited %v, want [5 7] in row-major order", got)
	}

	o.Clear()
	if o.Count() != 0 || o.IsOccupied(2, 0) {
		t.Error("Clear left cells occupied")
	}
}
