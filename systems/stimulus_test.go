package systems

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestRebuildIdempotent(t *testing.T) {
	f := NewTrailField(10, 10, 0.5, nil)
	defer f.Close()
	o := NewStimulusOverlay(StimulusPrePattern, 0.1, 0.5, []Stimulus{
		{X: 2, Y: 2, Intensity: 10},
		{X: 7, Y: 7, Intensity: 5},
	})

	f.Pre[0] = 3 // stale value cleared by the rebuild
	o.Rebuild(f)
	first := append([]float32(nil), f.Pre...)
	o.Rebuild(f)

	for i := range first {
		if first[i] != f.Pre[i] {
			t.Fatalf("cell %d changed between rebuilds: %v -> %v", i, first[i], f.Pre[i])
		}
	}
	if !near(f.Pre[2*10+2], 1) || !near(f.Pre[7*10+7], 0.5) {
		t.Errorf("centers = %v, %v, want 1, 0.5", f.Pre[2*10+2], f.Pre[7*10+7])
	}
	if f.Pre[0] != 0 {
		t.Errorf("pre(0,0) = %v, want 0", f.Pre[0])
	}
	if o.NeedsRebuild() {
		t.Error("NeedsRebuild after Rebuild")
	}
}

func TestRebuildSkipsOutOfGridAndObstacles(t *testing.T) {
	mask := NewObstacleMask(6, 6, []Obstacle{{X: 0, Y: 0, W: 1, H: 1, Color: Color{G: 0.3}}})
	f := NewTrailField(6, 6, 0.5, mask)
	defer f.Close()
	o := NewStimulusOverlay(StimulusPrePattern, 1, 0.5, []Stimulus{
		{X: 0, Y: 0, Intensity: 9},
		{X: 6, Y: 2, Intensity: 9},
		{X: -1, Y: 2, Intensity: 9},
	})

	o.Rebuild(f)
	if f.Pre[0] != 0.3 {
		t.Errorf("obstacle cell pre = %v, want paint 0.3", f.Pre[0])
	}
	if got := f.TotalPrepattern(); !near(got, 0.3) {
		t.Errorf("TotalPrepattern = %v, want only the obstacle paint", got)
	}
}

func TestReapply(t *testing.T) {
	f := NewTrailField(10, 10, 0.5, nil)
	defer f.Close()
	o := NewStimulusOverlay(StimulusPrePattern, 0.1, 0.5, []Stimulus{{X: 5, Y: 5, Intensity: 10}})

	o.Reapply(f)
	if !near(f.Pre[5*10+5], 1) {
		t.Errorf("center = %v, want 1", f.Pre[5*10+5])
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if got := f.Pre[(5+dy)*10+5+dx]; !near(got, 5) {
				t.Errorf("neighbour (%d,%d) = %v, want 5", 5+dx, 5+dy, got)
			}
		}
	}

	// Neighbour terms accumulate on each reapply.
	o.Reapply(f)
	if got := f.Pre[4*10+4]; !near(got, 10) {
		t.Errorf("neighbour after second reapply = %v, want 10", got)
	}
	if !near(f.Pre[5*10+5], 1) {
		t.Errorf("center after second reapply = %v, want 1", f.Pre[5*10+5])
	}
}

func TestReapplyOverlappingCentersInListOrder(t *testing.T) {
	f := NewTrailField(10, 10, 0.5, nil)
	defer f.Close()
	o := NewStimulusOverlay(StimulusPrePattern, 0.1, 0.5, []Stimulus{
		{X: 2, Y: 2, Intensity: 10},
		{X: 3, Y: 2, Intensity: 10},
	})

	o.Reapply(f)
	// The second stimulus adds its neighbour term onto the first center
	// after that center was set; its own center is set after the first
	// stimulus's neighbour add and so stays at intensity × weight.
	if got := f.Pre[2*10+2]; !near(got, 6) {
		t.Errorf("first center = %v, want 6", got)
	}
	if got := f.Pre[2*10+3]; !near(got, 1) {
		t.Errorf("second center = %v, want 1", got)
	}
	// (2,1) neighbours both stimuli.
	if got := f.Pre[1*10+2]; !near(got, 10) {
		t.Errorf("shared neighbour = %v, want 10", got)
	}
	// (4,2) neighbours only the second.
	if got := f.Pre[2*10+4]; !near(got, 5) {
		t.Errorf("outer neighbour = %v, want 5", got)
	}
}

func TestInjectAdditive(t *testing.T) {
	f := NewTrailField(4, 4, 0.5, nil)
	defer f.Close()
	o := NewStimulusOverlay(StimulusAdditive, 0.1, 0.5, []Stimulus{{X: 1, Y: 2, Intensity: 3}})

	if o.BeforeStep(f) {
		t.Error("additive mode reported a rebuild")
	}
	o.BeforeStep(f)
	if got := f.Dep[2*4+1]; got != 6 {
		t.Errorf("deposition = %v after two injections, want 6", got)
	}
	if got := f.TotalPrepattern(); got != 0 {
		t.Errorf("additive mode touched pre-pattern: %v", got)
	}
}

func TestBeforeStepRebuildsOnCardinalityChange(t *testing.T) {
	f := NewTrailField(8, 8, 0.5, nil)
	defer f.Close()
	o := NewStimulusOverlay(StimulusPrePattern, 1, 0.5, []Stimulus{{X: 1, Y: 1, Intensity: 1}})

	if !o.BeforeStep(f) {
		t.Fatal("first BeforeStep did not rebuild")
	}
	if o.BeforeStep(f) {
		t.Error("BeforeStep rebuilt without a change")
	}

	// Intensity edits keep the cardinality.
	if err := o.SetIntensity(0, 4); err != nil {
		t.Fatalf("SetIntensity: %v", err)
	}
	if o.BeforeStep(f) {
		t.Error("intensity change triggered a cardinality rebuild")
	}

	o.Add(Stimulus{X: 6, Y: 6, Intensity: 2})
	if !o.BeforeStep(f) {
		t.Error("Add did not trigger a rebuild")
	}
	if err := o.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !o.BeforeStep(f) {
		t.Error("Remove did not trigger a rebuild")
	}
	if f.Pre[1*8+1] != 0 || f.Pre[6*8+6] != 2 {
		t.Errorf("after remove: pre(1,1) = %v, pre(6,6) = %v, want 0, 2", f.Pre[1*8+1], f.Pre[6*8+6])
	}
}

func TestStimulusIndexErrors(t *testing.T) {
	o := NewStimulusOverlay(StimulusPrePattern, 1, 0.5, nil)
	if err := o.Remove(0); !errors.Is(err, ErrStimulusIndex) {
		t.Errorf("Remove(0) = %v, want ErrStimulusIndex", err)
	}
	if err := o.SetIntensity(-1, 1); !errors.Is(err, ErrStimulusIndex) {
		t.Errorf("SetIntensity(-1) = %v, want ErrStimulusIndex", err)
	}

	o.Add(Stimulus{X: 1, Y: 1, Intensity: 1})
	list := o.Stimuli()
	list[0].Intensity = 99
	if o.Stimuli()[0].Intensity != 1 {
		t.Error("Stimuli returned the internal slice")
	}
}
