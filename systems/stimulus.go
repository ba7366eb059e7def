package systems

import (
	"errors"
	"fmt"
)

// ErrStimulusIndex is returned for stimulus indices outside the list.
var ErrStimulusIndex = errors.New("stimulus index out of range")

// StimulusMode selects how stimuli enter the field.
type StimulusMode uint8

const (
	StimulusNone       StimulusMode = iota
	StimulusAdditive                // intensity added to deposition before every field pass
	StimulusPrePattern              // pre-pattern channel, rebuilt and reapplied
)

// Stimulus is a point source at a field cell.
type Stimulus struct {
	X, Y      int
	Intensity float32
}

// StimulusOverlay owns the stimulus list and writes it into a TrailField.
type StimulusOverlay struct {
	mode           StimulusMode
	weight         float32 // pre-pattern weight applied to centers
	neighborFactor float32 // intensity share added to the 8 neighbours on reapply

	stimuli []Stimulus
	built   int // list length at the last rebuild, -1 before the first
}

// NewStimulusOverlay creates an overlay with an initial stimulus list.
func NewStimulusOverlay(mode StimulusMode, weight, neighborFactor float32, stimuli []Stimulus) *StimulusOverlay {
	return &StimulusOverlay{
		mode:           mode,
		weight:         weight,
		neighborFactor: neighborFactor,
		stimuli:        append([]Stimulus(nil), stimuli...),
		built:          -1,
	}
}

// Mode returns the overlay mode.
func (o *StimulusOverlay) Mode() StimulusMode { return o.mode }

// Len returns the number of stimuli.
func (o *StimulusOverlay) Len() int { return len(o.stimuli) }

// Stimuli returns a copy of the stimulus list.
func (o *StimulusOverlay) Stimuli() []Stimulus {
	return append([]Stimulus(nil), o.stimuli...)
}

// Add appends a stimulus.
func (o *StimulusOverlay) Add(s Stimulus) {
	o.stimuli = append(o.stimuli, s)
}

// Remove deletes the stimulus at index i, keeping the order of the rest.
func (o *StimulusOverlay) Remove(i int) error {
	if i < 0 || i >= len(o.stimuli) {
		return fmt.Errorf("remove stimulus %d of %d: %w", i, len(o.stimuli), ErrStimulusIndex)
	}
	o.stimuli = append(o.stimuli[:i], o.stimuli[i+1:]...)
	return nil
}

// SetIntensity changes the intensity of the stimulus at index i.
func (o *StimulusOverlay) SetIntensity(i int, v float32) error {
	if i < 0 || i >= len(o.stimuli) {
		return fmt.Errorf("set stimulus %d of %d: %w", i, len(o.stimuli), ErrStimulusIndex)
	}
	o.stimuli[i].Intensity = v
	return nil
}

// NeedsRebuild reports whether the list length changed since the last rebuild.
func (o *StimulusOverlay) NeedsRebuild() bool {
	return len(o.stimuli) != o.built
}

// MarkBuilt records the current list length as built.
func (o *StimulusOverlay) MarkBuilt() { o.built = len(o.stimuli) }

// cell returns the flat index of an applicable stimulus.
func (o *StimulusOverlay) cell(f *TrailField, s Stimulus) (int, bool) {
	if s.X < 0 || s.X >= f.W || s.Y < 0 || s.Y >= f.H {
		return 0, false
	}
	i := s.Y*f.W + s.X
	if f.mask.masked(i) {
		return 0, false
	}
	return i, true
}

// Rebuild zeroes the pre-pattern channel and sets each stimulus center to
// intensity × weight. Obstacle cells are repainted afterwards.
func (o *StimulusOverlay) Rebuild(f *TrailField) {
	clear(f.Pre)
	o.assertCenters(f)
	f.Paint()
	o.MarkBuilt()
}

// Reapply sets each center to intensity × weight and adds
// intensity × neighborFactor to each of its 8 clamped neighbours that
// differ from the center, one stimulus after another in list order. A later
// stimulus's neighbour term stays on an earlier stimulus's center.
func (o *StimulusOverlay) Reapply(f *TrailField) {
	for _, s := range o.stimuli {
		i, ok := o.cell(f, s)
		if !ok {
			continue
		}
		f.Pre[i] = s.Intensity * o.weight

		add := s.Intensity * o.neighborFactor
		for dy := -1; dy <= 1; dy++ {
			ny := clampInt(s.Y+dy, f.H)
			for dx := -1; dx <= 1; dx++ {
				nx := clampInt(s.X+dx, f.W)
				if nx == s.X && ny == s.Y {
					continue
				}
				j := ny*f.W + nx
				if f.mask.masked(j) {
					continue
				}
				f.Pre[j] += add
			}
		}
	}
}

func (o *StimulusOverlay) assertCenters(f *TrailField) {
	for _, s := range o.stimuli {
		if i, ok := o.cell(f, s); ok {
			f.Pre[i] = s.Intensity * o.weight
		}
	}
}

// InjectAdditive adds each stimulus intensity to the deposition channel.
func (o *StimulusOverlay) InjectAdditive(f *TrailField) {
	for _, s := range o.stimuli {
		if i, ok := o.cell(f, s); ok {
			f.Dep[i] += s.Intensity
		}
	}
}

// BeforeStep runs the part of the overlay that precedes the field pass:
// a rebuild when the list length changed, and additive injection.
// It reports whether a rebuild happened.
func (o *StimulusOverlay) BeforeStep(f *TrailField) bool {
	rebuilt := false
	switch o.mode {
	case StimulusPrePattern:
		if o.NeedsRebuild() {
			o.Rebuild(f)
			rebuilt = true
		}
	case StimulusAdditive:
		o.InjectAdditive(f)
	}
	return rebuilt
}

// AfterStep reapplies pre-pattern stimuli once the field pass has run.
func (o *StimulusOverlay) AfterStep(f *TrailField) {
	if o.mode == StimulusPrePattern {
		o.Reapply(f)
	}
}
