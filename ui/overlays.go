package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayAgents    OverlayID = "agents"
	OverlayStimuli   OverlayID = "stimuli"
	OverlayObstacles OverlayID = "obstacles"
	OverlayControls  OverlayID = "controls"
	OverlayPerf      OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // Keyboard key to toggle (0 = no key)
	KeyLabel string // Key label for display
	Category string // "field" or "panels"
	Default  bool   // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{ID: OverlayAgents, Name: "Agents", Key: rl.KeyA, KeyLabel: "A", Category: "field", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayStimuli, Name: "Stimuli", Key: rl.KeyS, KeyLabel: "S", Category: "field", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayObstacles, Name: "Obstacle outlines", Key: rl.KeyO, KeyLabel: "O", Category: "field"})
	r.Register(OverlayDescriptor{ID: OverlayControls, Name: "Controls", Key: rl.KeyTab, KeyLabel: "Tab", Category: "panels", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayPerf, Name: "Performance", Key: rl.KeyF3, KeyLabel: "F3", Category: "panels"})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on or off and returns the new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category, in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// HandleInput toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleInput() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
