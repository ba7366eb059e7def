// Package ui provides a descriptor-driven UI for the simulation host.
// Sliders and overlays are defined through metadata so the panel layout
// follows the engine's tunables instead of hard-coding them.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/sim"
)

// SliderDescriptor binds one slider to a tunable engine parameter.
type SliderDescriptor struct {
	ID     string
	Label  string
	Min    float32
	Max    float32
	Format string // Printf format for the value readout

	Get func(t *sim.Tunables) float32
	Set func(t *sim.Tunables, v float32)
}

// TunableSliders returns the live sliders. Changes apply on the next tick.
func TunableSliders() []SliderDescriptor {
	return []SliderDescriptor{
		{
			ID: "sensor_distance", Label: "Sensor distance", Min: 0, Max: 40, Format: "%.1f",
			Get: func(t *sim.Tunables) float32 { return t.SensorDistance },
			Set: func(t *sim.Tunables, v float32) { t.SensorDistance = v },
		},
		{
			ID: "sensor_angle", Label: "Sensor angle", Min: 0, Max: 3.14159, Format: "%.2f rad",
			Get: func(t *sim.Tunables) float32 { return t.SensorAngle },
			Set: func(t *sim.Tunables, v float32) { t.SensorAngle = v },
		},
		{
			ID: "rotation_angle", Label: "Rotation angle", Min: 0, Max: 3.14159, Format: "%.2f rad",
			Get: func(t *sim.Tunables) float32 { return t.RotationAngle },
			Set: func(t *sim.Tunables, v float32) { t.RotationAngle = v },
		},
		{
			ID: "step_size", Label: "Step size", Min: 0.1, Max: 5, Format: "%.2f",
			Get: func(t *sim.Tunables) float32 { return t.StepSize },
			Set: func(t *sim.Tunables, v float32) { t.StepSize = v },
		},
		{
			ID: "deposition", Label: "Deposition", Min: 0, Max: 20, Format: "%.1f",
			Get: func(t *sim.Tunables) float32 { return t.DepositionAmount },
			Set: func(t *sim.Tunables, v float32) { t.DepositionAmount = v },
		},
		{
			ID: "decay", Label: "Decay factor", Min: 0, Max: 0.999, Format: "%.3f",
			Get: func(t *sim.Tunables) float32 { return t.DecayFactor },
			Set: func(t *sim.Tunables, v float32) { t.DecayFactor = v },
		},
	}
}

// Theme defines colors and sizes for consistent UI styling.
type Theme struct {
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	ErrorColor    rl.Color
	BarBg         rl.Color
	BarFill       rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		ErrorColor:     rl.Color{R: 230, G: 90, B: 90, A: 255},
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     120,
		BarHeight:      12,
		FontSize:       14,
		HeaderFontSize: 16,
	}
}
