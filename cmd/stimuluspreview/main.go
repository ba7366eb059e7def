// Stimulus noise preview tool - interactive layout of procedural stimuli with sliders.
//
// Usage: go run ./cmd/stimuluspreview [-config path]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// slider binds one gui.SliderBar to a noise parameter.
type slider struct {
	label    string
	min, max float32
	format   string
	get      func(*config.NoiseStimulusConfig) float32
	set      func(*config.NoiseStimulusConfig, float32)
}

var sliders = []slider{
	{"Spacing (lattice cells)", 2, 40, "%.0f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Spacing) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Spacing = int(v) }},
	{"Scale (noise frequency)", 0.001, 0.2, "%.3f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Scale) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Scale = float64(v) }},
	{"Octaves", 1, 6, "%.0f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Octaves) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Octaves = int(v) }},
	{"Threshold (higher = sparser)", 0, 0.95, "%.2f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Threshold) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Threshold = float64(v) }},
	{"Intensity at noise 1", 1, 100, "%.1f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Intensity) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Intensity = float64(v) }},
	{"Seed", 0, 99999, "%.0f",
		func(c *config.NoiseStimulusConfig) float32 { return float32(c.Seed) },
		func(c *config.NoiseStimulusConfig, v float32) { c.Seed = int64(v) }},
}

type preview struct {
	cfg     *config.Config
	mask    *systems.ObstacleMask
	field   *systems.TrailField
	stimuli []systems.Stimulus
	tex     rl.Texture2D
	pixels  []color.RGBA
}

func newPreview(cfg *config.Config) *preview {
	w, h := cfg.Field.Width, cfg.Field.Height
	obstacles := make([]systems.Obstacle, len(cfg.Obstacles))
	for i, o := range cfg.Obstacles {
		obstacles[i] = systems.Obstacle{
			X: float32(o.X), Y: float32(o.Y),
			W: float32(o.Width), H: float32(o.Height),
		}
	}
	mask := systems.NewObstacleMask(w, h, obstacles)

	img := rl.GenImageColor(w, h, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	return &preview{
		cfg:   cfg,
		mask:  mask,
		field: systems.NewTrailField(w, h, 0, mask),
		tex:   tex,
	}
}

// regenerate lays out stimuli and renders their pre-pattern footprint.
func (p *preview) regenerate(noise config.NoiseStimulusConfig) {
	p.stimuli = systems.GenerateNoiseStimuli(p.field.W, p.field.H, noise, p.mask)

	overlay := systems.NewStimulusOverlay(systems.StimulusPrePattern,
		1, float32(p.cfg.Stimulus.NeighborFactor), p.stimuli)
	p.field.Reset()
	overlay.Rebuild(p.field)
	overlay.Reapply(p.field)

	_, maxPre := p.field.Max()
	gain := float32(1)
	if maxPre > 0 {
		gain = 1 / maxPre
	}
	p.pixels = p.field.PackRGBA(p.pixels, gain)
	rl.UpdateTexture(p.tex, p.pixels)
}

func (p *preview) totalIntensity() float32 {
	var sum float32
	for _, s := range p.stimuli {
		sum += s.Intensity
	}
	return sum
}

func noiseYAML(noise config.NoiseStimulusConfig) string {
	out, err := yaml.Marshal(map[string]any{
		"stimulus": map[string]any{"noise": noise},
	})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Stimulus Noise Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	p := newPreview(cfg)
	defer rl.UnloadTexture(p.tex)

	defaults := cfg.Stimulus.Noise
	defaults.Enabled = true
	noise := defaults
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			p.regenerate(noise)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			p.tex,
			rl.Rectangle{X: 0, Y: 0, Width: float32(p.field.W), Height: float32(p.field.H)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Field: %dx%d  Stimuli: %d  Total intensity: %.1f",
			p.field.W, p.field.H, len(p.stimuli), p.totalIntensity()), 15, statsY, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Noise Stimulus Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			cur := s.get(&noise)
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				cur, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, cur), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != cur {
				s.set(&noise, v)
				needsRegen = true
			}
			panelY += 35
		}

		panelY += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			noise.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			noise = defaults
			needsRegen = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		text := noiseYAML(noise)
		rl.DrawText(text, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}
