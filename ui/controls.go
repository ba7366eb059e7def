package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/systems"
)

// Controls is the engine surface the control panel drives. *sim.Engine
// satisfies it.
type Controls interface {
	Tunables() sim.Tunables
	SetTunables(t sim.Tunables) error
	Population() int
	TargetAgents() int
	SetTargetAgents(n int) error
	Stimuli() []systems.Stimulus
	SetStimulusIntensity(i int, v float32) error
}

// ControlPanel renders raygui sliders bound to the engine tunables, the
// population reset, the stimulus intensity editor and the overlay toggles.
type ControlPanel struct {
	renderer *Renderer
	sliders  []SliderDescriptor

	x, y, width int32
	height      int32 // from the last Draw

	agents       float32 // pending target, applied by the reset button
	maxAgents    float32
	stimulus     int
	intensityMax float32
	synced       bool
	err          string
}

// NewControlPanel creates a panel at (x, y). maxAgents bounds the agent slider.
func NewControlPanel(x, y, width int32, maxAgents int) *ControlPanel {
	return &ControlPanel{
		renderer:  NewRenderer(),
		sliders:   TunableSliders(),
		x:         x,
		y:         y,
		width:     width,
		height:    400,
		maxAgents: float32(max(1, maxAgents)),
	}
}

// Contains reports whether a screen point lies over the panel.
func (c *ControlPanel) Contains(px, py float32) bool {
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+c.height)
}

func (c *ControlPanel) sync(s Controls) {
	c.agents = float32(s.TargetAgents())
	c.intensityMax = 50
	for _, st := range s.Stimuli() {
		c.intensityMax = max(c.intensityMax, 2*st.Intensity)
	}
	c.synced = true
}

// Draw renders the panel and applies any edits to s.
func (c *ControlPanel) Draw(s Controls, overlays *OverlayRegistry) {
	if !c.synced {
		c.sync(s)
	}
	r := c.renderer
	pad := r.Theme.Padding
	x := float32(c.x + pad)
	sliderW := float32(c.width - 2*pad - 70)

	r.DrawPanel(c.x, c.y, c.width, c.height)
	y := r.DrawSectionHeader(c.x+pad, c.y+pad, "Parameters")

	t := s.Tunables()
	changed := false
	for _, d := range c.sliders {
		rl.DrawText(d.Label, int32(x), y, r.Theme.FontSize, r.Theme.LabelColor)
		y += r.Theme.LineHeight
		cur := d.Get(&t)
		v := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: 16}, "", "", cur, d.Min, d.Max)
		rl.DrawText(fmt.Sprintf(d.Format, v), int32(x+sliderW+8), y, r.Theme.FontSize, r.Theme.ValueColor)
		if v != cur {
			d.Set(&t, v)
			changed = true
		}
		y += 24
	}
	if changed {
		c.setErr(s.SetTunables(t))
	}

	y = r.DrawSectionHeader(c.x+pad, y+4, "Population")
	y = r.DrawLabelValue(int32(x), y, "Agents", fmt.Sprintf("%d / %d", s.Population(), s.TargetAgents()))
	c.agents = float32(math.Round(float64(gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: 16}, "", "", c.agents, 0, c.maxAgents))))
	rl.DrawText(fmt.Sprintf("%.0f", c.agents), int32(x+sliderW+8), y, r.Theme.FontSize, r.Theme.ValueColor)
	y += 24
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: 140, Height: 22}, "Reset population") {
		c.setErr(s.SetTargetAgents(int(c.agents)))
	}
	y += 30

	if stimuli := s.Stimuli(); len(stimuli) > 0 {
		y = r.DrawSectionHeader(c.x+pad, y, "Stimulus")
		c.stimulus = min(c.stimulus, len(stimuli)-1)
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: 24, Height: 20}, "<") {
			c.stimulus = (c.stimulus + len(stimuli) - 1) % len(stimuli)
		}
		st := stimuli[c.stimulus]
		rl.DrawText(fmt.Sprintf("#%d at (%d, %d)", c.stimulus, st.X, st.Y), int32(x)+32, y+3, r.Theme.FontSize, r.Theme.ValueColor)
		if gui.Button(rl.Rectangle{X: x + sliderW - 24, Y: float32(y), Width: 24, Height: 20}, ">") {
			c.stimulus = (c.stimulus + 1) % len(stimuli)
		}
		y += 26
		st = stimuli[c.stimulus]
		v := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: 16}, "", "", st.Intensity, 0, c.intensityMax)
		rl.DrawText(fmt.Sprintf("%.1f", v), int32(x+sliderW+8), y, r.Theme.FontSize, r.Theme.ValueColor)
		if v != st.Intensity {
			c.setErr(s.SetStimulusIntensity(c.stimulus, v))
		}
		y += 26
	}

	if c.err != "" {
		y = r.DrawError(int32(x), y, c.err)
	}

	if overlays != nil {
		y = r.DrawSectionHeader(c.x+pad, y+4, "Overlays")
		for _, cat := range []string{"field", "panels"} {
			for _, desc := range overlays.ByCategory(cat) {
				y = c.drawToggle(int32(x), y, desc, overlays.IsEnabled(desc.ID))
			}
		}
	}

	c.height = y - c.y + pad
}

func (c *ControlPanel) setErr(err error) {
	if err != nil {
		c.err = err.Error()
		return
	}
	c.err = ""
}

func (c *ControlPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool) int32 {
	r := c.renderer
	status := rl.Color{R: 80, G: 80, B: 80, A: 255}
	name := r.Theme.LabelColor
	if enabled {
		status = rl.Color{R: 100, G: 200, B: 100, A: 255}
		name = rl.White
	}
	rl.DrawRectangle(x, y+3, 8, 8, status)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, name)

	key := fmt.Sprintf("[%s]", desc.KeyLabel)
	kw := rl.MeasureText(key, r.Theme.FontSize)
	rl.DrawText(key, c.x+c.width-r.Theme.Padding-kw, y, r.Theme.FontSize, rl.Gray)
	return y + r.Theme.LineHeight
}
