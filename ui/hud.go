package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Tick         int32
	Agents       int
	TargetAgents int
	Stimuli      int
	StepsPerTick int
	FPS          int32
	Paused       bool
	Zoom         float32
	Recording    bool
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %s / %s | Stimuli: %d",
			humanize.Comma(int64(data.Agents)), humanize.Comma(int64(data.TargetAgents)), data.Stimuli),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %s | Steps/frame: %d | FPS: %d | Zoom: %.1fx",
			humanize.Comma(int64(data.Tick)), data.StepsPerTick, data.FPS, data.Zoom),
		10, 55, 16, rl.LightGray,
	)

	status, color := "Running", rl.Green
	if data.Paused {
		status, color = "PAUSED", rl.Yellow
	}
	if data.Recording {
		status += " | REC"
	}
	rl.DrawText(status, 10, 75, 16, color)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders phase averages in tick order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding
	height := int32(len(telemetry.Phases)+4)*r.Theme.LineHeight + 2*pad
	r.DrawPanel(p.x, p.y, p.width, height)

	y := r.DrawSectionHeader(p.x+pad, p.y+pad, "Tick Performance")
	y = r.DrawLabelValue(p.x+pad, y, "Avg tick", stats.AvgTick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(p.x+pad, y, "Ticks/s", fmt.Sprintf("%.0f", stats.TicksPerSecond))
	y = r.DrawLabelValue(p.x+pad, y, "Agent steps/s", fmt.Sprintf("%.2gM", stats.AgentSteps/1e6))

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase.String(), stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			p.x+pad, y, 12, color,
		)
		y += r.Theme.LineHeight
	}
}
