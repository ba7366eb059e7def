package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/ui"
)

const controlsLegend = "[Space] pause  [N] step  [</>] speed  [R] reset  [Wheel/+/-] zoom  [Arrows/MMB] pan  [Home] fit  [Click] inspect"

// Draw renders the field, overlays and UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.field.ShowAgents = g.overlays.IsEnabled(ui.OverlayAgents)
	g.field.ShowStimuli = g.overlays.IsEnabled(ui.OverlayStimuli)
	g.field.ShowObstacles = g.overlays.IsEnabled(ui.OverlayObstacles)
	g.field.Update(g.engine.Field())
	g.field.Draw(g.engine, g.camera)

	g.inspector.DrawSelectionHighlight(g.engine, g.camera)

	g.drawUI()

	rl.EndDrawing()
}

// drawUI renders HUD, panels and the inspector.
func (g *Game) drawUI() {
	g.hud.Draw(ui.HUDData{
		Title:        "Slime",
		Tick:         g.engine.TickCount(),
		Agents:       g.engine.Population(),
		TargetAgents: g.engine.TargetAgents(),
		Stimuli:      len(g.engine.Stimuli()),
		StepsPerTick: g.stepsPerUpdate,
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		Zoom:         g.camera.Zoom / g.camera.MinZoom,
		Recording:    g.recording(),
	})

	if g.overlays.IsEnabled(ui.OverlayControls) {
		g.controls.Draw(g.engine, g.overlays)
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	g.inspector.Draw(g.engine)

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)
}
