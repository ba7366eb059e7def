package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/sim"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 28
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
	ColorHighlight   = rl.Color{R: 255, G: 220, B: 80, A: 255}
)

// pickRadius is the screen distance in pixels within which a click selects an agent.
const pickRadius = 12

// Inspector tracks the selected agent and draws its panel.
type Inspector struct {
	slot        int
	hasSelected bool

	panelX, panelY int32
	screenWidth    int32
	screenHeight   int32
}

// NewInspector creates an inspector anchored to the right edge.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	return &Inspector{
		panelX:       screenWidth - PanelWidth - 10,
		panelY:       10,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
	}
}

// Resize re-anchors the panel.
func (ins *Inspector) Resize(w, h int32) {
	ins.screenWidth = w
	ins.screenHeight = h
	ins.panelX = w - PanelWidth - 10
}

// Select marks slot as the inspected agent.
func (ins *Inspector) Select(slot int) {
	ins.slot = slot
	ins.hasSelected = slot >= 0
}

// Deselect clears the selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the inspected slot.
func (ins *Inspector) Selected() (int, bool) {
	return ins.slot, ins.hasSelected
}

// HandleInput selects the agent under a left click and deselects on a
// right click or Escape.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, e *sim.Engine, cam *camera.Camera) {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	wx, wy, inside := cam.ScreenToWorld(mouseX, mouseY)
	if !inside {
		return
	}
	ins.Select(e.NearestAgent(wx, wy, pickRadius/cam.Zoom))
}

// DrawSelectionHighlight circles the selected agent.
func (ins *Inspector) DrawSelectionHighlight(e *sim.Engine, cam *camera.Camera) {
	if !ins.hasSelected {
		return
	}
	pos, _, _, ok := e.AgentComponents(ins.slot)
	if !ok {
		return
	}
	sx, sy := cam.WorldToScreen(pos.X, pos.Y)
	r := max(6, cam.Zoom*1.5)
	rl.DrawCircleLines(int32(sx), int32(sy), r, ColorHighlight)
	rl.DrawCircleLines(int32(sx), int32(sy), r+1, ColorHighlight)
}

// Draw renders the panel for the selected agent. A selection that no
// longer exists, e.g. after a population reset, is dropped.
func (ins *Inspector) Draw(e *sim.Engine) {
	if !ins.hasSelected {
		return
	}
	pos, head, agent, ok := e.AgentComponents(ins.slot)
	if !ok {
		ins.Deselect()
		return
	}
	front, left, right, _ := e.SensorReadings(ins.slot)

	x := ins.panelX
	y := ins.panelY
	height := int32(360)

	rl.DrawRectangle(x, y, PanelWidth, height, ColorPanelBg)
	rl.DrawRectangleLines(x, y, PanelWidth, height, ColorPanelBorder)
	rl.DrawRectangle(x, y, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("Agent #%d", agent.Slot), x+PanelPadding, y+6, 16, rl.White)

	cy := y + HeaderHeight + 6
	cx := x + PanelPadding

	cy = ins.drawSection(cx, cy, "Position")
	for _, f := range ExtractFields(pos) {
		cy += DrawField(cx, cy, f)
	}
	cy = ins.drawSection(cx, cy, "Heading")
	for _, f := range ExtractFields(head) {
		cy += DrawField(cx, cy, f)
	}
	cy = ins.drawSection(cx, cy, "Agent")
	for _, f := range ExtractFields(agent) {
		cy += DrawField(cx, cy, f)
	}

	cy = ins.drawSection(cx, cy, "Sensors")
	scale := max(front, left, right, 1e-6)
	cy += DrawBar(cx, cy, "front", front, scale)
	cy += DrawBar(cx, cy, "left", left, scale)
	cy += DrawBar(cx, cy, "right", right, scale)

	f := e.Field()
	px, py := pos.Cell()
	if px >= 0 && px < f.W && py >= 0 && py < f.H {
		i := py*f.W + px
		cy = ins.drawSection(cx, cy, "Cell")
		DrawLabel(cx, cy, "dep/pre", fmt.Sprintf("%.3f / %.3f", f.Dep[i], f.Pre[i]))
	}
}

func (ins *Inspector) drawSection(x, y int32, title string) int32 {
	rl.DrawRectangle(x-4, y, PanelWidth-2*PanelPadding+8, 18, ColorSection)
	rl.DrawText(title, x, y+2, 14, ColorSectionText)
	return y + 22
}
