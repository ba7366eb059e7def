// Package renderer draws the trail field and its overlays with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/systems"
)

// agentZoom is the zoom above which individual agents are drawn.
const agentZoom = 4

var (
	colorStimulus = rl.Color{R: 255, G: 255, B: 255, A: 200}
	colorAgent    = rl.Color{R: 255, G: 240, B: 120, A: 255}
	colorBorder   = rl.Color{R: 70, G: 70, B: 80, A: 255}
)

// FieldRenderer uploads the packed field into a texture each frame and
// draws it through the camera.
type FieldRenderer struct {
	tex    rl.Texture2D
	pixels []color.RGBA
	texW   int
	texH   int
	wrap   bool

	Gain          float32
	ShowStimuli   bool
	ShowAgents    bool
	ShowObstacles bool

	initialized bool
}

// NewFieldRenderer creates a renderer. Init must run after the window opens.
func NewFieldRenderer(gain float32, wrap bool) *FieldRenderer {
	return &FieldRenderer{
		Gain:        gain,
		wrap:        wrap,
		ShowStimuli: true,
		ShowAgents:  true,
	}
}

// Init creates the field texture.
func (r *FieldRenderer) Init(w, h int) {
	if r.initialized {
		return
	}
	r.texW = w
	r.texH = h

	img := rl.GenImageColor(w, h, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	if r.wrap {
		rl.SetTextureWrap(r.tex, rl.WrapRepeat)
	} else {
		rl.SetTextureWrap(r.tex, rl.WrapClamp)
	}
	r.initialized = true
}

// Update packs the field and uploads it.
func (r *FieldRenderer) Update(f *systems.TrailField) {
	if !r.initialized {
		r.Init(f.W, f.H)
	}
	if f.W != r.texW || f.H != r.texH {
		return
	}
	r.pixels = f.PackRGBA(r.pixels, r.Gain)
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw renders the field and overlays for the engine through cam.
func (r *FieldRenderer) Draw(e *sim.Engine, cam *camera.Camera) {
	if !r.initialized {
		return
	}

	if r.wrap {
		// The repeated texture covers the whole viewport.
		minX, minY, maxX, maxY := cam.VisibleWorldBounds()
		src := rl.Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
		dst := rl.Rectangle{X: 0, Y: 0, Width: cam.ViewportW, Height: cam.ViewportH}
		rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
	} else {
		x0, y0 := cam.WorldToScreen(0, 0)
		src := rl.Rectangle{Width: float32(r.texW), Height: float32(r.texH)}
		dst := rl.Rectangle{X: x0, Y: y0, Width: float32(r.texW) * cam.Zoom, Height: float32(r.texH) * cam.Zoom}
		rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
		rl.DrawRectangleLinesEx(dst, 1, colorBorder)
	}

	if r.ShowObstacles {
		r.drawObstacles(e.Mask(), cam)
	}
	if r.ShowStimuli {
		r.drawStimuli(e.Stimuli(), cam)
	}
	if r.ShowAgents && cam.Zoom >= agentZoom {
		r.drawAgents(e, cam)
	}
}

func (r *FieldRenderer) drawObstacles(m *systems.ObstacleMask, cam *camera.Camera) {
	for _, o := range m.Obstacles() {
		x, y := cam.WorldToScreen(o.X, o.Y)
		c := rl.Color{R: uint8(o.Color.R * 255), G: uint8(o.Color.G * 255), B: uint8(o.Color.B * 255), A: 255}
		rl.DrawRectangleLinesEx(rl.Rectangle{X: x, Y: y, Width: o.W * cam.Zoom, Height: o.H * cam.Zoom}, 1, c)
	}
}

func (r *FieldRenderer) drawStimuli(stimuli []systems.Stimulus, cam *camera.Camera) {
	radius := max(3, cam.Zoom)
	for _, s := range stimuli {
		cx, cy := float32(s.X)+0.5, float32(s.Y)+0.5
		if !cam.IsVisible(cx, cy, 1) {
			continue
		}
		x, y := cam.WorldToScreen(cx, cy)
		rl.DrawCircleLines(int32(x), int32(y), radius, colorStimulus)
	}
}

func (r *FieldRenderer) drawAgents(e *sim.Engine, cam *camera.Camera) {
	size := max(1, cam.Zoom/3)
	for _, a := range e.Agents() {
		if !cam.IsVisible(a.X, a.Y, 1) {
			continue
		}
		x, y := cam.WorldToScreen(a.X, a.Y)
		rl.DrawRectangleV(rl.Vector2{X: x - size/2, Y: y - size/2}, rl.Vector2{X: size, Y: size}, colorAgent)
	}
}

// Unload frees GPU resources.
func (r *FieldRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
