package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg       = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill     = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorText        = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim     = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorAngleBg     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorAngleNeedle = rl.Color{R: 255, G: 200, B: 100, A: 255}
)

// DrawLabel renders "name: value" and returns the height used.
func DrawLabel(x, y int32, name, text string) int32 {
	rl.DrawText(fmt.Sprintf("%s: %s", name, text), x, y, 14, ColorText)
	return 18
}

// DrawBar renders a horizontal bar scaled to maxVal.
func DrawBar(x, y int32, name string, value, maxVal float32) int32 {
	ratio := value / maxVal
	ratio = max(0, min(1, ratio))

	barWidth := int32(120)
	barHeight := int32(14)
	barX := x + 80

	rl.DrawText(name, x, y, 14, ColorTextDim)
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)
	rl.DrawRectangle(barX, y, int32(float32(barWidth)*ratio), barHeight, ColorBarFill)
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, 14, ColorTextDim)
	return 18
}

// DrawAngle renders a compass needle. Screen y grows downward, as does
// field y, so the needle matches the agent's on-screen direction.
func DrawAngle(x, y int32, name string, radians float32) int32 {
	size := int32(40)
	cx := x + 60 + size/2
	cy := y + size/2

	rl.DrawText(name, x, cy-7, 14, ColorTextDim)
	rl.DrawCircle(cx, cy, float32(size/2), ColorAngleBg)
	rl.DrawCircleLines(cx, cy, float32(size/2), ColorTextDim)

	needle := float32(size/2 - 4)
	rl.DrawLineEx(
		rl.Vector2{X: float32(cx), Y: float32(cy)},
		rl.Vector2{
			X: float32(cx) + needle*float32(math.Cos(float64(radians))),
			Y: float32(cy) + needle*float32(math.Sin(float64(radians))),
		},
		2,
		ColorAngleNeedle,
	)

	deg := math.Mod(float64(radians)*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	rl.DrawText(fmt.Sprintf("%.0f deg", deg), x+60+size+5, cy-7, 14, ColorTextDim)
	return size + 4
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, f Field) int32 {
	switch f.Widget {
	case WidgetBar:
		if v, ok := FloatValue(f.Value); ok {
			return DrawBar(x, y, f.Name, v, Max(f.Options))
		}
	case WidgetAngle:
		if v, ok := FloatValue(f.Value); ok {
			return DrawAngle(x, y, f.Name, v)
		}
	}
	return DrawLabel(x, y, f.Name, f.Text())
}
