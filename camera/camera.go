// Package camera maps the trail field onto the window.
package camera

import "math"

// Camera controls the viewport into the field. World coordinates are field
// cells; Zoom is screen pixels per cell.
type Camera struct {
	// Position is the camera center in cell coordinates
	X, Y float32

	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Field dimensions in cells
	WorldW, WorldH float32

	// Zoom constraints. MinZoom fits the whole field in the viewport.
	MinZoom, MaxZoom float32

	// Wrap selects toroidal panning for periodic fields. Without it the
	// camera center is clamped to the field.
	Wrap bool
}

// New creates a camera centered on the field, zoomed to fit.
func New(viewportW, viewportH, worldW, worldH float32, wrap bool) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   32,
		Wrap:      wrap,
	}
	c.MinZoom = c.fitZoom()
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	c.Zoom = c.MinZoom
	return c
}

// fitZoom is the largest zoom at which the whole field is visible.
func (c *Camera) fitZoom() float32 {
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

func (c *Camera) delta(to, from, size float32) float32 {
	if c.Wrap {
		return toroidalDelta(to, from, size)
	}
	return to - from
}

// WorldToScreen converts cell coordinates to screen coordinates.
// With Wrap set, the shortest toroidal offset from the camera center is used.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := c.delta(wx, c.X, c.WorldW)
	dy := c.delta(wy, c.Y, c.WorldH)
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to cell coordinates.
// The second result is false when the point lies outside a non-wrapping field.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32, inside bool) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	if c.Wrap {
		return mod(wx, c.WorldW), mod(wy, c.WorldH), true
	}
	inside = wx >= 0 && wx < c.WorldW && wy >= 0 && wy < c.WorldH
	return wx, wy, inside
}

// IsVisible reports whether a circle at (wx, wy) could be on screen.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	dx := c.delta(wx, c.X, c.WorldW)
	dy := c.delta(wy, c.Y, c.WorldH)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(dx) <= halfW && absf(dy) <= halfH
}

// Resize updates viewport dimensions and recalculates the fit zoom.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom()
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	x := c.X + dx/c.Zoom
	y := c.Y + dy/c.Zoom
	if c.Wrap {
		c.X = mod(x, c.WorldW)
		c.Y = mod(y, c.WorldH)
		return
	}
	c.X = clamp(x, 0, c.WorldW)
	c.Y = clamp(y, 0, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset recenters the camera and fits the field.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the cell-coordinate bounds of the visible area.
// With Wrap set, the bounds may extend past the field edges.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
