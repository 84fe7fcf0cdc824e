// Package interact handles user interactions like pan and zoom.
package interact

import (
	"gioui.org/io/pointer"
	"gioui.org/layout"
)

// PixelsPerMeter is the screen scale at zoom 1.
const PixelsPerMeter = 100

const (
	minZoom = 0.05
	maxZoom = 20
)

// Camera maps cell coordinates (meters, Y up) to screen pixels (Y down).
type Camera struct {
	OffsetX float32 // screen position of the world origin
	OffsetY float32
	Zoom    float32

	dragging bool
	lastX    float32
	lastY    float32
}

// NewCamera creates a camera with the origin near the top-left corner.
func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

// Reset restores the default view.
func (c *Camera) Reset() {
	c.OffsetX = 100
	c.OffsetY = 400
	c.Zoom = 1.0
}

func (c *Camera) scale() float32 {
	return c.Zoom * PixelsPerMeter
}

// Length converts a world distance to pixels.
func (c *Camera) Length(meters float64) float32 {
	return float32(meters) * c.scale()
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(worldX, worldY float64) (screenX, screenY float32) {
	screenX = float32(worldX)*c.scale() + c.OffsetX
	screenY = c.OffsetY - float32(worldY)*c.scale()
	return
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(screenX, screenY float32) (worldX, worldY float64) {
	worldX = float64((screenX - c.OffsetX) / c.scale())
	worldY = float64((c.OffsetY - screenY) / c.scale())
	return
}

// HandleEvent processes pointer events for pan and zoom. Any button drags.
func (c *Camera) HandleEvent(gtx layout.Context, ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		c.dragging = true
		c.lastX = ev.Position.X
		c.lastY = ev.Position.Y

	case pointer.Drag:
		if c.dragging {
			c.Pan(ev.Position.X-c.lastX, ev.Position.Y-c.lastY)
		}
		c.lastX = ev.Position.X
		c.lastY = ev.Position.Y

	case pointer.Release, pointer.Cancel:
		c.dragging = false

	case pointer.Scroll:
		if ev.Scroll.Y > 0 {
			c.ZoomBy(1/1.1, ev.Position.X, ev.Position.Y)
		} else if ev.Scroll.Y < 0 {
			c.ZoomBy(1.1, ev.Position.X, ev.Position.Y)
		}
	}
}

// Pan pans the camera by the given screen delta.
func (c *Camera) Pan(dx, dy float32) {
	c.OffsetX += dx
	c.OffsetY += dy
}

// ZoomBy zooms by a factor, keeping the world point under (centerX, centerY) fixed.
func (c *Camera) ZoomBy(factor float32, centerX, centerY float32) {
	worldX, worldY := c.ScreenToWorld(centerX, centerY)

	c.Zoom = clampZoom(c.Zoom * factor)

	newScreenX, newScreenY := c.WorldToScreen(worldX, worldY)
	c.OffsetX += centerX - newScreenX
	c.OffsetY += centerY - newScreenY
}

// CenterOn centers the camera on a world position.
func (c *Camera) CenterOn(worldX, worldY float64, screenWidth, screenHeight float32) {
	c.OffsetX = screenWidth/2 - float32(worldX)*c.scale()
	c.OffsetY = screenHeight/2 + float32(worldY)*c.scale()
}

// FitBounds adjusts the camera so the world rectangle fills the screen
// minus margin. Degenerate extents are padded to one meter.
func (c *Camera) FitBounds(minX, minY, maxX, maxY float64, screenWidth, screenHeight float32, margin float32) {
	if maxX-minX < 1 {
		mid := (minX + maxX) / 2
		minX, maxX = mid-0.5, mid+0.5
	}
	if maxY-minY < 1 {
		mid := (minY + maxY) / 2
		minY, maxY = mid-0.5, mid+0.5
	}

	availW := screenWidth - 2*margin
	availH := screenHeight - 2*margin
	if availW <= 0 || availH <= 0 {
		return
	}

	zoomX := availW / (float32(maxX-minX) * PixelsPerMeter)
	zoomY := availH / (float32(maxY-minY) * PixelsPerMeter)
	c.Zoom = zoomX
	if zoomY < zoomX {
		c.Zoom = zoomY
	}
	c.Zoom = clampZoom(c.Zoom)

	c.CenterOn((minX+maxX)/2, (minY+maxY)/2, screenWidth, screenHeight)
}

func clampZoom(z float32) float32 {
	if z < minZoom {
		return minZoom
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
