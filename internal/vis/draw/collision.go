package draw

import (
	"image/color"
	"math"
	"time"

	"gioui.org/layout"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/vis/interact"
)

// ColorCollision is the pulse ring around a near miss.
var ColorCollision = color.NRGBA{R: 255, G: 80, B: 80, A: 200}

// DrawCollision draws a pulsing ring between both tools of an event and a
// line joining them.
func DrawCollision(gtx layout.Context, event core.CollisionEvent, positions map[core.RobotID]core.Point, camera *interact.Camera, minSafe float64) {
	a, okA := positions[event.A]
	b, okB := positions[event.B]
	if !okA || !okB {
		return
	}

	pulse := float32(math.Sin(float64(time.Now().UnixMilli())/200.0)*0.3 + 0.7)

	ax, ay := camera.WorldToScreen(a.X, a.Y)
	bx, by := camera.WorldToScreen(b.X, b.Y)
	midX, midY := (ax+bx)/2, (ay+by)/2

	col := ColorCollision
	col.A = uint8(float32(col.A) * pulse)
	drawSegment(gtx, ax, ay, bx, by, 2, col)

	radius := camera.Length(minSafe/2) * pulse
	if radius < 10 {
		radius = 10 * pulse
	}
	DrawCircleOutline(gtx, midX, midY, radius, col, 3)
	drawCross(gtx, midX, midY, radius*0.5, col)
}

func drawCross(gtx layout.Context, cx, cy, size float32, col color.NRGBA) {
	for _, angle := range []float64{45, 135} {
		rad := angle * math.Pi / 180
		dx := float32(math.Cos(rad)) * size
		dy := float32(math.Sin(rad)) * size
		drawSegment(gtx, cx-dx, cy-dy, cx+dx, cy+dy, 3, col)
	}
}
