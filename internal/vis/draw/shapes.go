// Package draw provides rendering functions for visualization.
package draw

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/cellplan/internal/vis/interact"
)

// ColorGrid is the background grid color.
var ColorGrid = color.NRGBA{R: 40, G: 45, B: 50, A: 255}

func circlePath(gtx layout.Context, cx, cy, radius float32, segments int) clip.PathSpec {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(cx+radius, cy))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / float64(segments)
		path.LineTo(f32.Pt(cx+radius*float32(math.Cos(angle)), cy+radius*float32(math.Sin(angle))))
	}
	path.Close()
	return path.End()
}

func fillCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	if radius <= 0 {
		return
	}
	paint.FillShape(gtx.Ops, col, clip.Outline{Path: circlePath(gtx, cx, cy, radius, 24)}.Op())
}

// DrawCircleOutline draws a ring of the given stroke width.
func DrawCircleOutline(gtx layout.Context, cx, cy, radius float32, col color.NRGBA, strokeWidth float32) {
	if radius <= 0 {
		return
	}
	segments := 48
	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  circlePath(gtx, cx, cy, radius, segments),
		Width: strokeWidth,
	}.Op())
}

func drawSegment(gtx layout.Context, x1, y1, x2, y2, width float32, col color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 0.1 {
		return
	}

	dx /= length
	dy /= length
	px := -dy * width / 2
	py := dx * width / 2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawLabel(gtx layout.Context, th *material.Theme, x, y float32, text string, col color.NRGBA) {
	defer op.Offset(image.Pt(int(x), int(y))).Push(gtx.Ops).Pop()
	gtx.Constraints.Min = image.Point{}
	label := material.Label(th, 11, text)
	label.Color = col
	label.Layout(gtx)
}

// DrawGrid draws a background grid with lines every gridSize meters.
func DrawGrid(gtx layout.Context, camera *interact.Camera, gridSize float64, col color.NRGBA) {
	bounds := gtx.Constraints.Max
	if gridSize <= 0 || camera.Length(gridSize) < 4 {
		return
	}

	x0, y0 := camera.ScreenToWorld(0, 0)
	x1, y1 := camera.ScreenToWorld(float32(bounds.X), float32(bounds.Y))
	minX, maxX := math.Min(x0, x1), math.Max(x0, x1)
	minY, maxY := math.Min(y0, y1), math.Max(y0, y1)

	for x := math.Floor(minX/gridSize) * gridSize; x <= maxX; x += gridSize {
		sx, _ := camera.WorldToScreen(x, 0)
		rect := image.Rect(int(sx), 0, int(sx)+1, bounds.Y)
		paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
	}
	for y := math.Floor(minY/gridSize) * gridSize; y <= maxY; y += gridSize {
		_, sy := camera.WorldToScreen(0, y)
		rect := image.Rect(0, int(sy), bounds.X, int(sy)+1)
		paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
	}
}

// DrawAxes highlights the world X and Y axes.
func DrawAxes(gtx layout.Context, camera *interact.Camera) {
	bounds := gtx.Constraints.Max
	ox, oy := camera.WorldToScreen(0, 0)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 110, G: 60, B: 60, A: 160},
		clip.Rect(image.Rect(0, int(oy), bounds.X, int(oy)+1)).Op())
	paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 110, B: 60, A: 160},
		clip.Rect(image.Rect(int(ox), 0, int(ox)+1, bounds.Y)).Op())
}
