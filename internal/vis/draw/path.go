package draw

import (
	"image/color"

	"gioui.org/layout"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/vis/interact"
)

// DrawPath draws a polyline through the XY projection of path.
func DrawPath(gtx layout.Context, path []core.Point, camera *interact.Camera, col color.NRGBA, width float32) {
	for i := 0; i+1 < len(path); i++ {
		x1, y1 := camera.WorldToScreen(path[i].X, path[i].Y)
		x2, y2 := camera.WorldToScreen(path[i+1].X, path[i+1].Y)
		drawSegment(gtx, x1, y1, x2, y2, width, col)
	}
}

// DrawPathTrail draws a fading trail behind a tool.
func DrawPathTrail(gtx layout.Context, history []core.Point, camera *interact.Camera, baseColor color.NRGBA, maxWidth float32) {
	n := len(history)
	if n < 2 {
		return
	}

	for i := 0; i < n-1; i++ {
		col := baseColor
		col.A = uint8(50 + float64(i)/float64(n)*150)
		w := maxWidth * (0.3 + 0.7*float32(i)/float32(n))

		x1, y1 := camera.WorldToScreen(history[i].X, history[i].Y)
		x2, y2 := camera.WorldToScreen(history[i+1].X, history[i+1].Y)
		drawSegment(gtx, x1, y1, x2, y2, w, col)
	}
}

// DrawFuturePath draws the remaining schedule dimmed, with a dot on its
// final point.
func DrawFuturePath(gtx layout.Context, future []core.Point, camera *interact.Camera, col color.NRGBA) {
	if len(future) < 2 {
		return
	}

	dim := col
	dim.A = 80
	DrawPath(gtx, future, camera, dim, 1.5)

	dim.A = 140
	x, y := camera.WorldToScreen(future[len(future)-1].X, future[len(future)-1].Y)
	fillCircle(gtx, x, y, 3, dim)
}

// DrawStops marks dwells, i.e. waypoints repeating the previous position.
func DrawStops(gtx layout.Context, schedule core.Schedule, camera *interact.Camera, col color.NRGBA) {
	mark := col
	mark.A = 120
	for i := 1; i < len(schedule); i++ {
		if schedule[i].Pos != schedule[i-1].Pos {
			continue
		}
		x, y := camera.WorldToScreen(schedule[i].Pos.X, schedule[i].Pos.Y)
		DrawCircleOutline(gtx, x, y, 5, mark, 1.5)
	}
}
