// Package widgets provides Gio UI widgets for the visualizer.
package widgets

import (
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/cellplan/internal/vis/draw"
	"github.com/elektrokombinacija/cellplan/internal/vis/interact"
	"github.com/elektrokombinacija/cellplan/internal/vis/state"
)

// collisionWindow is how long, in seconds of schedule time, an event
// stays highlighted around its timestamp.
const collisionWindow = 0.15

// Workspace is the top-down (XY) view of the cell.
type Workspace struct {
	state  *state.State
	camera *interact.Camera
	fitted bool
}

// NewWorkspace creates a new workspace widget.
func NewWorkspace(st *state.State, camera *interact.Camera) *Workspace {
	return &Workspace{
		state:  st,
		camera: camera,
	}
}

// Fit frames the whole cell on the next layout.
func (w *Workspace) Fit() {
	w.fitted = false
}

// Layout renders the workspace.
func (w *Workspace) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	bounds := gtx.Constraints.Max
	defer clip.Rect(image.Rect(0, 0, bounds.X, bounds.Y)).Push(gtx.Ops).Pop()

	paint.Fill(gtx.Ops, color.NRGBA{R: 25, G: 28, B: 32, A: 255})

	if !w.fitted && bounds.X > 0 && bounds.Y > 0 {
		minX, minY, maxX, maxY := w.state.Bounds()
		w.camera.FitBounds(minX, minY, maxX, maxY, float32(bounds.X), float32(bounds.Y), 40)
		w.fitted = true
	}

	w.handlePointerEvents(gtx)

	draw.DrawGrid(gtx, w.camera, 0.5, draw.ColorGrid)
	draw.DrawAxes(gtx, w.camera)

	st := w.state
	for i, robot := range st.Robots {
		col := draw.RobotColor(i)
		draw.DrawStops(gtx, robot.Schedule, w.camera, col)
		if history := st.PathHistory(robot.ID); len(history) > 1 {
			draw.DrawPathTrail(gtx, history, w.camera, col, 3)
		}
		draw.DrawFuturePath(gtx, st.FuturePath(robot.ID), w.camera, col)
	}

	positions := st.CurrentPositions()
	draw.DrawRobots(gtx, th, st.Robots, positions, w.camera, st.ToolRadius, st.Colliding(collisionWindow))

	for _, e := range st.ActiveCollisions(collisionWindow) {
		draw.DrawCollision(gtx, e, positions, w.camera, st.MinSafe)
	}

	return layout.Dimensions{Size: bounds}
}

func (w *Workspace) handlePointerEvents(gtx layout.Context) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y)).Push(gtx.Ops)
	event.Op(gtx.Ops, w)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			w.camera.HandleEvent(gtx, pe)
		}
	}
}
