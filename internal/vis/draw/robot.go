package draw

import (
	"image/color"

	"gioui.org/layout"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/vis/interact"
)

// Robot colors, cycled by fleet index.
var palette = []color.NRGBA{
	{R: 100, G: 200, B: 255, A: 255}, // cyan
	{R: 255, G: 150, B: 100, A: 255}, // orange
	{R: 200, G: 100, B: 255, A: 255}, // purple
	{R: 120, G: 220, B: 120, A: 255}, // green
	{R: 255, G: 220, B: 90, A: 255},  // yellow
	{R: 240, G: 110, B: 170, A: 255}, // pink
}

// ColorColliding marks a tool inside an active collision.
var ColorColliding = color.NRGBA{R: 255, G: 70, B: 70, A: 255}

// RobotColor returns the color for the robot at fleet index i.
func RobotColor(i int) color.NRGBA {
	if i < 0 {
		i = 0
	}
	return palette[i%len(palette)]
}

// DrawBase draws a robot base and its reach envelope.
func DrawBase(gtx layout.Context, robot *core.Robot, camera *interact.Camera, col color.NRGBA) {
	x, y := camera.WorldToScreen(robot.Base.X, robot.Base.Y)

	ring := col
	ring.A = 60
	DrawCircleOutline(gtx, x, y, camera.Length(robot.Reach.Max), ring, 1)
	if robot.Reach.Min > 0 {
		DrawCircleOutline(gtx, x, y, camera.Length(robot.Reach.Min), ring, 1)
	}

	size := float32(6)
	body := col
	body.A = 180
	drawSegment(gtx, x-size, y, x+size, y, size, body)
}

// DrawRobot draws the tool at pos, linked to its base, with the clearance
// radius around it.
func DrawRobot(gtx layout.Context, th *material.Theme, robot *core.Robot, pos core.Point, index int, camera *interact.Camera, toolRadius float64, colliding bool) {
	col := RobotColor(index)
	bx, by := camera.WorldToScreen(robot.Base.X, robot.Base.Y)
	tx, ty := camera.WorldToScreen(pos.X, pos.Y)

	arm := col
	arm.A = 140
	drawSegment(gtx, bx, by, tx, ty, 3, arm)

	envelope := col
	if colliding {
		envelope = ColorColliding
	}
	envelope.A = 70
	fillCircle(gtx, tx, ty, camera.Length(toolRadius), envelope)
	envelope.A = 200
	DrawCircleOutline(gtx, tx, ty, camera.Length(toolRadius), envelope, 1.5)

	fillCircle(gtx, tx, ty, 4, col)
	drawLabel(gtx, th, tx+6, ty-18, string(robot.ID), col)
}

// DrawRobots draws every base, then every tool at its current position.
func DrawRobots(gtx layout.Context, th *material.Theme, robots []*core.Robot, positions map[core.RobotID]core.Point, camera *interact.Camera, toolRadius float64, colliding map[core.RobotID]bool) {
	for i, robot := range robots {
		DrawBase(gtx, robot, camera, RobotColor(i))
	}
	for i, robot := range robots {
		pos, ok := positions[robot.ID]
		if !ok {
			continue
		}
		DrawRobot(gtx, th, robot, pos, i, camera, toolRadius, colliding[robot.ID])
	}
}
