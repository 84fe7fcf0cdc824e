package core

import (
	"errors"
	"fmt"
)

// JointLimit is one row of the joint table: position range in degrees,
// speed in deg/s and acceleration in deg/s^2.
type JointLimit struct {
	Min, Max   float64
	VMax, AMax float64
}

// Cell is a complete scheduling problem: robots, operations and the
// shared safety parameters.
type Cell struct {
	Robots     []*Robot
	Operations []*Operation
	Joints     []JointLimit

	ToolClearance float64 // meters, per tool
	SafeDist      float64 // meters, extra margin between tools
}

// MinSafeDistance is the closest two tools may get without colliding.
func (c *Cell) MinSafeDistance() float64 {
	return 2*c.ToolClearance + c.SafeDist
}

// GlobalMakespan is the latest robot makespan in the cell.
func (c *Cell) GlobalMakespan() float64 {
	return GlobalMakespan(c.Robots)
}

// GlobalMakespan returns the maximum makespan across robots.
func GlobalMakespan(robots []*Robot) float64 {
	var m float64
	for _, r := range robots {
		if r.Makespan > m {
			m = r.Makespan
		}
	}
	return m
}

// RobotByID returns the robot with id, or nil.
func (c *Cell) RobotByID(id RobotID) *Robot {
	for _, r := range c.Robots {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Clone returns a deep copy so a pipeline run never mutates its input.
func (c *Cell) Clone() *Cell {
	out := &Cell{
		Robots:        make([]*Robot, len(c.Robots)),
		Operations:    append([]*Operation(nil), c.Operations...),
		Joints:        append([]JointLimit(nil), c.Joints...),
		ToolClearance: c.ToolClearance,
		SafeDist:      c.SafeDist,
	}
	for i, r := range c.Robots {
		out.Robots[i] = r.Clone()
	}
	return out
}

// Waypoints counts waypoints over all robots.
func (c *Cell) Waypoints() int {
	n := 0
	for _, r := range c.Robots {
		n += len(r.Schedule)
	}
	return n
}

// Validate checks the cell is well-formed before planning.
func (c *Cell) Validate() error {
	if len(c.Robots) == 0 {
		return ErrEmptyFleet
	}
	if c.ToolClearance < 0 || c.SafeDist < 0 {
		return fmt.Errorf("negative safety distance: tool_clearance=%g safe_dist=%g",
			c.ToolClearance, c.SafeDist)
	}

	seen := make(map[RobotID]bool, len(c.Robots))
	var errs []error
	for _, r := range c.Robots {
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate robot id %s", r.ID))
		}
		seen[r.ID] = true
		if err := r.Limits.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("robot %s: %w", r.ID, err))
		}
	}
	for _, op := range c.Operations {
		if op.Dwell < 0 {
			errs = append(errs, fmt.Errorf("operation %d: negative dwell %g", op.ID, op.Dwell))
		}
	}
	return errors.Join(errs...)
}
