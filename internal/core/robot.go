package core

import (
	"fmt"
	"math"
)

// RobotID is a unique robot identifier ("R1", "R2", ...).
type RobotID string

// RobotIDFor returns the identifier of the robot declared at index i.
func RobotIDFor(i int) RobotID {
	return RobotID(fmt.Sprintf("R%d", i+1))
}

// Kinematics holds the linear tool-center-point limits of an arm.
type Kinematics struct {
	VMax float64 // m/s
	AMax float64 // m/s^2
}

// Validate rejects non-positive or non-finite limits.
func (k Kinematics) Validate() error {
	if !(k.VMax > 0) || !(k.AMax > 0) || math.IsInf(k.VMax, 0) || math.IsInf(k.AMax, 0) {
		return fmt.Errorf("%w: v_max=%g a_max=%g", ErrInvalidKinematics, k.VMax, k.AMax)
	}
	return nil
}

// ReachEnvelope is the spherical shell around a base the tool can reach.
type ReachEnvelope struct {
	Min float64
	Max float64
}

// Contains reports whether a base distance d lies inside the shell.
func (e ReachEnvelope) Contains(d float64) bool {
	return d >= e.Min && d <= e.Max
}

// Robot is one stationary arm of the cell. Planning fills Schedule and
// Makespan; resolution may shift both.
type Robot struct {
	ID     RobotID
	Base   Point
	Limits Kinematics
	Reach  ReachEnvelope

	Operations []*Operation
	Schedule   Schedule
	Makespan   float64 // seconds
}

// CanReach reports whether p is inside the robot's reach envelope.
func (r *Robot) CanReach(p Point) bool {
	return r.Reach.Contains(Distance(r.Base, p))
}

// Shift delays the robot's entire schedule by delay seconds.
// Non-positive delays are ignored.
func (r *Robot) Shift(delay float64) {
	if delay <= 0 {
		return
	}
	r.Schedule = r.Schedule.Shifted(delay)
	r.Makespan += delay
}

// Clone returns a deep copy of the robot. Operations are shared since
// they are never mutated after parsing.
func (r *Robot) Clone() *Robot {
	c := *r
	c.Operations = append([]*Operation(nil), r.Operations...)
	c.Schedule = r.Schedule.Clone()
	return &c
}
