// Package algo implements trajectory generation, operation assignment,
// collision detection and collision resolution for robot cells.
package algo

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// DefaultSamplesPerMove is the number of segments each move is split into.
const DefaultSamplesPerMove = 10

// zeroDistance is the length below which a move takes no time.
const zeroDistance = 1e-10

// Profile is a trapezoidal (or triangular) velocity profile for a
// straight-line move of a given length.
type Profile struct {
	Distance float64
	Accel    float64
	Peak     float64 // highest speed reached
	TAccel   float64 // duration of the accel phase, equal to the decel phase
	TCruise  float64
	Duration float64
}

// NewProfile builds the fastest profile covering distance under k.
// Moves too short to reach VMax use a triangular profile.
func NewProfile(distance float64, k core.Kinematics) Profile {
	if distance < zeroDistance {
		return Profile{}
	}

	dRamp := k.VMax * k.VMax / k.AMax
	if distance >= dRamp {
		tAcc := k.VMax / k.AMax
		tCruise := (distance - dRamp) / k.VMax
		return Profile{
			Distance: distance,
			Accel:    k.AMax,
			Peak:     k.VMax,
			TAccel:   tAcc,
			TCruise:  tCruise,
			Duration: 2*tAcc + tCruise,
		}
	}

	tAcc := math.Sqrt(distance / k.AMax)
	return Profile{
		Distance: distance,
		Accel:    k.AMax,
		Peak:     k.AMax * tAcc,
		TAccel:   tAcc,
		Duration: 2 * tAcc,
	}
}

// MoveDuration returns the time to travel distance under k.
func MoveDuration(distance float64, k core.Kinematics) float64 {
	return NewProfile(distance, k).Duration
}

// DistanceAt returns the distance covered t seconds into the move.
func (p Profile) DistanceAt(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= p.Duration:
		return p.Distance
	case t <= p.TAccel:
		return 0.5 * p.Accel * t * t
	}

	dAcc := 0.5 * p.Accel * p.TAccel * p.TAccel
	if t <= p.TAccel+p.TCruise {
		return dAcc + p.Peak*(t-p.TAccel)
	}
	td := t - p.TAccel - p.TCruise
	d := dAcc + p.Peak*p.TCruise + p.Peak*td - 0.5*p.Accel*td*td
	return math.Min(d, p.Distance)
}

// ReachViolation is a target that lies outside a robot's reach envelope.
type ReachViolation struct {
	Robot    core.RobotID `json:"robot"`
	Target   core.Point   `json:"target"`
	Distance float64      `json:"distance"` // from the robot base
}

func (v ReachViolation) String() string {
	return fmt.Sprintf("robot %s: target %v is %.3fm from base", v.Robot, v.Target, v.Distance)
}

// Planner turns a robot's ordered operations into a timed schedule.
type Planner struct {
	Samples     int
	StrictReach bool

	logger *zap.Logger
}

// NewPlanner creates a planner. Non-positive samples fall back to
// DefaultSamplesPerMove.
func NewPlanner(samples int, strictReach bool, logger *zap.Logger) *Planner {
	if samples <= 0 {
		samples = DefaultSamplesPerMove
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{Samples: samples, StrictReach: strictReach, logger: logger}
}

// Plan fills robot.Schedule and robot.Makespan. The schedule starts at the
// base at t=0 and visits pick then place of each operation in order,
// holding for the dwell time at each.
func (p *Planner) Plan(robot *core.Robot) ([]ReachViolation, error) {
	if err := robot.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("robot %s: %w", robot.ID, err)
	}

	var violations []ReachViolation
	sched := core.Schedule{{T: 0, Pos: robot.Base}}
	pos := robot.Base
	t := 0.0

	for _, op := range robot.Operations {
		for _, target := range [2]core.Point{op.Pick, op.Place} {
			if !robot.CanReach(target) {
				v := ReachViolation{Robot: robot.ID, Target: target, Distance: core.Distance(robot.Base, target)}
				if p.StrictReach {
					return nil, fmt.Errorf("%w: %s (operation %d)", core.ErrUnreachable, v, op.ID)
				}
				p.logger.Warn("Target outside reach envelope",
					zap.String("robot", string(robot.ID)),
					zap.Int("operation", int(op.ID)),
					zap.Float64("distance", v.Distance))
				violations = append(violations, v)
			}

			sched, t = p.appendMove(sched, pos, target, t, robot.Limits)
			pos = target

			if op.Dwell > 0 {
				t += op.Dwell
				sched = append(sched, core.Waypoint{T: t, Pos: pos})
			}
		}
	}

	robot.Schedule = sched
	robot.Makespan = t
	return violations, nil
}

// appendMove samples a move from->to starting at start and returns the
// extended schedule and the arrival time. Zero-length moves add nothing.
func (p *Planner) appendMove(s core.Schedule, from, to core.Point, start float64, k core.Kinematics) (core.Schedule, float64) {
	prof := NewProfile(core.Distance(from, to), k)
	if prof.Duration == 0 {
		return s, start
	}

	n := p.Samples
	for i := 1; i <= n; i++ {
		dt := prof.Duration * float64(i) / float64(n)
		pos := to
		if i < n {
			pos = core.Lerp(from, to, prof.DistanceAt(dt)/prof.Distance)
		}
		s = append(s, core.Waypoint{T: start + dt, Pos: pos})
	}
	return s, start + prof.Duration
}

// PlanAll plans every robot. Robots own disjoint state, so with parallel
// set each one is planned on its own goroutine. Violations are returned
// in declared robot order.
func (p *Planner) PlanAll(ctx context.Context, robots []*core.Robot, parallel bool) ([]ReachViolation, error) {
	perRobot := make([][]ReachViolation, len(robots))

	if !parallel {
		for i, r := range robots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := p.Plan(r)
			if err != nil {
				return nil, err
			}
			perRobot[i] = v
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, r := range robots {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := p.Plan(r)
				perRobot[i] = v
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var all []ReachViolation
	for _, v := range perRobot {
		all = append(all, v...)
	}
	return all, nil
}
