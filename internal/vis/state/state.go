// Package state manages the visualization state.
package state

import (
	"fmt"
	"math"
	"sort"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/output"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

// State holds all visualization state.
type State struct {
	Title      string
	Robots     []*core.Robot
	Collisions []core.CollisionEvent // residual events, ordered by time
	Initial    int                   // events before resolution
	ToolRadius float64               // drawn tool clearance, meters
	MinSafe    float64
	Playback   *PlaybackState

	times []float64
}

// NewState creates a state over planned robots.
func NewState(robots []*core.Robot, collisions []core.CollisionEvent, toolRadius, minSafe float64) *State {
	events := append([]core.CollisionEvent(nil), collisions...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].T < events[j].T })

	s := &State{
		Robots:     robots,
		Collisions: events,
		Initial:    len(events),
		ToolRadius: toolRadius,
		MinSafe:    minSafe,
		Playback:   NewPlaybackState(core.GlobalMakespan(robots)),
	}
	s.times = make([]float64, 0, len(events))
	for _, e := range events {
		if n := len(s.times); n == 0 || s.times[n-1] != e.T {
			s.times = append(s.times, e.T)
		}
	}
	return s
}

// FromResult builds the state for a finished pipeline run.
func FromResult(res *sim.Result) *State {
	cell := res.Cell
	s := NewState(cell.Robots, res.Residual(), cell.ToolClearance, cell.MinSafeDistance())
	s.Initial = len(res.Initial)
	s.Title = fmt.Sprintf("run %s", res.RunID)
	return s
}

// FromPlan builds the state for a schedule file. Clearances are unknown,
// so no collisions are listed and tools are drawn with toolRadius.
func FromPlan(plan *output.Plan, toolRadius float64) *State {
	s := NewState(plan.Robots(), nil, toolRadius, 0)
	s.Playback.MaxTime = plan.Makespan
	return s
}

// CurrentPositions returns every tool position at the playback time.
func (s *State) CurrentPositions() map[core.RobotID]core.Point {
	positions := make(map[core.RobotID]core.Point, len(s.Robots))
	for _, robot := range s.Robots {
		if len(robot.Schedule) == 0 {
			positions[robot.ID] = robot.Base
			continue
		}
		positions[robot.ID] = robot.Schedule.PositionAt(s.Playback.CurrentTime)
	}
	return positions
}

// PathHistory returns the waypoints a robot has passed, ending at its
// current position.
func (s *State) PathHistory(id core.RobotID) []core.Point {
	robot := s.robot(id)
	if robot == nil || len(robot.Schedule) == 0 {
		return nil
	}

	t := s.Playback.CurrentTime
	var history []core.Point
	for _, wp := range robot.Schedule {
		if wp.T > t {
			break
		}
		history = append(history, wp.Pos)
	}
	return append(history, robot.Schedule.PositionAt(t))
}

// FuturePath returns the current position followed by the waypoints
// still ahead.
func (s *State) FuturePath(id core.RobotID) []core.Point {
	robot := s.robot(id)
	if robot == nil || len(robot.Schedule) == 0 {
		return nil
	}

	t := s.Playback.CurrentTime
	future := []core.Point{robot.Schedule.PositionAt(t)}
	for _, wp := range robot.Schedule {
		if wp.T > t {
			future = append(future, wp.Pos)
		}
	}
	return future
}

// ActiveCollisions returns events within window seconds of the playback time.
func (s *State) ActiveCollisions(window float64) []core.CollisionEvent {
	t := s.Playback.CurrentTime
	var active []core.CollisionEvent
	for _, e := range s.Collisions {
		if math.Abs(e.T-t) <= window {
			active = append(active, e)
		}
	}
	return active
}

// CollisionTimes returns the distinct event times in ascending order.
func (s *State) CollisionTimes() []float64 {
	return s.times
}

// NextCollision moves playback to the next event time.
func (s *State) NextCollision() bool {
	return s.Playback.JumpNext(s.times)
}

// PrevCollision moves playback to the previous event time.
func (s *State) PrevCollision() bool {
	return s.Playback.JumpPrev(s.times)
}

// Colliding reports which robots take part in an active event.
func (s *State) Colliding(window float64) map[core.RobotID]bool {
	ids := make(map[core.RobotID]bool)
	for _, e := range s.ActiveCollisions(window) {
		ids[e.A] = true
		ids[e.B] = true
	}
	return ids
}

// Bounds returns the XY extent of every base, reach circle and waypoint.
func (s *State) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(p core.Point, r float64) {
		minX = math.Min(minX, p.X-r)
		minY = math.Min(minY, p.Y-r)
		maxX = math.Max(maxX, p.X+r)
		maxY = math.Max(maxY, p.Y+r)
	}
	for _, robot := range s.Robots {
		grow(robot.Base, robot.Reach.Max)
		for _, wp := range robot.Schedule {
			grow(wp.Pos, s.ToolRadius)
		}
	}
	if math.IsInf(minX, 1) {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX, maxY
}

// RobotIndex returns the position of id in Robots, or -1.
func (s *State) RobotIndex(id core.RobotID) int {
	for i, r := range s.Robots {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) robot(id core.RobotID) *core.Robot {
	if i := s.RobotIndex(id); i >= 0 {
		return s.Robots[i]
	}
	return nil
}
