package core

import "sort"

// Waypoint is a timed tool position.
type Waypoint struct {
	T   float64 // seconds
	Pos Point
}

// Schedule is a robot's time-ordered waypoint list. The tool moves
// linearly between consecutive waypoints.
type Schedule []Waypoint

// End returns the time of the last waypoint, or 0 for an empty schedule.
func (s Schedule) End() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].T
}

// PositionAt interpolates the tool position at time t. Before the first
// waypoint the first position is held; after the last the final position is held.
func (s Schedule) PositionAt(t float64) Point {
	if len(s) == 0 {
		return Point{}
	}
	if t <= s[0].T {
		return s[0].Pos
	}
	last := s[len(s)-1]
	if t >= last.T {
		return last.Pos
	}
	// first waypoint strictly after t
	i := sort.Search(len(s), func(i int) bool { return s[i].T > t })
	from, to := s[i-1], s[i]
	dt := to.T - from.T
	if dt <= 0 {
		return to.Pos
	}
	return Lerp(from.Pos, to.Pos, (t-from.T)/dt)
}

// Shifted returns a copy with every waypoint delayed by delay seconds.
func (s Schedule) Shifted(delay float64) Schedule {
	out := make(Schedule, len(s))
	for i, wp := range s {
		out[i] = Waypoint{T: wp.T + delay, Pos: wp.Pos}
	}
	return out
}

// Monotonic reports whether waypoint times never decrease.
func (s Schedule) Monotonic() bool {
	for i := 1; i < len(s); i++ {
		if s[i].T < s[i-1].T {
			return false
		}
	}
	return true
}

func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	return append(Schedule(nil), s...)
}
