// Package output writes and reads the plain-text schedule format:
// a global makespan line in milliseconds followed by one block of
// timed waypoints per robot.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// Write emits robot schedules in declared order.
func Write(w io.Writer, robots []*core.Robot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%.6f\n", core.GlobalMakespan(robots)*1000)
	for _, r := range robots {
		fmt.Fprintf(bw, "%s %d\n", r.ID, len(r.Schedule))
		for _, wp := range r.Schedule {
			fmt.Fprintf(bw, "%.6f %.6f %.6f %.6f\n", wp.T*1000, wp.Pos.X, wp.Pos.Y, wp.Pos.Z)
		}
	}
	return bw.Flush()
}

// Format returns the text Write would produce.
func Format(robots []*core.Robot) string {
	var sb strings.Builder
	_ = Write(&sb, robots)
	return sb.String()
}

// Track is one robot's schedule as read back from text.
type Track struct {
	ID       core.RobotID
	Schedule core.Schedule // times in seconds
}

// Plan is a parsed schedule file.
type Plan struct {
	Makespan float64 // seconds
	Tracks   []Track
}

// Robots converts the plan into robots carrying only schedules. Bases are
// taken from the first waypoint.
func (p *Plan) Robots() []*core.Robot {
	robots := make([]*core.Robot, len(p.Tracks))
	for i, tr := range p.Tracks {
		r := &core.Robot{ID: tr.ID, Schedule: tr.Schedule, Makespan: tr.Schedule.End()}
		if len(tr.Schedule) > 0 {
			r.Base = tr.Schedule[0].Pos
		}
		robots[i] = r
	}
	return robots
}

// maxPrealloc caps how many waypoints a header count may reserve up front.
const maxPrealloc = 1024

// Read parses text produced by Write.
func Read(r io.Reader) (*Plan, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0

	next := func() ([]string, error) {
		for sc.Scan() {
			lineNo++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	fields, err := next()
	if err != nil {
		return nil, fmt.Errorf("output: missing makespan line: %w", err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("output line %d: expected makespan, got %d values", lineNo, len(fields))
	}
	ms, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("output line %d: %w", lineNo, err)
	}
	plan := &Plan{Makespan: ms / 1000}

	for {
		fields, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("output line %d: expected robot header, got %q", lineNo, strings.Join(fields, " "))
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil || count < 0 {
			return nil, fmt.Errorf("output line %d: invalid waypoint count %q", lineNo, fields[1])
		}

		tr := Track{ID: core.RobotID(fields[0]), Schedule: make(core.Schedule, 0, min(count, maxPrealloc))}
		for i := 0; i < count; i++ {
			fields, err := next()
			if err != nil {
				return nil, fmt.Errorf("output: robot %s: expected %d waypoints, got %d: %w", tr.ID, count, i, err)
			}
			wp, err := parseWaypoint(fields)
			if err != nil {
				return nil, fmt.Errorf("output line %d: %w", lineNo, err)
			}
			tr.Schedule = append(tr.Schedule, wp)
		}
		plan.Tracks = append(plan.Tracks, tr)
	}
	return plan, nil
}

func parseWaypoint(fields []string) (core.Waypoint, error) {
	if len(fields) != 4 {
		return core.Waypoint{}, fmt.Errorf("expected 4 waypoint values, got %d", len(fields))
	}
	var v [4]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return core.Waypoint{}, err
		}
		v[i] = x
	}
	return core.Waypoint{T: v[0] / 1000, Pos: core.Point{X: v[1], Y: v[2], Z: v[3]}}, nil
}
