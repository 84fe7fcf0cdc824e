// Package scenario reads the line-oriented cell description format.
package scenario

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// JointCount is the number of joint limit rows in every scenario.
const JointCount = 6

// Options controls values the file format does not carry.
type Options struct {
	LeverArm float64 // meters, converts joint rad/s to tool m/s
	MinReach float64
	MaxReach float64
}

// DefaultOptions returns a 1 m lever arm and a 0.1..2.2 m reach envelope.
func DefaultOptions() Options {
	return Options{LeverArm: 1.0, MinReach: 0.1, MaxReach: 2.2}
}

// ParseError reports the physical line a scenario failed on.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("scenario: %s", e.Msg)
	}
	return fmt.Sprintf("scenario line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

type line struct {
	num    int
	fields []string
}

// reader hands out non-blank lines in order.
type reader struct {
	lines []line
	pos   int
	last  int
}

func (r *reader) next(what string, want int) (line, error) {
	if r.pos >= len(r.lines) {
		return line{}, &ParseError{Line: r.last + 1, Msg: fmt.Sprintf("unexpected end of input, expected %s", what)}
	}
	l := r.lines[r.pos]
	r.pos++
	if len(l.fields) != want {
		return l, &ParseError{Line: l.num, Msg: fmt.Sprintf("%s: expected %d values, got %d", what, want, len(l.fields))}
	}
	return l, nil
}

// remaining is the number of unread non-blank lines.
func (r *reader) remaining() int { return len(r.lines) - r.pos }

func (r *reader) floats(what string, want int) ([]float64, error) {
	l, err := r.next(what, want)
	if err != nil {
		return nil, err
	}
	out := make([]float64, want)
	for i, f := range l.fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &ParseError{Line: l.num, Msg: fmt.Sprintf("%s: invalid number %q", what, f), Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ParseError{Line: l.num, Msg: fmt.Sprintf("%s: non-finite value %q", what, f)}
		}
		out[i] = v
	}
	return out, nil
}

func (r *reader) ints(what string, want int) ([]int, int, error) {
	l, err := r.next(what, want)
	if err != nil {
		return nil, l.num, err
	}
	out := make([]int, want)
	for i, f := range l.fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, l.num, &ParseError{Line: l.num, Msg: fmt.Sprintf("%s: invalid integer %q", what, f), Err: err}
		}
		out[i] = v
	}
	return out, l.num, nil
}

func split(src io.Reader) (*reader, error) {
	r := &reader{}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r.last++
		if fields := strings.Fields(sc.Text()); len(fields) > 0 {
			r.lines = append(r.lines, line{num: r.last, fields: fields})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: r.last + 1, Msg: "read failed", Err: err}
	}
	return r, nil
}

// Parse reads a complete cell description. Nothing is returned unless
// the whole input parses and validates.
func Parse(src io.Reader, opts Options) (*core.Cell, error) {
	if opts.LeverArm <= 0 {
		opts.LeverArm = 1.0
	}

	r, err := split(src)
	if err != nil {
		return nil, err
	}

	header, headerLine, err := r.ints("header (robot and operation count)", 2)
	if err != nil {
		return nil, err
	}
	k, n := header[0], header[1]
	if k < 1 {
		return nil, &ParseError{Line: headerLine, Msg: fmt.Sprintf("robot count must be at least 1, got %d", k), Err: core.ErrEmptyFleet}
	}
	if n < 0 {
		return nil, &ParseError{Line: headerLine, Msg: fmt.Sprintf("operation count must not be negative, got %d", n)}
	}

	// Header counts are untrusted; capacity never exceeds the lines present.
	bases := make([]core.Point, 0, min(k, r.remaining()))
	for i := 0; i < k; i++ {
		v, err := r.floats(fmt.Sprintf("robot %d base", i+1), 3)
		if err != nil {
			return nil, err
		}
		bases = append(bases, core.Point{X: v[0], Y: v[1], Z: v[2]})
	}

	joints := make([]core.JointLimit, JointCount)
	for i := range joints {
		v, err := r.floats(fmt.Sprintf("joint %d limits", i+1), 4)
		if err != nil {
			return nil, err
		}
		joints[i] = core.JointLimit{Min: v[0], Max: v[1], VMax: v[2], AMax: v[3]}
	}

	safety, err := r.floats("safety distances", 2)
	if err != nil {
		return nil, err
	}
	safetyLine := r.lines[r.pos-1].num
	if safety[0] < 0 || safety[1] < 0 {
		return nil, &ParseError{Line: safetyLine, Msg: "safety distances must not be negative"}
	}

	ops := make([]*core.Operation, 0, min(n, r.remaining()))
	for i := 0; i < n; i++ {
		what := fmt.Sprintf("operation %d", i+1)
		v, err := r.floats(what, 7)
		if err != nil {
			return nil, err
		}
		if v[6] < 0 {
			return nil, &ParseError{Line: r.lines[r.pos-1].num, Msg: what + ": dwell time must not be negative"}
		}
		ops = append(ops, &core.Operation{
			ID:    core.OperationID(i + 1),
			Pick:  core.Point{X: v[0], Y: v[1], Z: v[2]},
			Place: core.Point{X: v[3], Y: v[4], Z: v[5]},
			Dwell: v[6],
		})
	}

	if r.pos < len(r.lines) {
		return nil, &ParseError{Line: r.lines[r.pos].num, Msg: "unexpected content after last operation"}
	}

	limits := LinearLimits(joints, opts.LeverArm)
	if err := limits.Validate(); err != nil {
		return nil, &ParseError{Msg: "joint table yields unusable tool limits", Err: err}
	}

	cell := &core.Cell{
		Robots:        make([]*core.Robot, len(bases)),
		Operations:    ops,
		Joints:        joints,
		ToolClearance: safety[0],
		SafeDist:      safety[1],
	}
	for i, base := range bases {
		cell.Robots[i] = &core.Robot{
			ID:     core.RobotIDFor(i),
			Base:   base,
			Limits: limits,
			Reach:  core.ReachEnvelope{Min: opts.MinReach, Max: opts.MaxReach},
		}
	}
	return cell, nil
}

// ParseFile parses the scenario at path.
func ParseFile(path string, opts Options) (*core.Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cell, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cell, nil
}

// LinearLimits converts the slowest joint speed and acceleration into
// tool-space limits for a lever arm of leverArm meters.
func LinearLimits(joints []core.JointLimit, leverArm float64) core.Kinematics {
	if len(joints) == 0 {
		return core.Kinematics{}
	}
	vMin, aMin := joints[0].VMax, joints[0].AMax
	for _, j := range joints[1:] {
		vMin = math.Min(vMin, j.VMax)
		aMin = math.Min(aMin, j.AMax)
	}
	scale := math.Pi / 180 * leverArm
	return core.Kinematics{VMax: vMin * scale, AMax: aMin * scale}
}

// IsParseError reports whether err came from malformed scenario text.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
