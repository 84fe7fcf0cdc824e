package algo

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

const eps = 1e-9

func TestMoveDuration(t *testing.T) {
	k := core.Kinematics{VMax: 0.5, AMax: 0.25} // ramp distance v^2/a = 1
	tests := []struct {
		name string
		d    float64
		want float64
	}{
		{"zero", 0, 0},
		{"below threshold", 1e-12, 0},
		{"triangular", 0.25, 2},
		{"boundary", 1, 4},
		{"trapezoid", 2, 6},
		{"long", 11, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveDuration(tt.d, k)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("MoveDuration(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestMoveDurationContinuousAtRampDistance(t *testing.T) {
	k := core.Kinematics{VMax: 1.3, AMax: 0.7}
	ramp := k.VMax * k.VMax / k.AMax

	below := MoveDuration(ramp*(1-1e-12), k)
	at := MoveDuration(ramp, k)
	above := MoveDuration(ramp*(1+1e-12), k)

	if math.Abs(below-at) > 1e-6 || math.Abs(above-at) > 1e-6 {
		t.Errorf("Profile branches disagree at ramp distance: %v / %v / %v", below, at, above)
	}
	if math.Abs(at-2*k.VMax/k.AMax) > eps {
		t.Errorf("Expected %v at ramp distance, got %v", 2*k.VMax/k.AMax, at)
	}
}

func TestTriangularPeakSpeed(t *testing.T) {
	k := core.Kinematics{VMax: 2, AMax: 1}
	p := NewProfile(1, k) // ramp distance 4

	if math.Abs(p.Peak-1) > eps {
		t.Errorf("Expected peak speed 1, got %v", p.Peak)
	}
	if p.Peak > k.VMax {
		t.Errorf("Peak speed %v exceeds limit %v", p.Peak, k.VMax)
	}
	// halfway in time is halfway in distance for a symmetric profile
	if mid := p.DistanceAt(p.Duration / 2); math.Abs(mid-0.5) > eps {
		t.Errorf("Expected half distance at half time, got %v", mid)
	}
}

func TestDistanceAtMonotonic(t *testing.T) {
	for _, d := range []float64{0.3, 1, 5} {
		p := NewProfile(d, core.Kinematics{VMax: 1, AMax: 1})
		prev := 0.0
		for i := 0; i <= 1000; i++ {
			s := p.DistanceAt(p.Duration * float64(i) / 1000)
			if s < prev-eps {
				t.Fatalf("d=%v: distance decreased at sample %d (%v < %v)", d, i, s, prev)
			}
			prev = s
		}
		if math.Abs(prev-d) > eps {
			t.Errorf("d=%v: profile ends at %v", d, prev)
		}
	}
}

// twoRobotCell is the reference two-arm cell with one operation.
func twoRobotCell() []*core.Robot {
	k := core.Kinematics{VMax: 0.5, AMax: 0.25}
	reach := core.ReachEnvelope{Min: 0.1, Max: 2.2}
	r1 := &core.Robot{ID: "R1", Base: core.Point{X: 0}, Limits: k, Reach: reach}
	r2 := &core.Robot{ID: "R2", Base: core.Point{X: 5}, Limits: k, Reach: reach}
	r1.Operations = []*core.Operation{{
		ID:    1,
		Pick:  core.Point{X: 2},
		Place: core.Point{X: 3},
		Dwell: 1,
	}}
	return []*core.Robot{r1, r2}
}

func TestPlanTwoRobotCell(t *testing.T) {
	robots := twoRobotCell()
	p := NewPlanner(DefaultSamplesPerMove, false, nil)

	violations, err := p.PlanAll(context.Background(), robots, false)
	if err != nil {
		t.Fatalf("PlanAll failed: %v", err)
	}

	r1, r2 := robots[0], robots[1]
	// pick leg 2m = 6s, dwell 1s, place leg 1m = 4s, dwell 1s
	if math.Abs(r1.Makespan-12) > eps {
		t.Errorf("Expected R1 makespan 12, got %v", r1.Makespan)
	}
	if r1.Schedule.End() != r1.Makespan {
		t.Errorf("Last waypoint %v should equal makespan %v", r1.Schedule.End(), r1.Makespan)
	}
	if len(r1.Schedule) != 1+10+1+10+1 {
		t.Errorf("Expected 23 waypoints, got %d", len(r1.Schedule))
	}
	if math.Abs(r1.Schedule[10].T-6) > eps || r1.Schedule[10].Pos != (core.Point{X: 2}) {
		t.Errorf("Expected arrival at pick at t=6, got %+v", r1.Schedule[10])
	}

	if r2.Makespan != 0 || len(r2.Schedule) != 1 || r2.Schedule[0].Pos != r2.Base {
		t.Errorf("Idle robot should hold its base, got %+v", r2.Schedule)
	}

	// place point is 3m from R1's base, outside the 2.2m envelope
	if len(violations) != 1 || violations[0].Robot != "R1" {
		t.Errorf("Expected one reach violation for R1, got %v", violations)
	}

	for _, r := range robots {
		if r.Schedule[0].T != 0 || r.Schedule[0].Pos != r.Base {
			t.Errorf("%s: schedule must start at base at t=0", r.ID)
		}
		if !r.Schedule.Monotonic() {
			t.Errorf("%s: schedule times decrease", r.ID)
		}
	}
}

func TestPlanStrictReach(t *testing.T) {
	robots := twoRobotCell()
	p := NewPlanner(DefaultSamplesPerMove, true, nil)

	_, err := p.Plan(robots[0])
	if !errors.Is(err, core.ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestPlanZeroDistanceMove(t *testing.T) {
	r := &core.Robot{
		ID:     "R1",
		Limits: core.Kinematics{VMax: 1, AMax: 1},
		Reach:  core.ReachEnvelope{Max: 10},
		Operations: []*core.Operation{
			{ID: 1, Pick: core.Point{}, Place: core.Point{}},
		},
	}
	p := NewPlanner(0, false, nil)

	if _, err := p.Plan(r); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if r.Makespan != 0 || len(r.Schedule) != 1 {
		t.Errorf("Zero-distance moves should add no time or waypoints, got %v / %d", r.Makespan, len(r.Schedule))
	}
}

func TestPlanDwellHold(t *testing.T) {
	r := &core.Robot{
		ID:     "R1",
		Limits: core.Kinematics{VMax: 1, AMax: 1},
		Reach:  core.ReachEnvelope{Max: 10},
		Operations: []*core.Operation{
			{ID: 1, Pick: core.Point{}, Place: core.Point{}, Dwell: 1.5},
		},
	}
	p := NewPlanner(0, false, nil)

	if _, err := p.Plan(r); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if r.Makespan != 3 || r.Schedule.End() != 3 {
		t.Errorf("Expected two 1.5s holds, got makespan %v end %v", r.Makespan, r.Schedule.End())
	}
}

func TestPlanInvalidKinematics(t *testing.T) {
	r := &core.Robot{ID: "R1", Limits: core.Kinematics{VMax: 0, AMax: 1}}
	p := NewPlanner(0, false, nil)

	if _, err := p.Plan(r); !errors.Is(err, core.ErrInvalidKinematics) {
		t.Errorf("Expected ErrInvalidKinematics, got %v", err)
	}
}

func TestPlanAllParallelMatchesSerial(t *testing.T) {
	serial := crossingRobots()
	parallel := crossingRobots()
	p := NewPlanner(DefaultSamplesPerMove, false, nil)

	if _, err := p.PlanAll(context.Background(), serial, false); err != nil {
		t.Fatal(err)
	}
	if _, err := p.PlanAll(context.Background(), parallel, true); err != nil {
		t.Fatal(err)
	}
	for i := range serial {
		if !reflect.DeepEqual(serial[i].Schedule, parallel[i].Schedule) {
			t.Errorf("%s: parallel schedule differs", serial[i].ID)
		}
	}
}

func TestPlanAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPlanner(0, false, nil)
	if _, err := p.PlanAll(ctx, crossingRobots(), false); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
