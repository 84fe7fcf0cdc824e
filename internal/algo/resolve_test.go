package algo

import (
	"context"
	"math"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

func crossingDetect(step float64) DetectFunc {
	d := NewDetector(step, false)
	return func(ctx context.Context, robots []*core.Robot) ([]core.CollisionEvent, error) {
		return d.Detect(ctx, robots, crossingMinSafe)
	}
}

// sameInstant matches events by time and pair, ignoring the measured distance.
func sameInstant(a, b core.CollisionEvent) bool {
	return a.T == b.T && a.A == b.A && a.B == b.B
}

func TestSameInstantIgnoresDistance(t *testing.T) {
	a := core.CollisionEvent{T: 1.5, A: "R1", B: "R2", Distance: 0.1}
	if !sameInstant(a, core.CollisionEvent{T: 1.5, A: "R1", B: "R2", Distance: 0.7}) {
		t.Errorf("Events at the same instant and pair should match")
	}
	if sameInstant(a, core.CollisionEvent{T: 1.6, A: "R1", B: "R2", Distance: 0.1}) {
		t.Errorf("Events at different instants should not match")
	}
	if sameInstant(a, core.CollisionEvent{T: 1.5, A: "R1", B: "R3", Distance: 0.1}) {
		t.Errorf("Events on different pairs should not match")
	}
}

func TestSinglePassResolvesEarliest(t *testing.T) {
	robots := plannedCrossing(t)
	detect := crossingDetect(DefaultTimeStep)
	events, _ := detect(context.Background(), robots)
	earliest, _ := Earliest(events)
	before := robots[1].Makespan

	res, err := (&SinglePass{Delay: 2}).Resolve(context.Background(), robots, events, detect)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Rounds != 1 || res.Delays["R2"] != 2 {
		t.Errorf("Expected one 2s delay on R2, got %+v", res)
	}
	if math.Abs(robots[1].Makespan-(before+2)) > eps {
		t.Errorf("Expected R2 makespan %v, got %v", before+2, robots[1].Makespan)
	}
	if robots[1].Schedule.End() != robots[1].Makespan {
		t.Errorf("Schedule end and makespan diverged")
	}
	for _, e := range res.Residual {
		if sameInstant(e, earliest) {
			t.Errorf("Resolved event %v reappeared", earliest)
		}
	}
}

func TestResolveNoEvents(t *testing.T) {
	robots := plannedCrossing(t)
	calls := 0
	detect := func(context.Context, []*core.Robot) ([]core.CollisionEvent, error) {
		calls++
		return nil, nil
	}

	for _, r := range []Resolver{&SinglePass{}, &Staggered{}, &Iterative{}} {
		res, err := r.Resolve(context.Background(), robots, nil, detect)
		if err != nil {
			t.Fatalf("%s: %v", r.Name(), err)
		}
		if res.Rounds != 0 || res.TotalDelay() != 0 {
			t.Errorf("%s: expected no action, got %+v", r.Name(), res)
		}
	}
	if calls != 0 {
		t.Errorf("Detection should not rerun without events, ran %d times", calls)
	}
}

func TestStaggerDelay(t *testing.T) {
	s := &Staggered{Distance: 2, Fallback: 5}

	if d := s.StaggerDelay(&core.Robot{Limits: core.Kinematics{VMax: 0.5}}); math.Abs(d-8) > eps {
		t.Errorf("Expected 8s delay at 0.5 m/s, got %v", d)
	}
	if d := s.StaggerDelay(&core.Robot{}); d != 5 {
		t.Errorf("Expected fallback delay 5, got %v", d)
	}
}

func TestStaggeredResolve(t *testing.T) {
	robots := plannedCrossing(t)
	detect := crossingDetect(DefaultTimeStep)
	events, _ := detect(context.Background(), robots)

	res, err := (&Staggered{}).Resolve(context.Background(), robots, events, detect)
	if err != nil {
		t.Fatal(err)
	}
	// 2m at half of 1 m/s
	if math.Abs(res.Delays["R2"]-4) > eps {
		t.Errorf("Expected 4s stagger on R2, got %v", res.Delays)
	}
}

func TestIterativeClearsCrossing(t *testing.T) {
	robots := plannedCrossing(t)
	detect := crossingDetect(DefaultTimeStep)
	events, _ := detect(context.Background(), robots)
	before := core.GlobalMakespan(robots)

	res, err := (&Iterative{Delay: 2, MaxRounds: 10}).Resolve(context.Background(), robots, events, detect)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Residual) != 0 {
		t.Errorf("Expected all collisions cleared, %d remain", len(res.Residual))
	}
	if res.Rounds < 1 || res.Rounds > 10 {
		t.Errorf("Unexpected round count %d", res.Rounds)
	}
	if core.GlobalMakespan(robots) < before {
		t.Errorf("Resolution must not shrink the makespan")
	}
	// equal makespans: the tie goes to the second robot
	if res.Delays["R2"] == 0 {
		t.Errorf("Expected R2 to be delayed first, got %v", res.Delays)
	}
}

func TestIterativeBoundedRounds(t *testing.T) {
	// permanently overlapping idle robots can never be separated by delays
	robots := []*core.Robot{
		{ID: "R1", Schedule: core.Schedule{{T: 0}}},
		{ID: "R2", Schedule: core.Schedule{{T: 0}}},
	}
	d := NewDetector(0, false)
	detect := func(ctx context.Context, rs []*core.Robot) ([]core.CollisionEvent, error) {
		return d.Detect(ctx, rs, 1)
	}
	events, _ := detect(context.Background(), robots)

	res, err := (&Iterative{Delay: 1, MaxRounds: 3}).Resolve(context.Background(), robots, events, detect)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rounds != 3 {
		t.Errorf("Expected 3 rounds, got %d", res.Rounds)
	}
	if len(res.Residual) == 0 {
		t.Errorf("Expected residual collisions")
	}
}

func TestIterativePrefersSmallerGrowth(t *testing.T) {
	robots := []*core.Robot{
		{ID: "R1", Makespan: 1, Schedule: core.Schedule{{T: 0}, {T: 1}}},
		{ID: "R2", Makespan: 10, Schedule: core.Schedule{{T: 0}, {T: 10}}},
	}
	events := []core.CollisionEvent{{T: 0, A: "R1", B: "R2"}}
	detect := func(context.Context, []*core.Robot) ([]core.CollisionEvent, error) { return nil, nil }

	res, err := (&Iterative{Delay: 2}).Resolve(context.Background(), robots, events, detect)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delays["R1"] != 2 || res.Delays["R2"] != 0 {
		t.Errorf("Expected the short schedule to absorb the delay, got %v", res.Delays)
	}
	if core.GlobalMakespan(robots) != 10 {
		t.Errorf("Global makespan should stay 10, got %v", core.GlobalMakespan(robots))
	}
}

func TestNewResolver(t *testing.T) {
	for _, name := range []string{"", StrategySinglePass, StrategyStaggered, StrategyIterative} {
		r, err := NewResolver(name, ResolverOptions{}, nil)
		if err != nil {
			t.Errorf("NewResolver(%q): %v", name, err)
			continue
		}
		if name != "" && r.Name() != name {
			t.Errorf("NewResolver(%q).Name() = %s", name, r.Name())
		}
	}
	if _, err := NewResolver("optimal", ResolverOptions{}, nil); err == nil {
		t.Errorf("Expected error for unknown strategy")
	}
}
