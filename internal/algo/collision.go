package algo

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// DefaultTimeStep is the collision sampling interval in seconds.
const DefaultTimeStep = 0.1

// DefaultMaxSamples bounds one detection pass, about 28 h of cell time at
// the default step.
const DefaultMaxSamples = 1_000_000

// ctxCheckInterval is how many samples pass between context checks.
const ctxCheckInterval = 256

// Detector samples robot schedules on a fixed time grid and reports
// every instant where two tools are closer than the safe distance.
type Detector struct {
	Step     float64
	Parallel bool
	// MaxSamples caps the time grid of one pass; zero means DefaultMaxSamples.
	MaxSamples int
}

// NewDetector creates a detector. Non-positive steps fall back to
// DefaultTimeStep.
func NewDetector(step float64, parallel bool) *Detector {
	if step <= 0 {
		step = DefaultTimeStep
	}
	return &Detector{Step: step, Parallel: parallel, MaxSamples: DefaultMaxSamples}
}

// sampleCount returns how many grid instants k*step lie in [0, makespan).
// t=0 is always sampled so idle cells still report overlapping bases.
func (d *Detector) sampleCount(makespan float64) (int, error) {
	limit := d.MaxSamples
	if limit <= 0 {
		limit = DefaultMaxSamples
	}
	if math.IsNaN(makespan) || math.IsInf(makespan, 0) {
		return 0, fmt.Errorf("%w: makespan %v", core.ErrSampleBudget, makespan)
	}
	steps := math.Ceil(makespan / d.Step)
	if steps > float64(limit) {
		return 0, fmt.Errorf("%w: makespan %.3fs needs %.0f samples at %gs, limit %d",
			core.ErrSampleBudget, makespan, steps, d.Step, limit)
	}

	// settle rounding so the count matches the k*step < makespan grid
	n := max(int(steps), 1)
	for n > 1 && float64(n-1)*d.Step >= makespan {
		n--
	}
	for float64(n)*d.Step < makespan {
		n++
	}
	return n, nil
}

// Detect returns collision events ordered by time, then by pair in
// declared robot order.
func (d *Detector) Detect(ctx context.Context, robots []*core.Robot, minSafe float64) ([]core.CollisionEvent, error) {
	if len(robots) < 2 {
		return nil, nil
	}
	n, err := d.sampleCount(core.GlobalMakespan(robots))
	if err != nil {
		return nil, err
	}

	if !d.Parallel || n < 2*ctxCheckInterval {
		return d.scan(ctx, robots, minSafe, 0, n)
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	parts := make([][]core.CollisionEvent, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			events, err := d.scan(gctx, robots, minSafe, lo, hi)
			parts[w] = events
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []core.CollisionEvent
	for _, p := range parts {
		events = append(events, p...)
	}
	return events, nil
}

// scan checks samples [lo, hi).
func (d *Detector) scan(ctx context.Context, robots []*core.Robot, minSafe float64, lo, hi int) ([]core.CollisionEvent, error) {
	var events []core.CollisionEvent
	pos := make([]core.Point, len(robots))

	for k := lo; k < hi; k++ {
		if (k-lo)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		t := float64(k) * d.Step
		for i, r := range robots {
			pos[i] = r.Schedule.PositionAt(t)
		}

		for i := 0; i < len(robots); i++ {
			for j := i + 1; j < len(robots); j++ {
				if dist := core.Distance(pos[i], pos[j]); dist < minSafe {
					events = append(events, core.CollisionEvent{
						T:        t,
						A:        robots[i].ID,
						B:        robots[j].ID,
						Distance: dist,
					})
				}
			}
		}
	}
	return events, nil
}

// Earliest returns the first event by time. Ties keep list order.
func Earliest(events []core.CollisionEvent) (core.CollisionEvent, bool) {
	if len(events) == 0 {
		return core.CollisionEvent{}, false
	}
	best := events[0]
	for _, e := range events[1:] {
		if e.T < best.T {
			best = e
		}
	}
	return best, true
}
