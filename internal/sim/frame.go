package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/elektrokombinacija/cellplan/internal/algo"
	"github.com/elektrokombinacija/cellplan/internal/core"
)

// Frame is the cell state at one instant.
type Frame struct {
	T          float64                     `json:"t"`
	Positions  map[core.RobotID][3]float64 `json:"positions"`
	Collisions []core.CollisionEvent       `json:"collisions"`
}

// FrameAt samples every robot at time t. Collisions are the residual
// events recorded within half a step of t.
func (r *Result) FrameAt(t, step float64) Frame {
	f := Frame{T: t, Positions: make(map[core.RobotID][3]float64, len(r.Cell.Robots))}
	for _, robot := range r.Cell.Robots {
		p := robot.Schedule.PositionAt(t)
		f.Positions[robot.ID] = [3]float64{p.X, p.Y, p.Z}
	}
	for _, e := range r.Residual() {
		if math.Abs(e.T-t) <= step/2 {
			f.Collisions = append(f.Collisions, e)
		}
	}
	if f.Collisions == nil {
		f.Collisions = []core.CollisionEvent{}
	}
	return f
}

func frameParams(step float64, limit int) (float64, int) {
	if step <= 0 {
		step = algo.DefaultTimeStep
	}
	if limit <= 0 {
		limit = algo.DefaultMaxSamples
	}
	return step, limit
}

// CheckFrames reports ErrSampleBudget when sampling the run at step would
// take more than limit frames. Zero values select the defaults.
func (r *Result) CheckFrames(step float64, limit int) error {
	step, limit = frameParams(step, limit)
	end := r.Makespan()
	// grid instants plus the closing frame
	if bound := math.Floor(end/step) + 2; math.IsNaN(bound) || bound > float64(limit) {
		return fmt.Errorf("%w: makespan %.3fs at %gs steps, limit %d frames", core.ErrSampleBudget, end, step, limit)
	}
	return nil
}

// EachFrame samples the run at step intervals, including the final instant,
// and hands every frame to fn in order. Nothing is produced when
// CheckFrames fails.
func (r *Result) EachFrame(ctx context.Context, step float64, limit int, fn func(Frame) error) error {
	if err := r.CheckFrames(step, limit); err != nil {
		return err
	}
	step, _ = frameParams(step, limit)
	end := r.Makespan()

	last := -1.0
	for k := 0; ; k++ {
		t := float64(k) * step
		if t > end {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r.FrameAt(t, step)); err != nil {
			return err
		}
		last = t
	}
	if last < end {
		return fn(r.FrameAt(end, step))
	}
	return nil
}
