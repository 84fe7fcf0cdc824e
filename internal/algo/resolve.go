package algo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// Resolver strategy names.
const (
	StrategySinglePass = "single_pass"
	StrategyStaggered  = "staggered"
	StrategyIterative  = "iterative"
)

// Defaults for the built-in resolvers.
const (
	DefaultResolveDelay    = 2.0 // seconds
	DefaultStaggerDistance = 2.0 // meters
	DefaultStaggerFallback = 5.0 // seconds
	DefaultMaxRounds       = 50
)

// DetectFunc re-runs collision detection over the current schedules.
type DetectFunc func(ctx context.Context, robots []*core.Robot) ([]core.CollisionEvent, error)

// Resolution summarizes what a resolver did.
type Resolution struct {
	Strategy string                   `json:"strategy"`
	Rounds   int                      `json:"rounds"`
	Delays   map[core.RobotID]float64 `json:"delays"`   // total delay applied per robot
	Targeted []core.CollisionEvent    `json:"targeted"` // the event addressed in each round
	Residual []core.CollisionEvent    `json:"residual"` // events left after the last round
}

// TotalDelay sums the delay applied to all robots.
func (r *Resolution) TotalDelay() float64 {
	var sum float64
	for _, d := range r.Delays {
		sum += d
	}
	return sum
}

// Resolver removes collisions by delaying robot schedules. It never
// edits positions, so makespans only grow.
type Resolver interface {
	Resolve(ctx context.Context, robots []*core.Robot, events []core.CollisionEvent, detect DetectFunc) (*Resolution, error)

	// Name returns the strategy name.
	Name() string
}

// ResolverOptions configures NewResolver.
type ResolverOptions struct {
	Delay           float64
	StaggerDistance float64
	StaggerFallback float64
	MaxRounds       int
}

// NewResolver returns the resolver for a strategy name. An empty name
// selects single pass.
func NewResolver(strategy string, opts ResolverOptions, logger *zap.Logger) (Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strategy {
	case "", StrategySinglePass:
		return &SinglePass{Delay: opts.Delay, logger: logger}, nil
	case StrategyStaggered:
		return &Staggered{Distance: opts.StaggerDistance, Fallback: opts.StaggerFallback, logger: logger}, nil
	case StrategyIterative:
		return &Iterative{Delay: opts.Delay, MaxRounds: opts.MaxRounds, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown resolver strategy %q", strategy)
	}
}

func findRobot(robots []*core.Robot, id core.RobotID) *core.Robot {
	for _, r := range robots {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// delayOnce shifts the second robot of the earliest event and re-detects.
func delayOnce(ctx context.Context, res *Resolution, robots []*core.Robot, events []core.CollisionEvent,
	detect DetectFunc, delayFor func(*core.Robot) float64, logger *zap.Logger) (*Resolution, error) {
	e, ok := Earliest(events)
	if !ok {
		return res, nil
	}

	robot := findRobot(robots, e.B)
	if robot == nil {
		return nil, fmt.Errorf("collision references unknown robot %s", e.B)
	}
	delay := delayFor(robot)
	robot.Shift(delay)
	res.Delays[robot.ID] += delay
	res.Targeted = append(res.Targeted, e)
	res.Rounds = 1

	logger.Info("Delayed robot",
		zap.String("strategy", res.Strategy),
		zap.String("robot", string(robot.ID)),
		zap.Float64("delay", delay),
		zap.Float64("collision_time", e.T))

	residual, err := detect(ctx, robots)
	if err != nil {
		return nil, err
	}
	res.Residual = residual
	return res, nil
}

// SinglePass delays the second robot of the earliest collision by a
// fixed amount, then detects once more. Remaining events are reported,
// not resolved.
type SinglePass struct {
	Delay float64

	logger *zap.Logger
}

func (s *SinglePass) Name() string { return StrategySinglePass }

func (s *SinglePass) Resolve(ctx context.Context, robots []*core.Robot, events []core.CollisionEvent, detect DetectFunc) (*Resolution, error) {
	delay := s.Delay
	if delay <= 0 {
		delay = DefaultResolveDelay
	}
	res := &Resolution{Strategy: s.Name(), Delays: map[core.RobotID]float64{}}
	return delayOnce(ctx, res, robots, events, detect,
		func(*core.Robot) float64 { return delay }, loggerOrNop(s.logger))
}

// Staggered delays the second robot of the earliest collision long
// enough to cover Distance at half its top speed.
type Staggered struct {
	Distance float64
	Fallback float64 // used when the robot has no usable speed

	logger *zap.Logger
}

func (s *Staggered) Name() string { return StrategyStaggered }

// StaggerDelay returns the delay applied to robot.
func (s *Staggered) StaggerDelay(robot *core.Robot) float64 {
	dist := s.Distance
	if dist <= 0 {
		dist = DefaultStaggerDistance
	}
	if robot.Limits.VMax <= 0 {
		if s.Fallback > 0 {
			return s.Fallback
		}
		return DefaultStaggerFallback
	}
	return dist / (robot.Limits.VMax / 2)
}

func (s *Staggered) Resolve(ctx context.Context, robots []*core.Robot, events []core.CollisionEvent, detect DetectFunc) (*Resolution, error) {
	res := &Resolution{Strategy: s.Name(), Delays: map[core.RobotID]float64{}}
	return delayOnce(ctx, res, robots, events, detect, s.StaggerDelay, loggerOrNop(s.logger))
}

// Iterative repeats resolution until no collisions remain or MaxRounds
// is reached. Each round delays whichever robot of the earliest event
// grows the global makespan least; ties delay the second robot.
type Iterative struct {
	Delay     float64
	MaxRounds int

	logger *zap.Logger
}

func (it *Iterative) Name() string { return StrategyIterative }

func (it *Iterative) Resolve(ctx context.Context, robots []*core.Robot, events []core.CollisionEvent, detect DetectFunc) (*Resolution, error) {
	delay := it.Delay
	if delay <= 0 {
		delay = DefaultResolveDelay
	}
	rounds := it.MaxRounds
	if rounds <= 0 {
		rounds = DefaultMaxRounds
	}
	logger := loggerOrNop(it.logger)

	res := &Resolution{Strategy: it.Name(), Delays: map[core.RobotID]float64{}, Residual: events}
	for res.Rounds < rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, ok := Earliest(res.Residual)
		if !ok {
			break
		}

		a, b := findRobot(robots, e.A), findRobot(robots, e.B)
		if a == nil || b == nil {
			return nil, fmt.Errorf("collision references unknown robot %s/%s", e.A, e.B)
		}
		robot := b
		if makespanGrowth(robots, a, delay) < makespanGrowth(robots, b, delay) {
			robot = a
		}

		robot.Shift(delay)
		res.Delays[robot.ID] += delay
		res.Targeted = append(res.Targeted, e)
		res.Rounds++

		logger.Debug("Resolution round",
			zap.Int("round", res.Rounds),
			zap.String("robot", string(robot.ID)),
			zap.Float64("collision_time", e.T))

		residual, err := detect(ctx, robots)
		if err != nil {
			return nil, err
		}
		res.Residual = residual
	}

	if len(res.Residual) > 0 {
		logger.Warn("Collisions remain after iterative resolution",
			zap.Int("rounds", res.Rounds),
			zap.Int("residual", len(res.Residual)))
	}
	return res, nil
}

// makespanGrowth is how much the global makespan grows if r is delayed.
func makespanGrowth(robots []*core.Robot, r *core.Robot, delay float64) float64 {
	current := core.GlobalMakespan(robots)
	return max(current, r.Makespan+delay) - current
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
