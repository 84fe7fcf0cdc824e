// Package sim runs the planning pipeline end to end:
// assign operations, generate trajectories, detect collisions, resolve.
//
// A run works on a private copy of the cell. Nothing is published until
// every stage has finished, so a cancelled run leaves no partial output.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/algo"
	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/output"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
)

// Config configures a pipeline.
type Config struct {
	// Trajectory sampling
	SamplesPerMove int
	// Collision sampling interval in seconds
	TimeStep float64
	// Upper bound on grid samples per detection pass
	MaxSamples int

	Assignment string
	Resolver   string

	ResolveDelay    float64
	StaggerDistance float64
	StaggerFallback float64
	MaxRounds       int

	// Fail instead of warn on targets outside the reach envelope
	StrictReach bool
	// Plan robots and scan time chunks on separate goroutines
	Parallel bool

	Scenario scenario.Options
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		SamplesPerMove:  algo.DefaultSamplesPerMove,
		TimeStep:        algo.DefaultTimeStep, // 100ms
		MaxSamples:      algo.DefaultMaxSamples,
		Assignment:      algo.PolicyLoadBalance,
		Resolver:        algo.StrategySinglePass,
		ResolveDelay:    algo.DefaultResolveDelay,
		StaggerDistance: algo.DefaultStaggerDistance,
		StaggerFallback: algo.DefaultStaggerFallback,
		MaxRounds:       algo.DefaultMaxRounds,
		Scenario:        scenario.DefaultOptions(),
	}
}

// Metrics collects timings and counts for one run.
type Metrics struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	AssignTime  time.Duration `json:"assign_time_ns"`
	PlanTime    time.Duration `json:"plan_time_ns"`
	DetectTime  time.Duration `json:"detect_time_ns"`
	ResolveTime time.Duration `json:"resolve_time_ns"`

	Robots     int `json:"robots"`
	Operations int `json:"operations"`
	Waypoints  int `json:"waypoints"`

	CollisionsDetected int     `json:"collisions_detected"`
	CollisionsResidual int     `json:"collisions_residual"`
	ResolveRounds      int     `json:"resolve_rounds"`
	TotalDelay         float64 `json:"total_delay"`

	InitialMakespan float64 `json:"initial_makespan"`
	FinalMakespan   float64 `json:"final_makespan"`
}

// Total returns wall-clock time of the run.
func (m Metrics) Total() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Result is the published outcome of a run.
type Result struct {
	RunID       string                `json:"run_id"`
	Cell        *core.Cell            `json:"-"`
	Initial     []core.CollisionEvent `json:"initial_collisions"`
	Resolution  *algo.Resolution      `json:"resolution"`
	Unreachable []algo.ReachViolation `json:"unreachable,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
	Metrics     Metrics               `json:"metrics"`
}

// Makespan is the global makespan after resolution, in seconds.
func (r *Result) Makespan() float64 {
	return r.Cell.GlobalMakespan()
}

// Residual returns collisions left after resolution.
func (r *Result) Residual() []core.CollisionEvent {
	if r.Resolution == nil {
		return r.Initial
	}
	return r.Resolution.Residual
}

// Output returns the serialized schedule text.
func (r *Result) Output() string {
	return output.Format(r.Cell.Robots)
}

// ExportMetrics writes the run metrics as JSON.
func (r *Result) ExportMetrics(path string) error {
	data, err := json.MarshalIndent(r.Metrics, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Pipeline is safe for concurrent use; each Run owns its own cell copy.
type Pipeline struct {
	config Config
	logger *zap.Logger

	assigner algo.Assigner
	planner  *algo.Planner
	detector *algo.Detector
	resolver algo.Resolver
}

// New builds a pipeline, rejecting unknown policy or strategy names.
func New(config Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	assigner, err := algo.NewAssigner(config.Assignment)
	if err != nil {
		return nil, err
	}
	resolver, err := algo.NewResolver(config.Resolver, algo.ResolverOptions{
		Delay:           config.ResolveDelay,
		StaggerDistance: config.StaggerDistance,
		StaggerFallback: config.StaggerFallback,
		MaxRounds:       config.MaxRounds,
	}, logger)
	if err != nil {
		return nil, err
	}

	detector := algo.NewDetector(config.TimeStep, config.Parallel)
	if config.MaxSamples > 0 {
		detector.MaxSamples = config.MaxSamples
	}

	return &Pipeline{
		config:   config,
		logger:   logger,
		assigner: assigner,
		planner:  algo.NewPlanner(config.SamplesPerMove, config.StrictReach, logger),
		detector: detector,
		resolver: resolver,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.config }

// Run plans cell. The input is never modified.
func (p *Pipeline) Run(ctx context.Context, input *core.Cell) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cell := input.Clone()
	res := &Result{RunID: uuid.New().String(), Cell: cell}
	m := &res.Metrics
	m.StartTime = time.Now()
	m.Robots = len(cell.Robots)
	m.Operations = len(cell.Operations)

	log := p.logger.With(zap.String("run_id", res.RunID))
	log.Debug("Pipeline started",
		zap.Int("robots", m.Robots),
		zap.Int("operations", m.Operations),
		zap.String("assignment", p.assigner.Name()),
		zap.String("resolver", p.resolver.Name()))

	// assign
	stage := time.Now()
	if err := p.assigner.Assign(cell.Robots, cell.Operations); err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	if err := algo.CheckPartition(cell.Robots, cell.Operations); err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	m.AssignTime = time.Since(stage)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// plan
	stage = time.Now()
	violations, err := p.planner.PlanAll(ctx, cell.Robots, p.config.Parallel)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	res.Unreachable = violations
	m.PlanTime = time.Since(stage)
	m.Waypoints = cell.Waypoints()
	m.InitialMakespan = cell.GlobalMakespan()

	// detect
	stage = time.Now()
	detect := func(ctx context.Context, robots []*core.Robot) ([]core.CollisionEvent, error) {
		return p.detector.Detect(ctx, robots, cell.MinSafeDistance())
	}
	res.Initial, err = detect(ctx, cell.Robots)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	m.DetectTime = time.Since(stage)
	m.CollisionsDetected = len(res.Initial)

	// resolve
	stage = time.Now()
	res.Resolution, err = p.resolver.Resolve(ctx, cell.Robots, res.Initial, detect)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	m.ResolveTime = time.Since(stage)
	m.ResolveRounds = res.Resolution.Rounds
	m.TotalDelay = res.Resolution.TotalDelay()
	m.CollisionsResidual = len(res.Resolution.Residual)
	m.FinalMakespan = cell.GlobalMakespan()
	m.EndTime = time.Now()

	for _, v := range violations {
		res.Warnings = append(res.Warnings, "unreachable target: "+v.String())
	}
	if n := len(res.Resolution.Residual); n > 0 {
		first, _ := algo.Earliest(res.Resolution.Residual)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d residual collisions after %s resolution, earliest %s", n, p.resolver.Name(), first))
		log.Warn("Residual collisions",
			zap.Int("count", n),
			zap.Float64("earliest", first.T),
			zap.String("pair", string(first.A)+"/"+string(first.B)))
	}

	log.Info("Pipeline finished",
		zap.Float64("makespan", m.FinalMakespan),
		zap.Int("waypoints", m.Waypoints),
		zap.Int("collisions", m.CollisionsDetected),
		zap.Int("residual", m.CollisionsResidual),
		zap.Duration("elapsed", m.Total()))

	return res, nil
}

// RunScenario parses a scenario and runs it.
func (p *Pipeline) RunScenario(ctx context.Context, r io.Reader) (*Result, error) {
	cell, err := scenario.Parse(r, p.config.Scenario)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, cell)
}

// RunFile parses the scenario at path and runs it with a wall-clock
// bound. A zero timeout means no bound.
func RunFile(path string, config Config, timeout time.Duration, logger *zap.Logger) (*Result, error) {
	p, err := New(config, logger)
	if err != nil {
		return nil, err
	}
	cell, err := scenario.ParseFile(path, config.Scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Run(ctx, cell)
}
