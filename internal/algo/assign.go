package algo

import (
	"fmt"
	"math"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

// Assignment policy names.
const (
	PolicyLoadBalance = "load_balance"
	PolicyNearestBase = "nearest_base"
)

// Assigner distributes operations over robots. Every operation ends up
// on exactly one robot; each robot keeps input order.
type Assigner interface {
	// Assign replaces any previous assignment on robots.
	Assign(robots []*core.Robot, ops []*core.Operation) error

	// Name returns the policy name.
	Name() string
}

// NewAssigner returns the assigner for a policy name. An empty name
// selects load balancing.
func NewAssigner(policy string) (Assigner, error) {
	switch policy {
	case "", PolicyLoadBalance:
		return LoadBalance{}, nil
	case PolicyNearestBase:
		return NearestBase{}, nil
	default:
		return nil, fmt.Errorf("unknown assignment policy %q", policy)
	}
}

func resetAssignment(robots []*core.Robot, ops []*core.Operation) error {
	if len(robots) == 0 && len(ops) > 0 {
		return core.ErrEmptyFleet
	}
	for _, r := range robots {
		r.Operations = nil
	}
	return nil
}

// LoadBalance gives each operation to the robot currently holding the
// fewest. Ties go to the earliest declared robot.
type LoadBalance struct{}

func (LoadBalance) Name() string { return PolicyLoadBalance }

func (LoadBalance) Assign(robots []*core.Robot, ops []*core.Operation) error {
	if err := resetAssignment(robots, ops); err != nil {
		return err
	}

	for _, op := range ops {
		best := robots[0]
		for _, r := range robots[1:] {
			if len(r.Operations) < len(best.Operations) {
				best = r
			}
		}
		best.Operations = append(best.Operations, op)
	}
	return nil
}

// NearestBase gives each operation to the robot whose base is closest to
// the pick point. Ties go to the earliest declared robot.
type NearestBase struct{}

func (NearestBase) Name() string { return PolicyNearestBase }

func (NearestBase) Assign(robots []*core.Robot, ops []*core.Operation) error {
	if err := resetAssignment(robots, ops); err != nil {
		return err
	}

	for _, op := range ops {
		var best *core.Robot
		bestDist := math.Inf(1)
		for _, r := range robots {
			if d := core.Distance(r.Base, op.Pick); d < bestDist {
				best, bestDist = r, d
			}
		}
		best.Operations = append(best.Operations, op)
	}
	return nil
}

// CheckPartition verifies every operation is assigned to exactly one robot.
func CheckPartition(robots []*core.Robot, ops []*core.Operation) error {
	owner := make(map[core.OperationID]core.RobotID, len(ops))
	for _, r := range robots {
		for _, op := range r.Operations {
			if prev, ok := owner[op.ID]; ok {
				return fmt.Errorf("operation %d assigned to both %s and %s", op.ID, prev, r.ID)
			}
			owner[op.ID] = r.ID
		}
	}
	for _, op := range ops {
		if _, ok := owner[op.ID]; !ok {
			return fmt.Errorf("operation %d not assigned", op.ID)
		}
	}
	if len(owner) != len(ops) {
		return fmt.Errorf("assigned %d operations, expected %d", len(owner), len(ops))
	}
	return nil
}
