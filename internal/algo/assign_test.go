package algo

import (
	"errors"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

func makeOps(picks ...core.Point) []*core.Operation {
	ops := make([]*core.Operation, len(picks))
	for i, p := range picks {
		ops[i] = &core.Operation{ID: core.OperationID(i + 1), Pick: p, Place: p}
	}
	return ops
}

func opIDs(r *core.Robot) []core.OperationID {
	ids := make([]core.OperationID, len(r.Operations))
	for i, op := range r.Operations {
		ids[i] = op.ID
	}
	return ids
}

func TestLoadBalance(t *testing.T) {
	robots := []*core.Robot{{ID: "R1"}, {ID: "R2"}, {ID: "R3"}}
	ops := makeOps(core.Point{}, core.Point{}, core.Point{}, core.Point{}, core.Point{})

	if err := (LoadBalance{}).Assign(robots, ops); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	want := map[core.RobotID][]core.OperationID{
		"R1": {1, 4},
		"R2": {2, 5},
		"R3": {3},
	}
	for _, r := range robots {
		got := opIDs(r)
		if len(got) != len(want[r.ID]) {
			t.Fatalf("%s: expected %v, got %v", r.ID, want[r.ID], got)
		}
		for i := range got {
			if got[i] != want[r.ID][i] {
				t.Errorf("%s: expected %v, got %v", r.ID, want[r.ID], got)
			}
		}
	}

	if err := CheckPartition(robots, ops); err != nil {
		t.Errorf("Partition check failed: %v", err)
	}
}

func TestLoadBalanceReplacesPreviousAssignment(t *testing.T) {
	robots := []*core.Robot{{ID: "R1"}, {ID: "R2"}}
	ops := makeOps(core.Point{}, core.Point{})

	a := LoadBalance{}
	_ = a.Assign(robots, ops)
	if err := a.Assign(robots, ops); err != nil {
		t.Fatal(err)
	}
	if err := CheckPartition(robots, ops); err != nil {
		t.Errorf("Second assignment duplicated operations: %v", err)
	}
}

func TestNearestBase(t *testing.T) {
	robots := []*core.Robot{
		{ID: "R1", Base: core.Point{X: 0}},
		{ID: "R2", Base: core.Point{X: 4}},
	}
	ops := makeOps(
		core.Point{X: 3.5}, // R2
		core.Point{X: 0.5}, // R1
		core.Point{X: 2},   // tie, R1
		core.Point{X: 5},   // R2
	)

	if err := (NearestBase{}).Assign(robots, ops); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if got := opIDs(robots[0]); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("R1: expected [2 3], got %v", got)
	}
	if got := opIDs(robots[1]); len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Errorf("R2: expected [1 4], got %v", got)
	}
	if err := CheckPartition(robots, ops); err != nil {
		t.Errorf("Partition check failed: %v", err)
	}
}

func TestAssignEmptyFleet(t *testing.T) {
	ops := makeOps(core.Point{})
	for _, a := range []Assigner{LoadBalance{}, NearestBase{}} {
		if err := a.Assign(nil, ops); !errors.Is(err, core.ErrEmptyFleet) {
			t.Errorf("%s: expected ErrEmptyFleet, got %v", a.Name(), err)
		}
		if err := a.Assign(nil, nil); err != nil {
			t.Errorf("%s: empty fleet with no operations should succeed, got %v", a.Name(), err)
		}
	}
}

func TestNewAssigner(t *testing.T) {
	tests := []struct {
		policy  string
		want    string
		wantErr bool
	}{
		{"", PolicyLoadBalance, false},
		{"load_balance", PolicyLoadBalance, false},
		{"nearest_base", PolicyNearestBase, false},
		{"random", "", true},
	}

	for _, tt := range tests {
		a, err := NewAssigner(tt.policy)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewAssigner(%q): expected error", tt.policy)
			}
			continue
		}
		if err != nil || a.Name() != tt.want {
			t.Errorf("NewAssigner(%q) = %v, %v; want %s", tt.policy, a, err, tt.want)
		}
	}
}

func TestCheckPartitionDetectsDuplicates(t *testing.T) {
	ops := makeOps(core.Point{}, core.Point{})
	robots := []*core.Robot{
		{ID: "R1", Operations: []*core.Operation{ops[0]}},
		{ID: "R2", Operations: []*core.Operation{ops[0]}},
	}
	if CheckPartition(robots, ops) == nil {
		t.Errorf("Expected error for duplicated and missing operations")
	}
}
