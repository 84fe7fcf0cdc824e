package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
)

func testParams() Params {
	return Params{
		Seed:          7,
		Robots:        5,
		Operations:    20,
		Layout:        "ring",
		Spacing:       1.5,
		Reach:         1.8,
		Speed:         0.5,
		Accel:         0.25,
		ToolClearance: 0.3,
		SafeDist:      0.2,
		DwellMin:      0.5,
		DwellMax:      2,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := scenario.Write(&a, generate(testParams())); err != nil {
		t.Fatal(err)
	}
	if err := scenario.Write(&b, generate(testParams())); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("same seed produced different scenarios")
	}
}

func TestGenerateParses(t *testing.T) {
	var buf bytes.Buffer
	if err := scenario.Write(&buf, generate(testParams())); err != nil {
		t.Fatal(err)
	}

	cell, err := scenario.Parse(&buf, scenario.DefaultOptions())
	if err != nil {
		t.Fatalf("generated scenario does not parse: %v", err)
	}
	if len(cell.Robots) != 5 || len(cell.Operations) != 20 {
		t.Fatalf("got %d robots, %d operations", len(cell.Robots), len(cell.Operations))
	}

	k := cell.Robots[0].Limits
	if math.Abs(k.VMax-0.5) > 1e-9 || math.Abs(k.AMax-0.25) > 1e-9 {
		t.Errorf("limits = %+v, want 0.5 / 0.25", k)
	}

	for _, op := range cell.Operations {
		if op.Dwell < 0.5 || op.Dwell > 2 {
			t.Errorf("op %d dwell %f out of range", op.ID, op.Dwell)
		}
		if !reachableByAny(cell.Robots, op.Pick) || !reachableByAny(cell.Robots, op.Place) {
			t.Errorf("op %d has a point no robot reaches", op.ID)
		}
	}
}

func reachableByAny(robots []*core.Robot, p core.Point) bool {
	for _, r := range robots {
		if r.CanReach(p) {
			return true
		}
	}
	return false
}

func TestLineLayout(t *testing.T) {
	p := testParams()
	p.Layout = "line"
	got := bases(p)
	for i, b := range got {
		if b.X != float64(i)*1.5 || b.Y != 0 {
			t.Errorf("base %d = %v", i, b)
		}
	}
}
