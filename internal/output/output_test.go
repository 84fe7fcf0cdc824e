package output

import (
	"math"
	"strings"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

func sampleRobots() []*core.Robot {
	return []*core.Robot{
		{
			ID: "R1",
			Schedule: core.Schedule{
				{T: 0, Pos: core.Point{X: 0, Y: 0, Z: 0}},
				{T: 1.25, Pos: core.Point{X: 0.5, Y: -1, Z: 0.25}},
			},
			Makespan: 1.25,
		},
		{
			ID:       "R2",
			Schedule: core.Schedule{{T: 0, Pos: core.Point{X: 5}}},
		},
	}
}

func TestWrite(t *testing.T) {
	got := Format(sampleRobots())
	want := `1250.000000
R1 2
0.000000 0.000000 0.000000 0.000000
1250.000000 0.500000 -1.000000 0.250000
R2 1
0.000000 5.000000 0.000000 0.000000
`
	if got != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestReadRoundTrip(t *testing.T) {
	plan, err := Read(strings.NewReader(Format(sampleRobots())))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if math.Abs(plan.Makespan-1.25) > 1e-9 {
		t.Errorf("Expected makespan 1.25s, got %v", plan.Makespan)
	}
	if len(plan.Tracks) != 2 || plan.Tracks[0].ID != "R1" || len(plan.Tracks[0].Schedule) != 2 {
		t.Fatalf("Unexpected tracks %+v", plan.Tracks)
	}

	robots := plan.Robots()
	if robots[1].Base != (core.Point{X: 5}) {
		t.Errorf("Expected R2 base from first waypoint, got %v", robots[1].Base)
	}
	if robots[0].Makespan != 1.25 {
		t.Errorf("Expected R1 makespan 1.25, got %v", robots[0].Makespan)
	}
}

func TestReadErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"bad makespan":   "abc\n",
		"bad header":     "10\nR1\n",
		"bad count":      "10\nR1 x\n",
		"short waypoint": "10\nR1 1\n0 0 0\n",
		"missing points": "10\nR1 2\n0 0 0 0\n",
		"huge count":     "10\nR1 3000000000000\n0 0 0 0\n",
	}

	for name, src := range tests {
		if _, err := Read(strings.NewReader(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
