package scenario

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

const jointRows = `-170 170 90 180
-120 120 60 120
-170 170 90 180
-190 190 90 180
-120 120 90 180
-360 360 90 180
`

func TestParseFile(t *testing.T) {
	cell, err := ParseFile("testdata/two_robot.txt", DefaultOptions())
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(cell.Robots) != 2 || len(cell.Operations) != 1 {
		t.Fatalf("Expected 2 robots and 1 operation, got %d and %d", len(cell.Robots), len(cell.Operations))
	}
	if cell.Robots[0].ID != "R1" || cell.Robots[1].ID != "R2" {
		t.Errorf("Expected ids R1, R2, got %s, %s", cell.Robots[0].ID, cell.Robots[1].ID)
	}
	if cell.Robots[1].Base != (core.Point{X: 5}) {
		t.Errorf("Unexpected R2 base %v", cell.Robots[1].Base)
	}

	// the slowest joint maps to 0.5 m/s and 0.25 m/s^2
	k := cell.Robots[0].Limits
	if math.Abs(k.VMax-0.5) > 1e-9 || math.Abs(k.AMax-0.25) > 1e-9 {
		t.Errorf("Expected limits 0.5/0.25, got %+v", k)
	}
	if math.Abs(cell.MinSafeDistance()-0.8) > 1e-9 {
		t.Errorf("Expected min safe distance 0.8, got %v", cell.MinSafeDistance())
	}

	op := cell.Operations[0]
	if op.ID != 1 || op.Pick != (core.Point{X: 2}) || op.Place != (core.Point{X: 3}) || op.Dwell != 1 {
		t.Errorf("Unexpected operation %+v", op)
	}
	if r := cell.Robots[0].Reach; r.Min != 0.1 || r.Max != 2.2 {
		t.Errorf("Unexpected reach envelope %+v", r)
	}
}

func TestParseLeverArm(t *testing.T) {
	src := "1 0\n0 0 0\n" + jointRows + "0.1 0.1\n"

	cell, err := Parse(strings.NewReader(src), Options{LeverArm: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := 60 * math.Pi / 180 * 2
	if math.Abs(cell.Robots[0].Limits.VMax-want) > 1e-9 {
		t.Errorf("Expected v_max %v, got %v", want, cell.Robots[0].Limits.VMax)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"empty", "", 1},
		{"bad header", "two 1\n", 1},
		{"zero robots", "0 0\n" + jointRows + "0.1 0.1\n", 1},
		{"short base", "1 0\n0 0\n", 2},
		{"bad number", "1 0\n0 x 0\n", 2},
		{"nan", "1 0\nNaN 0 0\n", 2},
		{"missing joints", "1 0\n0 0 0\n-1 1 1 1\n", 4},
		{"short operation", "1 1\n0 0 0\n" + jointRows + "0.1 0.1\n1 2 3 4 5 6\n", 10},
		{"missing operation", "1 2\n0 0 0\n" + jointRows + "0.1 0.1\n1 2 3 4 5 6 0\n", 11},
		{"negative dwell", "1 1\n0 0 0\n" + jointRows + "0.1 0.1\n1 2 3 4 5 6 -1\n", 10},
		{"negative clearance", "1 0\n0 0 0\n" + jointRows + "-0.1 0.1\n", 9},
		{"trailing content", "1 0\n0 0 0\n" + jointRows + "0.1 0.1\n\n1 2\n", 11},
		{"oversized robot count", "3000000000 0\n0 0 0\n", 3},
		{"oversized operation count", "1 3000000000\n0 0 0\n" + jointRows + "0.1 0.1\n0 0 0 1 0 0 1\n", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, err := Parse(strings.NewReader(tt.src), DefaultOptions())
			if err == nil {
				t.Fatalf("Expected error, got cell %+v", cell)
			}
			if cell != nil {
				t.Errorf("Partial cell returned alongside error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ParseError, got %T: %v", err, err)
			}
			if pe.Line != tt.line {
				t.Errorf("Expected line %d, got %d (%v)", tt.line, pe.Line, err)
			}
		})
	}
}

func TestParseInvalidKinematics(t *testing.T) {
	rows := strings.Replace(jointRows, "-120 120 60 120", "-120 120 0 120", 1)
	src := "1 0\n0 0 0\n" + rows + "0.1 0.1\n"

	_, err := Parse(strings.NewReader(src), DefaultOptions())
	if !errors.Is(err, core.ErrInvalidKinematics) {
		t.Errorf("Expected ErrInvalidKinematics, got %v", err)
	}
	if !IsParseError(err) {
		t.Errorf("Expected a ParseError")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cell, err := ParseFile("testdata/two_robot.txt", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, cell); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	again, err := Parse(&buf, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse of written scenario failed: %v", err)
	}

	if again.Robots[1].Base != cell.Robots[1].Base || *again.Operations[0] != *cell.Operations[0] {
		t.Errorf("Round trip changed the cell")
	}
	if again.Robots[0].Limits != cell.Robots[0].Limits {
		t.Errorf("Round trip changed limits: %+v vs %+v", again.Robots[0].Limits, cell.Robots[0].Limits)
	}
}
