package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/sim"
)

const crossing = `2 2
-1 0 0
0 -1 0
-180 180 57.29577951308232 57.29577951308232
-180 180 57.29577951308232 57.29577951308232
-180 180 57.29577951308232 57.29577951308232
-180 180 57.29577951308232 57.29577951308232
-180 180 57.29577951308232 57.29577951308232
-180 180 57.29577951308232 57.29577951308232
0.3 0.2
1 0 0 1 0 0.5 0
0 1 0 0 1 0.5 0
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crossing.txt")
	if err := os.WriteFile(path, []byte(crossing), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenarioEveryResolver(t *testing.T) {
	path := writeScenario(t)
	for _, resolver := range resolvers {
		r := runScenario(path, resolver, sim.DefaultConfig(), time.Minute, zap.NewNop())
		if !r.Success {
			t.Fatalf("%s failed: %s", resolver, r.Error)
		}
		if r.Scenario != "crossing" || r.NumRobots != 2 || r.NumOperations != 2 {
			t.Errorf("%s: %+v", resolver, r)
		}
		if r.CollisionsDetected == 0 {
			t.Errorf("%s: crossing paths produced no collisions", resolver)
		}
		if r.Makespan < r.InitialMakespan {
			t.Errorf("%s: makespan shrank from %f to %f", resolver, r.InitialMakespan, r.Makespan)
		}
	}
}

func TestRunScenarioMissingFile(t *testing.T) {
	r := runScenario(filepath.Join(t.TempDir(), "nope.txt"), resolvers[0], sim.DefaultConfig(), time.Minute, zap.NewNop())
	if r.Success || r.Error == "" {
		t.Errorf("missing file reported %+v", r)
	}
}

func TestWriteCSV(t *testing.T) {
	results := []*BenchmarkResult{
		{Scenario: "a", Resolver: "single_pass", Success: true, Makespan: 4},
		{Scenario: "a", Resolver: "iterative", Success: false},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := writeCSV(results, path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][5] != "a" || rows[1][8] != "single_pass" || rows[1][13] != "4.000" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestAggregate(t *testing.T) {
	results := []*BenchmarkResult{
		{Resolver: "iterative", Success: true, InitialMakespan: 4, Makespan: 6},
		{Resolver: "iterative", Success: true, InitialMakespan: 4, Makespan: 4, CollisionsResidual: 2},
		{Resolver: "iterative", Success: false},
	}
	m := aggregate(results)["iterative"]
	if m.TotalRuns != 3 || m.Successes != 2 || m.Clear != 1 || m.Residual != 2 {
		t.Errorf("metrics = %+v", m)
	}
	if m.TotalGrowth != 2 {
		t.Errorf("growth = %f, want 2", m.TotalGrowth)
	}
}
