// Package main generates deterministic robot cell scenarios.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
)

// Params defines one generated cell.
type Params struct {
	Seed          int64
	Robots        int
	Operations    int
	Layout        string  // "line" or "ring"
	Spacing       float64 // meters between neighbouring bases
	Reach         float64 // pick/place radius around the chosen base
	Speed         float64 // linear tool speed, m/s
	Accel         float64 // linear tool acceleration, m/s^2
	ToolClearance float64
	SafeDist      float64
	DwellMin      float64
	DwellMax      float64
}

// Name is the scenario file stem.
func (p Params) Name() string {
	return fmt.Sprintf("cell_%s_%dr_%dop_%d", p.Layout, p.Robots, p.Operations, p.Seed)
}

func bases(p Params) []core.Point {
	out := make([]core.Point, p.Robots)
	switch p.Layout {
	case "ring":
		// circumference = robots * spacing
		radius := p.Spacing * float64(p.Robots) / (2 * math.Pi)
		for i := range out {
			angle := 2 * math.Pi * float64(i) / float64(p.Robots)
			out[i] = core.Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
		}
	default:
		for i := range out {
			out[i] = core.Point{X: float64(i) * p.Spacing}
		}
	}
	return out
}

// randomPoint returns a point in the annulus [0.3, Reach] around base,
// at a working height of 0 to 0.6 m.
func randomPoint(rng *rand.Rand, base core.Point, reach float64) core.Point {
	r := 0.3 + rng.Float64()*(reach-0.3)
	angle := rng.Float64() * 2 * math.Pi
	return core.Point{
		X: round(base.X + r*math.Cos(angle)),
		Y: round(base.Y + r*math.Sin(angle)),
		Z: round(base.Z + rng.Float64()*0.6),
	}
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// generate builds a cell from params. Operations are placed around a
// random base so each is reachable by at least one robot.
func generate(p Params) *core.Cell {
	rng := rand.New(rand.NewSource(p.Seed))

	cell := &core.Cell{
		ToolClearance: p.ToolClearance,
		SafeDist:      p.SafeDist,
	}
	for i, b := range bases(p) {
		cell.Robots = append(cell.Robots, &core.Robot{ID: core.RobotIDFor(i), Base: b})
	}

	vDeg := p.Speed * 180 / math.Pi
	aDeg := p.Accel * 180 / math.Pi
	for i := 0; i < scenario.JointCount; i++ {
		cell.Joints = append(cell.Joints, core.JointLimit{Min: -180, Max: 180, VMax: vDeg, AMax: aDeg})
	}

	for i := 0; i < p.Operations; i++ {
		base := cell.Robots[rng.Intn(len(cell.Robots))].Base
		cell.Operations = append(cell.Operations, &core.Operation{
			ID:    core.OperationID(i),
			Pick:  randomPoint(rng, base, p.Reach),
			Place: randomPoint(rng, base, p.Reach),
			Dwell: round(p.DwellMin + rng.Float64()*(p.DwellMax-p.DwellMin)),
		})
	}
	return cell
}

func writeCell(dir string, p Params) (string, error) {
	filename := filepath.Join(dir, p.Name()+".txt")
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	if err := scenario.Write(f, generate(p)); err != nil {
		f.Close()
		return "", err
	}
	return filename, f.Close()
}

func main() {
	seed := flag.Int64("seed", 42, "Random seed for deterministic generation")
	robots := flag.Int("robots", 4, "Number of robots")
	operations := flag.Int("ops", 12, "Number of operations")
	layout := flag.String("layout", "line", "Base layout: line or ring")
	spacing := flag.Float64("spacing", 1.5, "Distance between neighbouring bases (m)")
	reach := flag.Float64("reach", 1.8, "Radius of generated pick/place points around a base (m)")
	speed := flag.Float64("speed", 0.5, "Linear tool speed (m/s)")
	accel := flag.Float64("accel", 0.25, "Linear tool acceleration (m/s^2)")
	clearance := flag.Float64("clearance", 0.3, "Tool clearance (m)")
	safeDist := flag.Float64("safe", 0.2, "Extra safety distance (m)")
	dwellMin := flag.Float64("dwell-min", 0.5, "Minimum dwell (s)")
	dwellMax := flag.Float64("dwell-max", 2.0, "Maximum dwell (s)")
	outputDir := flag.String("output", "test_scenarios", "Output directory")
	suite := flag.Bool("suite", false, "Generate a scaling suite (2, 4, 8, 16, 32 robots, both layouts)")

	flag.Parse()

	if *robots < 1 || *operations < 0 || *dwellMax < *dwellMin {
		fmt.Fprintln(os.Stderr, "Error: need robots >= 1, ops >= 0 and dwell-max >= dwell-min")
		os.Exit(2)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	base := Params{
		Seed:          *seed,
		Robots:        *robots,
		Operations:    *operations,
		Layout:        *layout,
		Spacing:       *spacing,
		Reach:         *reach,
		Speed:         *speed,
		Accel:         *accel,
		ToolClearance: *clearance,
		SafeDist:      *safeDist,
		DwellMin:      *dwellMin,
		DwellMax:      *dwellMax,
	}

	var all []Params
	if *suite {
		for _, l := range []string{"line", "ring"} {
			for _, size := range []int{2, 4, 8, 16, 32} {
				p := base
				p.Layout = l
				p.Robots = size
				p.Operations = size * 3
				all = append(all, p)
			}
		}
	} else {
		all = append(all, base)
	}

	for _, p := range all {
		filename, err := writeCell(*outputDir, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", p.Name(), err)
			continue
		}
		fmt.Printf("Generated: %s (%d robots, %d operations, %s layout)\n",
			filename, p.Robots, p.Operations, p.Layout)
	}
}
