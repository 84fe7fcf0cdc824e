// Command cellvis plays back planned schedules in a desktop window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/elektrokombinacija/cellplan/internal/config"
	"github.com/elektrokombinacija/cellplan/internal/logging"
	"github.com/elektrokombinacija/cellplan/internal/output"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
	"github.com/elektrokombinacija/cellplan/internal/sim"
	"github.com/elektrokombinacija/cellplan/internal/vis"
	"github.com/elektrokombinacija/cellplan/internal/vis/state"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Scenario file to plan and show")
	outputPath := flag.String("output", "", "Schedule file to show instead of planning")
	configPath := flag.String("config", "", "YAML configuration file")
	toolRadius := flag.Float64("tool-radius", 0.3, "Tool clearance drawn for schedule files (meters)")
	flag.Parse()

	st, err := load(*scenarioPath, *outputPath, *configPath, *toolRadius)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("Cell Schedule Viewer"),
			app.Size(unit.Dp(1400), unit.Dp(900)),
		)

		application := vis.NewApp(st)
		if err := application.Run(window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func load(scenarioPath, outputPath, configPath string, toolRadius float64) (*state.State, error) {
	switch {
	case outputPath != "":
		f, err := os.Open(outputPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		plan, err := output.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", outputPath, err)
		}
		return state.FromPlan(plan, toolRadius), nil

	case scenarioPath != "":
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, err
		}
		defer logger.Sync()

		pipeline, err := sim.New(cfg.Pipeline(), logger)
		if err != nil {
			return nil, err
		}
		cell, err := scenario.ParseFile(scenarioPath, cfg.Pipeline().Scenario)
		if err != nil {
			return nil, err
		}
		res, err := pipeline.Run(context.Background(), cell)
		if err != nil {
			return nil, err
		}
		return state.FromResult(res), nil
	}
	return nil, fmt.Errorf("one of -scenario or -output is required")
}
