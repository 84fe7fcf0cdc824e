// Command cellplan plans robot cell scenarios and inspects schedules.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/config"
	"github.com/elektrokombinacija/cellplan/internal/logging"
	"github.com/elektrokombinacija/cellplan/internal/output"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

var (
	flagConfig     string
	flagOutput     string
	flagResolver   string
	flagAssignment string
	flagMetrics    string
	flagTimeout    time.Duration
	flagStrict     bool
	flagParallel   bool
	flagJSON       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellplan",
		Short: "Schedule pick-and-place operations across a robot cell",
		Long: `cellplan assigns operations to robots, plans trapezoidal tool paths,
checks every pair of tools for separation over time and delays robots to
clear the collisions it finds.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies command-line overrides on top of the loaded file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagResolver != "" {
		cfg.Planner.Resolver = flagResolver
	}
	if flagAssignment != "" {
		cfg.Planner.Assignment = flagAssignment
	}
	if flagStrict {
		cfg.Planner.StrictReach = true
	}
	if flagParallel {
		cfg.Planner.Parallel = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <scenario>",
		Short: "Plan a scenario and write the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := runPlan(logger, cfg.Pipeline(), args[0]); err != nil {
				logger.Error("Run failed", zap.String("scenario", args[0]), zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "-", "Schedule output file, - for stdout")
	cmd.Flags().StringVar(&flagResolver, "resolver", "", "Override resolver: single_pass, staggered, iterative")
	cmd.Flags().StringVar(&flagAssignment, "assignment", "", "Override assignment: load_balance, nearest_base")
	cmd.Flags().StringVar(&flagMetrics, "metrics", "", "Write run metrics as JSON to this file")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Abort the run after this long (0 = no limit)")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Fail on targets outside the reach envelope")
	cmd.Flags().BoolVar(&flagParallel, "parallel", false, "Plan robots and scan collisions concurrently")
	return cmd
}

func runPlan(logger *zap.Logger, pc sim.Config, scenarioPath string) error {
	res, err := sim.RunFile(scenarioPath, pc, flagTimeout, logger)
	if err != nil {
		return err
	}

	if flagOutput == "-" {
		if err := output.Write(os.Stdout, res.Cell.Robots); err != nil {
			return fmt.Errorf("write schedule: %w", err)
		}
	} else {
		f, err := os.Create(flagOutput)
		if err != nil {
			return err
		}
		if err := output.Write(f, res.Cell.Robots); err != nil {
			f.Close()
			return fmt.Errorf("write schedule: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("Schedule written", zap.String("path", flagOutput))
	}

	if flagMetrics != "" {
		if err := res.ExportMetrics(flagMetrics); err != nil {
			return fmt.Errorf("export metrics: %w", err)
		}
	}

	logger.Info("Run complete",
		zap.String("run_id", res.RunID),
		zap.Float64("makespan", res.Makespan()),
		zap.Int("collisions_initial", len(res.Initial)),
		zap.Int("collisions_residual", len(res.Residual())),
		zap.Duration("elapsed", res.Metrics.Total()))
	return nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Parse scenarios and report the first error in each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.Pipeline().Scenario

			failed := 0
			for _, path := range args {
				cell, err := scenario.ParseFile(path, opts)
				if err == nil {
					err = cell.Validate()
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d robots, %d operations, min separation %.3f m)\n",
					path, len(cell.Robots), len(cell.Operations), cell.MinSafeDistance())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios invalid", failed, len(args))
			}
			return nil
		},
	}
}

type trackSummary struct {
	ID        string  `json:"id"`
	Waypoints int     `json:"waypoints"`
	End       float64 `json:"end"`
}

type planSummary struct {
	Makespan float64        `json:"makespan"`
	Tracks   []trackSummary `json:"tracks"`
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <schedule>",
		Short: "Summarize a schedule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			plan, err := output.Read(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			summary := planSummary{Makespan: plan.Makespan}
			for _, tr := range plan.Tracks {
				summary.Tracks = append(summary.Tracks, trackSummary{
					ID:        string(tr.ID),
					Waypoints: len(tr.Schedule),
					End:       tr.Schedule.End(),
				})
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprintf(out, "makespan %.3f s\n", summary.Makespan)
			for _, t := range summary.Tracks {
				fmt.Fprintf(out, "  %-4s %4d waypoints, ends at %.3f s\n", t.ID, t.Waypoints, t.End)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	return cmd
}
