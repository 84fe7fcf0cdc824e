// Package main runs every resolver strategy over a directory of scenarios
// and collects metrics.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/algo"
	"github.com/elektrokombinacija/cellplan/internal/config"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

// BenchmarkResult stores results from a single run.
type BenchmarkResult struct {
	Timestamp          string  `json:"timestamp"`
	CommitHash         string  `json:"commit_hash"`
	GoVersion          string  `json:"go_version"`
	OS                 string  `json:"os"`
	Arch               string  `json:"arch"`
	Scenario           string  `json:"scenario"`
	NumRobots          int     `json:"num_robots"`
	NumOperations      int     `json:"num_operations"`
	Resolver           string  `json:"resolver"`
	Assignment         string  `json:"assignment"`
	RuntimeMs          float64 `json:"runtime_ms"`
	Success            bool    `json:"success"`
	Error              string  `json:"error,omitempty"`
	InitialMakespan    float64 `json:"initial_makespan"`
	Makespan           float64 `json:"makespan"`
	CollisionsDetected int     `json:"collisions_detected"`
	CollisionsResidual int     `json:"collisions_residual"`
	Rounds             int     `json:"rounds"`
	TotalDelay         float64 `json:"total_delay"`
	Unreachable        int     `json:"unreachable"`
}

// ResolverMetrics holds per-resolver aggregated metrics.
type ResolverMetrics struct {
	Name           string
	TotalRuns      int
	Successes      int
	Clear          int
	TotalRuntimeMs float64
	TotalMakespan  float64
	TotalGrowth    float64
	Residual       int
}

var resolvers = []string{
	algo.StrategySinglePass,
	algo.StrategyStaggered,
	algo.StrategyIterative,
}

func getGitCommit() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

func runScenario(path, resolver string, base sim.Config, timeout time.Duration, logger *zap.Logger) *BenchmarkResult {
	pc := base
	pc.Resolver = resolver

	result := &BenchmarkResult{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CommitHash: getGitCommit(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Scenario:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Resolver:   resolver,
		Assignment: pc.Assignment,
	}

	start := time.Now()
	res, err := sim.RunFile(path, pc, timeout, logger)
	result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		result.Error = err.Error()
		return result
	}

	m := res.Metrics
	result.Success = true
	result.NumRobots = m.Robots
	result.NumOperations = m.Operations
	result.InitialMakespan = m.InitialMakespan
	result.Makespan = m.FinalMakespan
	result.CollisionsDetected = m.CollisionsDetected
	result.CollisionsResidual = m.CollisionsResidual
	result.Rounds = m.ResolveRounds
	result.TotalDelay = m.TotalDelay
	result.Unreachable = len(res.Unreachable)
	return result
}

func writeCSV(results []*BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"timestamp", "commit_hash", "go_version", "os", "arch",
		"scenario", "num_robots", "num_operations", "resolver", "assignment",
		"runtime_ms", "success", "initial_makespan", "makespan",
		"collisions_detected", "collisions_residual", "rounds", "total_delay", "unreachable",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Scenario, fmt.Sprintf("%d", r.NumRobots), fmt.Sprintf("%d", r.NumOperations),
			r.Resolver, r.Assignment,
			fmt.Sprintf("%.3f", r.RuntimeMs), fmt.Sprintf("%t", r.Success),
			fmt.Sprintf("%.3f", r.InitialMakespan), fmt.Sprintf("%.3f", r.Makespan),
			fmt.Sprintf("%d", r.CollisionsDetected), fmt.Sprintf("%d", r.CollisionsResidual),
			fmt.Sprintf("%d", r.Rounds), fmt.Sprintf("%.3f", r.TotalDelay),
			fmt.Sprintf("%d", r.Unreachable),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(results []*BenchmarkResult, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func aggregate(results []*BenchmarkResult) map[string]*ResolverMetrics {
	metrics := make(map[string]*ResolverMetrics)
	for _, r := range results {
		m, ok := metrics[r.Resolver]
		if !ok {
			m = &ResolverMetrics{Name: r.Resolver}
			metrics[r.Resolver] = m
		}
		m.TotalRuns++
		if !r.Success {
			continue
		}
		m.Successes++
		m.TotalRuntimeMs += r.RuntimeMs
		m.TotalMakespan += r.Makespan
		m.TotalGrowth += r.Makespan - r.InitialMakespan
		m.Residual += r.CollisionsResidual
		if r.CollisionsResidual == 0 {
			m.Clear++
		}
	}
	return metrics
}

func printSummary(results []*BenchmarkResult) {
	metrics := aggregate(results)

	fmt.Println("\n=== BENCHMARK SUMMARY ===")
	fmt.Printf("%-12s %6s %8s %12s %11s %10s %7s %9s\n",
		"Resolver", "Runs", "Success", "Avg Time(ms)", "AvgMakespan", "AvgGrowth", "Clear%", "Residual")
	fmt.Println(strings.Repeat("-", 82))

	var names []string
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := metrics[name]
		avgTime, avgMakespan, avgGrowth, clearPct := 0.0, 0.0, 0.0, 0.0
		if m.Successes > 0 {
			n := float64(m.Successes)
			avgTime = m.TotalRuntimeMs / n
			avgMakespan = m.TotalMakespan / n
			avgGrowth = m.TotalGrowth / n
			clearPct = float64(m.Clear) / n * 100
		}
		fmt.Printf("%-12s %6d %8d %12.2f %11.2f %10.2f %6.1f%% %9d\n",
			m.Name, m.TotalRuns, m.Successes, avgTime, avgMakespan, avgGrowth, clearPct, m.Residual)
	}
}

func main() {
	inputDir := flag.String("input", "test_scenarios", "Directory containing scenario .txt files")
	outputFile := flag.String("output", "evidence/benchmark_results.csv", "Output CSV file")
	jsonFile := flag.String("json", "", "Also write results as JSON to this file")
	configPath := flag.String("config", "", "YAML configuration file")
	timeout := flag.Duration("timeout", time.Minute, "Timeout per run")
	resolverFilter := flag.String("resolver", "", "Run only specific resolvers (comma-separated)")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	outputDir := filepath.Dir(*outputFile)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*inputDir, "*.txt"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding scenario files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No scenario files found in %s\n", *inputDir)
		fmt.Fprintf(os.Stderr, "Run gen_scenarios first: go run ./tools/gen_scenarios -suite\n")
		os.Exit(1)
	}
	sort.Strings(files)

	active := resolvers
	if *resolverFilter != "" {
		active = strings.Split(*resolverFilter, ",")
	}

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	var results []*BenchmarkResult
	totalRuns := len(files) * len(active)
	currentRun := 0

	fmt.Printf("Running benchmarks: %d scenarios x %d resolvers = %d runs\n",
		len(files), len(active), totalRuns)
	fmt.Printf("Timeout per run: %v\n", *timeout)
	fmt.Println()

	for _, file := range files {
		for _, resolver := range active {
			currentRun++
			if *verbose {
				fmt.Printf("[%d/%d] %s / %s ... ", currentRun, totalRuns, filepath.Base(file), resolver)
			} else {
				fmt.Printf("\r[%d/%d] Running...", currentRun, totalRuns)
			}

			result := runScenario(file, resolver, cfg.Pipeline(), *timeout, logger)
			results = append(results, result)

			if *verbose {
				if result.Success {
					fmt.Printf("OK (%.2fms, makespan=%.2f, residual=%d)\n",
						result.RuntimeMs, result.Makespan, result.CollisionsResidual)
				} else {
					fmt.Printf("FAILED: %s\n", result.Error)
				}
			}
		}
	}

	fmt.Println()

	if err := writeCSV(results, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Results written to: %s\n", *outputFile)

	if *jsonFile != "" {
		if err := writeJSON(results, *jsonFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	}

	printSummary(results)
}
