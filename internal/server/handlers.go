package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/elektrokombinacija/cellplan/internal/output"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

type runRequest struct {
	Scenario string `json:"scenario" validate:"required"`
}

type runMetadata struct {
	NumRobots          int      `json:"num_robots"`
	NumOperations      int      `json:"num_operations"`
	ToolClearance      float64  `json:"tool_clearance"`
	SafeDist           float64  `json:"safe_dist"`
	CollisionsDetected int      `json:"collisions_detected"`
	CollisionsResolved bool     `json:"collisions_resolved"`
	ResidualCollisions int      `json:"residual_collisions"`
	Resolver           string   `json:"resolver"`
	ResolveRounds      int      `json:"resolve_rounds"`
	Warnings           []string `json:"warnings"`
}

type runResponse struct {
	Success  bool        `json:"success"`
	RunID    string      `json:"run_id"`
	Makespan float64     `json:"makespan"` // milliseconds
	Schedule string      `json:"schedule"`
	Metadata runMetadata `json:"metadata"`
}

type parseRequest struct {
	OutputContent string `json:"output_content" validate:"required"`
}

type trackJSON struct {
	Times []float64 `json:"times"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Z     []float64 `json:"z"`
}

type parseResponse struct {
	Success  bool                 `json:"success"`
	Makespan float64              `json:"makespan"` // seconds
	Robots   map[string]trackJSON `json:"robots"`
}

type scenarioInfo struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

func (s *Server) decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return newValidationError("invalid JSON body", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return newValidationError("missing required field", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.breaker.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"message":           "cell scheduler is running",
		"planner_available": state != gobreaker.StateOpen,
		"breaker":           state.String(),
	})
}

func (s *Server) handleRunScheduler(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	res, err := s.runPipeline(r.Context(), req.Scenario)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(res))
}

func newRunResponse(res *sim.Result) runResponse {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return runResponse{
		Success:  true,
		RunID:    res.RunID,
		Makespan: res.Makespan() * 1000,
		Schedule: res.Output(),
		Metadata: runMetadata{
			NumRobots:          len(res.Cell.Robots),
			NumOperations:      len(res.Cell.Operations),
			ToolClearance:      res.Cell.ToolClearance,
			SafeDist:           res.Cell.SafeDist,
			CollisionsDetected: len(res.Initial),
			CollisionsResolved: len(res.Initial) > 0 && len(res.Residual()) == 0,
			ResidualCollisions: len(res.Residual()),
			Resolver:           res.Resolution.Strategy,
			ResolveRounds:      res.Resolution.Rounds,
			Warnings:           warnings,
		},
	}
}

// handleRunSimulation accepts a multipart upload in field "file".
func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, r, s.logger, newValidationError("invalid upload", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.logger, newValidationError("no file uploaded", err))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, r, s.logger, newValidationError("no file selected", nil))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, s.logger, newValidationError("unreadable upload", err))
		return
	}

	res, err := s.runPipeline(r.Context(), string(data))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"run_id":  res.RunID,
		"output":  res.Output(),
		"log":     strings.Join(res.Warnings, "\n"),
	})
}

func (s *Server) handleParseOutput(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	plan, err := output.Read(strings.NewReader(req.OutputContent))
	if err != nil {
		writeError(w, r, s.logger, newValidationError(err.Error(), err))
		return
	}

	resp := parseResponse{Success: true, Makespan: plan.Makespan, Robots: make(map[string]trackJSON, len(plan.Tracks))}
	for _, tr := range plan.Tracks {
		tj := trackJSON{
			Times: make([]float64, len(tr.Schedule)),
			X:     make([]float64, len(tr.Schedule)),
			Y:     make([]float64, len(tr.Schedule)),
			Z:     make([]float64, len(tr.Schedule)),
		}
		for i, wp := range tr.Schedule {
			tj.Times[i], tj.X[i], tj.Y[i], tj.Z[i] = wp.T, wp.Pos.X, wp.Pos.Y, wp.Pos.Z
		}
		resp.Robots[string(tr.ID)] = tj
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := []scenarioInfo{}

	entries, err := os.ReadDir(s.cfg.ScenarioDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		writeError(w, r, s.logger, err)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.cfg.ScenarioDir, name))
		if err != nil {
			s.logger.Sugar().Warnf("Skipping scenario %s: %v", name, err)
			continue
		}
		scenarios = append(scenarios, scenarioInfo{Name: name, Content: string(data), Size: len(data)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": scenarios})
}

// readScenario loads a scenario by file name from the scenario directory.
func (s *Server) readScenario(name string) (string, error) {
	if name == "" {
		return "", newValidationError("scenario name required", nil)
	}
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".txt") || strings.HasPrefix(name, ".") {
		return "", newValidationError("invalid scenario name", nil)
	}
	data, err := os.ReadFile(filepath.Join(s.cfg.ScenarioDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", newNotFoundError("scenario " + name + " not found")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
