// Package server exposes the planning pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/config"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

// Server serves scheduling requests. Every run goes through a circuit
// breaker and is bounded by the configured pipeline timeout.
type Server struct {
	cfg        config.Server
	timeStep   float64
	maxSamples int

	pipeline *sim.Pipeline
	logger   *zap.Logger
	metrics  *Metrics
	breaker  *gobreaker.CircuitBreaker
	validate *validator.Validate
	upgrader websocket.Upgrader
}

// New creates a server from cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pipeline, err := sim.New(cfg.Pipeline(), logger.Named("pipeline"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg.Server,
		timeStep:   cfg.Planner.TimeStep,
		maxSamples: cfg.Planner.MaxSamples,
		pipeline:   pipeline,
		logger:     logger,
		metrics:    NewMetrics("cellplan"),
		validate:   validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	failures := cfg.Server.BreakerFailures
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pipeline",
		MaxRequests: 1,
		Timeout:     cfg.Server.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})

	return s, nil
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/run_scheduler", s.handleRunScheduler)
	r.Post("/api/parse_output", s.handleParseOutput)
	r.Get("/api/scenarios", s.handleScenarios)
	r.Get("/api/ws/playback", s.handlePlayback)
	r.Post("/run-simulation", s.handleRunSimulation)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if dir := s.cfg.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		}
	}

	return r
}

// HTTPServer wraps Router in an http.Server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}

// runPipeline runs scenario text through the breaker with a deadline.
func (s *Server) runPipeline(ctx context.Context, text string) (*sim.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PipelineTimeout)
	defer cancel()

	start := time.Now()
	v, err := s.breaker.Execute(func() (interface{}, error) {
		return s.pipeline.RunScenario(ctx, strings.NewReader(text))
	})
	var res *sim.Result
	if err == nil {
		var ok bool
		if res, ok = v.(*sim.Result); !ok || res == nil {
			err = errNoResult
		}
	}
	s.metrics.ObserveRun(time.Since(start), res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}
