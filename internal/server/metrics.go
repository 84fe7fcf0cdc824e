package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elektrokombinacija/cellplan/internal/sim"
)

// Metrics holds the Prometheus collectors for one server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	Collisions  *prometheus.CounterVec
	Makespan    prometheus.Histogram
}

// NewMetrics creates collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Wall-clock time of pipeline runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Collisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collisions_total",
				Help:      "Collision events by stage (detected, residual)",
			},
			[]string{"stage"},
		),
		Makespan: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "makespan_seconds",
				Help:      "Global makespan of successful runs",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.Runs, m.RunDuration, m.Collisions, m.Makespan,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(elapsed time.Duration, res *sim.Result, err error) {
	m.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		var outcome string
		switch classify(err).Type {
		case ErrorTypeValidation, ErrorTypeNotFound:
			outcome = "invalid"
		case ErrorTypeTimeout:
			outcome = "timeout"
		case ErrorTypeUnavailable:
			outcome = "rejected"
		default:
			outcome = "error"
		}
		m.Runs.WithLabelValues(outcome).Inc()
		return
	}
	if res == nil {
		m.Runs.WithLabelValues("error").Inc()
		return
	}

	m.Runs.WithLabelValues("success").Inc()
	m.Collisions.WithLabelValues("detected").Add(float64(len(res.Initial)))
	m.Collisions.WithLabelValues("residual").Add(float64(len(res.Residual())))
	m.Makespan.Observe(res.Makespan())
}

var errNoResult = errors.New("pipeline returned no result")
