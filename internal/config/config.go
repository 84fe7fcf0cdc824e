// Package config loads planner, server and logging settings.
//
// Sources are applied in order: built-in defaults, an optional YAML
// file, then CELLPLAN_* environment variables. The result is validated
// before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/cellplan/internal/algo"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
	"github.com/elektrokombinacija/cellplan/internal/sim"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CELLPLAN_"

// Config is the complete application configuration.
type Config struct {
	Planner Planner `yaml:"planner"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Planner holds pipeline settings.
type Planner struct {
	SamplesPerMove  int     `yaml:"samples_per_move" validate:"min=1,max=1000"`
	TimeStep        float64 `yaml:"time_step" validate:"gt=0"`
	MaxSamples      int     `yaml:"max_samples" validate:"min=1"`
	Assignment      string  `yaml:"assignment" validate:"oneof=load_balance nearest_base"`
	Resolver        string  `yaml:"resolver" validate:"oneof=single_pass staggered iterative"`
	ResolveDelay    float64 `yaml:"resolve_delay" validate:"gt=0"`
	StaggerDistance float64 `yaml:"stagger_distance" validate:"gt=0"`
	StaggerFallback float64 `yaml:"stagger_fallback" validate:"gt=0"`
	MaxRounds       int     `yaml:"max_rounds" validate:"min=1"`
	StrictReach     bool    `yaml:"strict_reach"`
	Parallel        bool    `yaml:"parallel"`
	MinReach        float64 `yaml:"min_reach" validate:"gte=0"`
	MaxReach        float64 `yaml:"max_reach" validate:"gtfield=MinReach"`
	LeverArm        float64 `yaml:"lever_arm" validate:"gt=0"`
}

// Server holds HTTP settings.
type Server struct {
	Address         string        `yaml:"address" validate:"required"`
	PipelineTimeout time.Duration `yaml:"pipeline_timeout" validate:"gt=0"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	ScenarioDir     string        `yaml:"scenario_dir"`
	StaticDir       string        `yaml:"static_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" validate:"min=1"`
	BreakerFailures uint32        `yaml:"breaker_failures" validate:"min=1"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" validate:"gt=0"`
}

// Logging selects the zap level and encoding.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Planner: Planner{
			SamplesPerMove:  algo.DefaultSamplesPerMove,
			TimeStep:        algo.DefaultTimeStep,
			MaxSamples:      algo.DefaultMaxSamples,
			Assignment:      algo.PolicyLoadBalance,
			Resolver:        algo.StrategySinglePass,
			ResolveDelay:    algo.DefaultResolveDelay,
			StaggerDistance: algo.DefaultStaggerDistance,
			StaggerFallback: algo.DefaultStaggerFallback,
			MaxRounds:       algo.DefaultMaxRounds,
			MinReach:        0.1,
			MaxReach:        2.2,
			LeverArm:        1.0,
		},
		Server: Server{
			Address:         ":5000",
			PipelineTimeout: 10 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			ScenarioDir:     "test_scenarios",
			StaticDir:       "web",
			MaxUploadBytes:  1 << 20,
			AllowedOrigins:  []string{"*"},
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	p := &c.Planner
	integer("SAMPLES_PER_MOVE", &p.SamplesPerMove)
	float("TIME_STEP", &p.TimeStep)
	integer("MAX_SAMPLES", &p.MaxSamples)
	str("ASSIGNMENT", &p.Assignment)
	str("RESOLVER", &p.Resolver)
	float("RESOLVE_DELAY", &p.ResolveDelay)
	float("STAGGER_DISTANCE", &p.StaggerDistance)
	float("STAGGER_FALLBACK", &p.StaggerFallback)
	integer("MAX_ROUNDS", &p.MaxRounds)
	boolean("STRICT_REACH", &p.StrictReach)
	boolean("PARALLEL", &p.Parallel)
	float("MIN_REACH", &p.MinReach)
	float("MAX_REACH", &p.MaxReach)
	float("LEVER_ARM", &p.LeverArm)

	s := &c.Server
	str("ADDRESS", &s.Address)
	duration("PIPELINE_TIMEOUT", &s.PipelineTimeout)
	str("SCENARIO_DIR", &s.ScenarioDir)
	str("STATIC_DIR", &s.StaticDir)
	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		s.AllowedOrigins = splitList(v)
	}

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Pipeline converts planner settings into a pipeline configuration.
func (c *Config) Pipeline() sim.Config {
	p := c.Planner
	return sim.Config{
		SamplesPerMove:  p.SamplesPerMove,
		TimeStep:        p.TimeStep,
		MaxSamples:      p.MaxSamples,
		Assignment:      p.Assignment,
		Resolver:        p.Resolver,
		ResolveDelay:    p.ResolveDelay,
		StaggerDistance: p.StaggerDistance,
		StaggerFallback: p.StaggerFallback,
		MaxRounds:       p.MaxRounds,
		StrictReach:     p.StrictReach,
		Parallel:        p.Parallel,
		Scenario: scenario.Options{
			LeverArm: p.LeverArm,
			MinReach: p.MinReach,
			MaxReach: p.MaxReach,
		},
	}
}
