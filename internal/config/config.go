// Package config defines optimizer configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - Load layers a YAML file and environment variables over the defaults.
//   - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strings"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080". Empty disables
	// the HTTP server.
	Addr string `koanf:"addr"`

	// PopulationSize is the number of strategies drafting against each other.
	PopulationSize int `koanf:"population_size"`

	// Rounds is the number of draft rounds.
	Rounds int `koanf:"rounds"`

	// Generations is how many generations a run evolves.
	Generations int `koanf:"generations"`

	// MutationRate scales the uniform noise added to every child round.
	MutationRate float64 `koanf:"mutation_rate"`

	// Survivors is how many top strategies become parents.
	Survivors int `koanf:"survivors"`

	// Seed seeds the random source. Zero picks a time-based seed.
	Seed int64 `koanf:"seed"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory scoring job queue.
	QueueSize int `koanf:"queue_size"`

	// AthletesPath and PerformancePath locate the input CSV tables.
	AthletesPath    string `koanf:"athletes_path"`
	PerformancePath string `koanf:"performance_path"`

	// HallOfFameSize bounds the number of strategies kept across generations.
	HallOfFameSize int `koanf:"hall_of_fame_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CheckpointDir enables file checkpoints when set.
	CheckpointDir string `koanf:"checkpoint_dir"`

	// CheckpointEvery saves a checkpoint every N generations. Zero disables.
	CheckpointEvery int `koanf:"checkpoint_every"`

	// RedisAddr stores checkpoints in Redis instead of files when set.
	RedisAddr string `koanf:"redis_addr"`

	// RedisKey prefixes every Redis checkpoint key.
	RedisKey string `koanf:"redis_key"`

	// MetricsNamespace prefixes every exported Prometheus series.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are attached to every series, e.g. {experiment: baseline}.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                "",
		PopulationSize:      12,
		Rounds:              15,
		Generations:         50,
		MutationRate:        1.0,
		Survivors:           4,
		Seed:                0,
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1024,
		AthletesPath:        "data/athletes.csv",
		PerformancePath:     "data/performance.csv",
		HallOfFameSize:      100,
		MaxLeaderboardLimit: 100,
		CheckpointDir:       "",
		CheckpointEvery:     0,
		RedisAddr:           "",
		RedisKey:            "snakedraft",
		MetricsNamespace:    "snakedraft",
	}
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.PopulationSize >= 1, "population_size must be at least 1, got %d", c.PopulationSize)
	check(c.Rounds >= 1, "rounds must be at least 1, got %d", c.Rounds)
	check(c.Generations >= 0, "generations must not be negative, got %d", c.Generations)
	check(c.MutationRate >= 0 && !math.IsInf(c.MutationRate, 0) && !math.IsNaN(c.MutationRate),
		"mutation_rate must be a finite non-negative number, got %v", c.MutationRate)
	check(c.Survivors >= 1 && c.Survivors <= c.PopulationSize,
		"survivors must be in [1, population_size=%d], got %d", c.PopulationSize, c.Survivors)
	check(c.QueueSize >= 1, "queue_size must be at least 1, got %d", c.QueueSize)
	check(c.HallOfFameSize >= 0, "hall_of_fame_size must not be negative, got %d", c.HallOfFameSize)
	check(c.MaxLeaderboardLimit >= 1, "max_leaderboard_limit must be at least 1, got %d", c.MaxLeaderboardLimit)
	check(c.CheckpointEvery >= 0, "checkpoint_every must not be negative, got %d", c.CheckpointEvery)
	check(metricName.MatchString(c.MetricsNamespace), "metrics_namespace must be a valid metric name, got %q", c.MetricsNamespace)
	for name := range c.MetricsLabels {
		check(metricName.MatchString(name), "metrics_labels key must be a valid label name, got %q", name)
	}
	check(c.AthletesPath != "", "athletes_path must not be empty")
	check(c.PerformancePath != "", "performance_path must not be empty")
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// CheckpointsEnabled reports whether a checkpoint store is configured.
func (c *Config) CheckpointsEnabled() bool {
	return c.CheckpointEvery > 0 && (c.CheckpointDir != "" || c.RedisAddr != "")
}
