// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and STANDINGS_* env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/standings/internal/domain/ranking"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Damping is the share of score propagated through the defeat graph.
	Damping float64 `koanf:"damping"`

	// Policy selects the stopping rule: fixed or convergence.
	Policy string `koanf:"policy"`

	// Iterations is the step count of the fixed policy.
	Iterations int `koanf:"iterations"`

	// Epsilon and MaxIterations drive the convergence policy.
	Epsilon       float64 `koanf:"epsilon"`
	MaxIterations int     `koanf:"max_iterations"`

	// Parallelism splits a single solve across goroutines.
	Parallelism int `koanf:"parallelism"`

	// ReplayWorkers bounds concurrent prefix solves inside one replay.
	ReplayWorkers int `koanf:"replay_workers"`

	// WorkerCount sets the number of replay job workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory replay job queue.
	QueueSize int `koanf:"queue_size"`

	// StoreSize caps how many replay jobs are retained.
	StoreSize int `koanf:"store_size"`

	// MaxMatches caps the length of a submitted match list.
	MaxMatches int `koanf:"max_matches"`

	// MaxReplayMatches caps the length of a replay job's match list.
	MaxReplayMatches int `koanf:"max_replay_matches"`

	// MaxRequestIterations caps iterations and max_iterations sent with a ranking request.
	MaxRequestIterations int `koanf:"max_request_iterations"`

	// MaxLeaderboardLimit caps GET /replays/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		Damping:              ranking.DefaultDamping,
		Policy:               ranking.ModeConvergence.String(),
		Iterations:           ranking.DefaultIterations,
		Epsilon:              ranking.DefaultEpsilon,
		MaxIterations:        ranking.DefaultMaxIterations,
		Parallelism:          1,
		ReplayWorkers:        runtime.NumCPU(),
		WorkerCount:          2,
		QueueSize:            1_000,
		StoreSize:            256,
		MaxMatches:           100_000,
		MaxReplayMatches:     1_000,
		MaxRequestIterations: ranking.DefaultMaxIterations,
		MaxLeaderboardLimit:  100,
	}
}

// StopPolicy builds the ranking policy selected by Policy.
func (c *Config) StopPolicy() (ranking.Policy, error) {
	mode, err := ranking.ParseMode(c.Policy)
	if err != nil {
		return ranking.Policy{}, err
	}
	if mode == ranking.ModeFixed {
		return ranking.FixedCount(c.Iterations), nil
	}
	return ranking.Convergence(c.Epsilon, c.MaxIterations), nil
}

// SolverOptions translates the ranking settings into solver options.
func (c *Config) SolverOptions() ([]ranking.Option, error) {
	policy, err := c.StopPolicy()
	if err != nil {
		return nil, err
	}
	return []ranking.Option{
		ranking.WithDamping(c.Damping),
		ranking.WithPolicy(policy),
		ranking.WithParallelism(c.Parallelism),
	}, nil
}

// Validate checks the settings Load cannot express through types alone.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxReplayMatches < 1 {
		return fmt.Errorf("%w: max_replay_matches must be positive, got %d", ErrInvalidConfig, c.MaxReplayMatches)
	}
	if c.MaxRequestIterations < 1 {
		return fmt.Errorf("%w: max_request_iterations must be positive, got %d", ErrInvalidConfig, c.MaxRequestIterations)
	}
	opts, err := c.SolverOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := ranking.NewSolver(opts...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
