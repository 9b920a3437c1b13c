package worker

import (
	"github.com/okian/standings/pkg/logger"
)

type poolConfig struct {
	count  int
	logger logger.Logger
}

// Option applies a configuration option to the Pool.
type Option func(*poolConfig)

// WithCount sets the number of workers.
func WithCount(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.count = n
		}
	}
}

// WithLogger sets the logger workers report through.
func WithLogger(l logger.Logger) Option {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
