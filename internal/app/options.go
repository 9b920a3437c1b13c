package service

import (
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDamping sets the default damping factor of ranking requests.
func WithDamping(d float64) Option {
	return func(s *Service) {
		s.damping = d
	}
}

// WithPolicy sets the default stopping policy of ranking requests.
func WithPolicy(p ranking.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithParallelism splits each solve across up to n goroutines.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithReplayWorkers bounds the concurrent prefix solves of one replay.
func WithReplayWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.replayWorkers = n
		}
	}
}

// WithWorkerCount sets the number of replay job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending replay jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStoreSize sets how many replay jobs are retained.
func WithStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithMaxMatches caps the number of match records per request.
func WithMaxMatches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMatches = n
		}
	}
}

// WithMaxReplayMatches caps the number of match records per replay job.
// A replay solves every prefix, so its cost grows with the square of this.
func WithMaxReplayMatches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxReplayMatches = n
		}
	}
}

// WithMaxRequestIterations caps iterations and max_iterations overrides
// carried by ranking requests.
func WithMaxRequestIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRequestIterations = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
