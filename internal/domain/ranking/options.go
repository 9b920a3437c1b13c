package ranking

// DefaultDamping is the share of score propagated through the defeat graph.
const DefaultDamping = 0.85

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithDamping sets the damping factor. It must lie strictly between 0 and 1.
func WithDamping(d float64) Option {
	return func(s *Solver) {
		s.damping = d
	}
}

// WithPolicy sets the stopping policy.
func WithPolicy(p Policy) Option {
	return func(s *Solver) {
		s.policy = p
	}
}

// WithParallelism splits each iteration across up to n goroutines.
// Values below 2 keep the solve on the calling goroutine.
func WithParallelism(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.parallelism = n
		}
	}
}
