package ranking

import (
	"fmt"
	"math"
	"strings"
)

// Default stopping parameters.
const (
	DefaultIterations    = 100
	DefaultEpsilon       = 1e-8
	DefaultMaxIterations = 1000
)

// Mode selects how a Policy decides to stop iterating.
type Mode int

const (
	// ModeFixed runs an exact number of iterations.
	ModeFixed Mode = iota
	// ModeConvergence runs until the L1 change drops below epsilon, bounded by a cap.
	ModeConvergence
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeConvergence:
		return "convergence"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "fixed" or "convergence" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "fixed-count", "fixed_count":
		return ModeFixed, nil
	case "convergence", "converge":
		return ModeConvergence, nil
	}
	return 0, &ConfigError{Option: "policy", Value: s, Reason: "want fixed or convergence"}
}

// Policy is the stopping rule of a solve: FixedCount(k) or Convergence(epsilon, max).
type Policy struct {
	mode          Mode
	iterations    int
	epsilon       float64
	maxIterations int
}

// FixedCount stops after exactly k iterations.
func FixedCount(k int) Policy {
	return Policy{mode: ModeFixed, iterations: k}
}

// Convergence stops once the L1 distance between consecutive vectors is below
// epsilon, or after maxIterations, whichever comes first.
func Convergence(epsilon float64, maxIterations int) Policy {
	return Policy{mode: ModeConvergence, epsilon: epsilon, maxIterations: maxIterations}
}

// DefaultFixed is FixedCount(DefaultIterations).
func DefaultFixed() Policy { return FixedCount(DefaultIterations) }

// DefaultConvergence is Convergence(DefaultEpsilon, DefaultMaxIterations).
func DefaultConvergence() Policy { return Convergence(DefaultEpsilon, DefaultMaxIterations) }

// Mode returns the policy variant.
func (p Policy) Mode() Mode { return p.mode }

// Iterations is k for a fixed policy and 0 otherwise.
func (p Policy) Iterations() int { return p.iterations }

// Epsilon is the convergence threshold, 0 for a fixed policy.
func (p Policy) Epsilon() float64 { return p.epsilon }

// MaxIterations is the hard iteration cap. For a fixed policy it equals k.
func (p Policy) MaxIterations() int {
	if p.mode == ModeFixed {
		return p.iterations
	}
	return p.maxIterations
}

func (p Policy) String() string {
	if p.mode == ModeFixed {
		return fmt.Sprintf("fixed(%d)", p.iterations)
	}
	return fmt.Sprintf("convergence(%g, %d)", p.epsilon, p.maxIterations)
}

// Validate reports the first parameter that makes the policy unusable.
func (p Policy) Validate() error {
	switch p.mode {
	case ModeFixed:
		if p.iterations < 1 {
			return &ConfigError{Option: "iterations", Value: p.iterations, Reason: "must be at least 1"}
		}
	case ModeConvergence:
		if math.IsNaN(p.epsilon) || p.epsilon <= 0 {
			return &ConfigError{Option: "epsilon", Value: p.epsilon, Reason: "must be greater than 0"}
		}
		if p.maxIterations < 1 {
			return &ConfigError{Option: "max_iterations", Value: p.maxIterations, Reason: "must be at least 1"}
		}
	default:
		return &ConfigError{Option: "policy", Value: p.mode, Reason: "unknown mode"}
	}
	return nil
}

// done reports whether iteration should stop after the given (1-based) step.
func (p Policy) done(step int, delta float64) bool {
	if p.mode == ModeFixed {
		return step >= p.iterations
	}
	return delta < p.epsilon || step >= p.maxIterations
}
