// Package ranking turns a defeat graph into a normalised score distribution
// by damped power iteration.
//
// Every competitor receives a uniform base share each step. A competitor who
// lost passes the damped remainder of its score, split equally, to each
// distinct competitor who beat it. Competitors who never lost hold mass that
// nobody consumes; that dangling mass is spread uniformly over everyone.
package ranking

import (
	"math"
	"sync"

	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
)

// minChunk is the smallest competitor range worth handing to its own goroutine.
const minChunk = 512

// Solver computes scores for defeat graphs. A Solver is immutable and safe
// for concurrent use.
type Solver struct {
	damping     float64
	policy      Policy
	parallelism int
}

// Result is the outcome of a single solve.
type Result struct {
	// Scores maps every competitor to a non-negative score; the scores sum to 1.
	Scores map[string]float64
	// Policy is the stopping rule that produced the result.
	Policy Policy
	// Iterations is the number of update steps performed.
	Iterations int
	// Delta is the L1 distance between the last two vectors.
	Delta float64
	// Converged is true when a convergence policy stopped below epsilon.
	// It is always false for fixed-count policies.
	Converged bool
}

// NewSolver validates the options and returns a Solver.
func NewSolver(opts ...Option) (*Solver, error) {
	s := &Solver{
		damping:     DefaultDamping,
		policy:      DefaultFixed(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if math.IsNaN(s.damping) || s.damping <= 0 || s.damping >= 1 {
		return nil, &ConfigError{Option: "damping", Value: s.damping, Reason: "must be in (0, 1)"}
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Damping returns the configured damping factor.
func (s *Solver) Damping() float64 { return s.damping }

// Policy returns the configured stopping policy.
func (s *Solver) Policy() Policy { return s.policy }

// Solve runs the power iteration over g.
func (s *Solver) Solve(g *defeat.Graph) Result {
	ids := g.Competitors()
	n := len(ids)
	res := Result{
		Scores: make(map[string]float64, n),
		Policy: s.policy,
	}
	if n == 0 {
		res.Converged = s.policy.mode == ModeConvergence
		return res
	}

	p := newProblem(g, ids, s.damping)
	cur := make([]float64, n)
	next := make([]float64, n)
	uniform := 1 / float64(n)
	for i := range cur {
		cur[i] = uniform
	}

	workers := s.workers(n)
	for step := 1; ; step++ {
		delta := p.step(cur, next, workers)
		cur, next = next, cur
		res.Iterations = step
		res.Delta = delta
		if s.policy.done(step, delta) {
			break
		}
	}
	res.Converged = s.policy.mode == ModeConvergence && res.Delta < s.policy.epsilon

	var sum float64
	for _, v := range cur {
		sum += v
	}
	for i, id := range ids {
		res.Scores[id] = cur[i] / sum
	}
	return res
}

func (s *Solver) workers(n int) int {
	w := s.parallelism
	if limit := n / minChunk; w > limit {
		w = limit
	}
	if w < 1 {
		w = 1
	}
	return w
}

// problem is the index form of a defeat graph.
type problem struct {
	n        int
	damping  float64
	outDeg   []float64
	dangling []int
	// beaten[offsets[c]:offsets[c+1]] are the losers competitor c beat.
	offsets []int
	beaten  []int
	share   []float64
}

func newProblem(g *defeat.Graph, ids []string, damping float64) *problem {
	n := len(ids)
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	p := &problem{
		n:       n,
		damping: damping,
		outDeg:  make([]float64, n),
		offsets: make([]int, n+1),
		beaten:  make([]int, 0, g.Edges()),
		share:   make([]float64, n),
	}
	for i, id := range ids {
		if d := g.OutDegree(id); d > 0 {
			p.outDeg[i] = float64(d)
		} else {
			p.dangling = append(p.dangling, i)
		}
		for _, loser := range g.Losers(id) {
			p.beaten = append(p.beaten, index[loser])
		}
		p.offsets[i+1] = len(p.beaten)
	}
	return p
}

// step writes the successor of cur into next and returns their L1 distance.
// cur is only read.
func (p *problem) step(cur, next []float64, workers int) float64 {
	var dangling float64
	for _, i := range p.dangling {
		dangling += cur[i]
	}
	for i, d := range p.outDeg {
		if d > 0 {
			p.share[i] = cur[i] / d
		}
	}
	nf := float64(p.n)
	base := (1-p.damping)/nf + p.damping*dangling/nf

	if workers < 2 {
		return p.pull(cur, next, base, 0, p.n)
	}

	chunk := (p.n + workers - 1) / workers
	partial := make([]float64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, p.n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			partial[w] = p.pull(cur, next, base, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	var delta float64
	for _, d := range partial {
		delta += d
	}
	return delta
}

// pull computes next[lo:hi] from the shares of the losers each competitor beat.
func (p *problem) pull(cur, next []float64, base float64, lo, hi int) float64 {
	var delta float64
	for c := lo; c < hi; c++ {
		var in float64
		for _, l := range p.beaten[p.offsets[c]:p.offsets[c+1]] {
			in += p.share[l]
		}
		v := base + p.damping*in
		next[c] = v
		delta += math.Abs(v - cur[c])
	}
	return delta
}

// Rank builds the defeat graph for matches and solves it with a solver
// configured by opts.
func Rank(matches []model.Match, opts ...Option) (Result, error) {
	s, err := NewSolver(opts...)
	if err != nil {
		return Result{}, err
	}
	g, err := defeat.Build(matches)
	if err != nil {
		return Result{}, err
	}
	return s.Solve(g), nil
}
