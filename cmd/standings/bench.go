package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/standings/internal/adapters/matchfile"
	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/ranking"
)

type benchCmd struct {
	File          string  `arg:"" type:"existingfile" help:"Match file to rank."`
	Damping       float64 `help:"Share of score passed along defeat edges." default:"${damping}"`
	Iterations    int     `help:"Step count of the fixed policy." default:"${iterations}"`
	Epsilon       float64 `help:"L1 threshold of the convergence policy." default:"${epsilon}"`
	MaxIterations int     `help:"Step cap of the convergence policy." default:"${max_iterations}"`
	Parallelism   int     `help:"Goroutines per solve." default:"${parallelism}"`
}

// benchRun is the timing of one policy.
type benchRun struct {
	result ranking.Result
	took   time.Duration
}

func (c *benchCmd) Run(e *env) error {
	matches, err := matchfile.ReadFile(c.File)
	if err != nil {
		return err
	}
	g, err := defeat.Build(matches)
	if err != nil {
		return err
	}

	fixed, err := c.solve(g, ranking.FixedCount(c.Iterations))
	if err != nil {
		return err
	}
	conv, err := c.solve(g, ranking.Convergence(c.Epsilon, c.MaxIterations))
	if err != nil {
		return err
	}

	rule := strings.Repeat("-", 30)
	_, err = fmt.Fprintf(e.out,
		"Teams loaded: %d\n%s\n"+
			"%-24s %.5fs (%d iterations)\n"+
			"%-24s %.5fs (%d iterations, converged=%t)\n"+
			"%s\nMax score difference: %.3g\n",
		g.Len(), rule,
		fixed.result.Policy.String(), fixed.took.Seconds(), fixed.result.Iterations,
		conv.result.Policy.String(), conv.took.Seconds(), conv.result.Iterations, conv.result.Converged,
		rule, maxDiff(fixed.result.Scores, conv.result.Scores),
	)
	return err
}

func (c *benchCmd) solve(g *defeat.Graph, p ranking.Policy) (benchRun, error) {
	s, err := ranking.NewSolver(
		ranking.WithDamping(c.Damping),
		ranking.WithPolicy(p),
		ranking.WithParallelism(c.Parallelism),
	)
	if err != nil {
		return benchRun{}, err
	}
	start := time.Now()
	res := s.Solve(g)
	return benchRun{result: res, took: time.Since(start)}, nil
}

// maxDiff is the largest absolute score difference over the competitors of a.
func maxDiff(a, b map[string]float64) float64 {
	var d float64
	for id, v := range a {
		d = math.Max(d, math.Abs(v-b[id]))
	}
	return d
}
