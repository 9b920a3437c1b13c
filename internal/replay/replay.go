// Package replay computes the standings after every revealed match.
package replay

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/standings"
)

// Option applies a configuration option to a replay run.
type Option func(*runner)

// WithWorkers bounds how many steps are solved at the same time.
func WithWorkers(n int) Option {
	return func(r *runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithProgress registers a callback invoked after each step finishes.
// Steps finish out of order; the callback must be safe for concurrent use.
func WithProgress(fn func(step int)) Option {
	return func(r *runner) {
		r.progress = fn
	}
}

type runner struct {
	workers  int
	progress func(step int)
}

// Step returns the frame after the first k matches.
func Step(s *ranking.Solver, matches []model.Match, k int) (model.Frame, error) {
	if k < 1 || k > len(matches) {
		return model.Frame{}, fmt.Errorf("replay step %d out of range [1, %d]", k, len(matches))
	}
	g, err := defeat.Build(matches[:k])
	if err != nil {
		return model.Frame{}, err
	}
	return frame(s, g, matches[k-1], k), nil
}

// Run solves every prefix of matches and returns the frames in step order.
// Prefix graphs are snapshotted from one builder; each solve only sees its
// own snapshot, so the frames are identical to calling Step for every k.
func Run(ctx context.Context, s *ranking.Solver, matches []model.Match, opts ...Option) ([]model.Frame, error) {
	r := &runner{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(r)
	}

	// Validate the whole list first so errors carry the index within it.
	if _, err := defeat.Build(matches); err != nil {
		return nil, err
	}

	frames := make([]model.Frame, len(matches))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	b := defeat.NewBuilder()
	for i, m := range matches {
		if gctx.Err() != nil {
			break
		}
		if err := b.AddMatch(m); err != nil {
			_ = eg.Wait()
			return nil, err
		}
		g, err := b.Graph()
		if err != nil {
			_ = eg.Wait()
			return nil, err
		}
		step := i + 1
		revealed := m
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frames[step-1] = frame(s, g, revealed, step)
			if r.progress != nil {
				r.progress(step)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return frames, nil
}

func frame(s *ranking.Solver, g *defeat.Graph, revealed model.Match, step int) model.Frame {
	res := s.Solve(g)
	entries := standings.FromScores(res.Scores)
	return model.Frame{
		Step:        step,
		Match:       revealed.Normalized(),
		Competitors: g.Len(),
		Leader:      standings.Leader(entries),
		Iterations:  res.Iterations,
		Converged:   res.Converged,
		Standings:   entries,
	}
}
