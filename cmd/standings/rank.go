package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/standings/internal/adapters/matchfile"
	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/standings"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/pkg/logger"
)

const teamColumnWidth = 20

type rankCmd struct {
	File        string      `arg:"" type:"existingfile" help:"Match file: CSV or whitespace-separated 'Winner Loser' lines."`
	Competitors []string    `help:"Additional competitors without matches." sep:","`
	JSON        bool        `help:"Print JSON instead of a table."`
	Solver      solverFlags `embed:""`
}

func (c *rankCmd) Run(e *env) error {
	matches, err := matchfile.ReadFile(c.File)
	if err != nil {
		return err
	}
	s, err := c.Solver.solver()
	if err != nil {
		return err
	}
	g, err := defeat.Build(matches, c.Competitors...)
	if err != nil {
		return err
	}

	start := time.Now()
	res := s.Solve(g)
	logger.Get().Debug(e.ctx, "ranked match file",
		logger.String("file", c.File),
		logger.Int("matches", len(matches)),
		logger.Int("competitors", g.Len()),
		logger.String("policy", res.Policy.String()),
		logger.Int("iterations", res.Iterations),
		logger.Float64("delta", res.Delta),
		logger.Duration("took", time.Since(start)),
	)

	entries := standings.FromScores(res.Scores)
	if c.JSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(types.Standings{
			Entries:     entries,
			Competitors: g.Len(),
			Matches:     len(matches),
			Policy:      res.Policy.String(),
			Iterations:  res.Iterations,
			Delta:       res.Delta,
			Converged:   res.Converged,
		})
	}
	return printStandings(e.out, entries)
}

// printStandings writes the classic standings table.
func printStandings(w io.Writer, entries []types.Entry) error {
	if _, err := fmt.Fprintf(w, "=== FINAL TOURNAMENT STANDINGS ===\n%-*s | Rating\n", teamColumnWidth, "Team"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%-*s | %.4f\n", teamColumnWidth, e.Competitor, e.Score); err != nil {
			return err
		}
	}
	return nil
}
