package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/okian/standings/internal/adapters/matchfile"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/standings"
	"github.com/okian/standings/internal/replay"
	"github.com/okian/standings/pkg/logger"
)

type replayCmd struct {
	File    string      `arg:"" type:"existingfile" help:"Match file in reveal order."`
	Top     int         `help:"Competitors listed per step." default:"3"`
	Workers int         `help:"Concurrent prefix solves." default:"${replay_workers}"`
	JSON    bool        `help:"Print one JSON frame per line."`
	Solver  solverFlags `embed:""`
}

func (c *replayCmd) Run(e *env) error {
	matches, err := matchfile.ReadFile(c.File)
	if err != nil {
		return err
	}
	s, err := c.Solver.solver()
	if err != nil {
		return err
	}

	log := logger.Get()
	frames, err := replay.Run(e.ctx, s, matches,
		replay.WithWorkers(c.Workers),
		replay.WithProgress(func(step int) {
			log.Debug(e.ctx, "frame solved", logger.Int("step", step))
		}),
	)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(e.out)
		for _, f := range frames {
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
		return nil
	}
	for _, f := range frames {
		if err := printFrame(e.out, f, c.Top); err != nil {
			return err
		}
	}
	return nil
}

// printFrame writes one line: step, revealed match, leader and top scores.
func printFrame(w io.Writer, f model.Frame, top int) error {
	var b strings.Builder
	for i, entry := range standings.TopN(f.Standings, top) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %.4f", entry.Competitor, entry.Score)
	}
	_, err := fmt.Fprintf(w, "step %d  %s  leader=%s  [%s]\n", f.Step, f.Match, f.Leader, b.String())
	return err
}
