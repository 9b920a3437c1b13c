package main

import (
	"github.com/okian/standings/internal/adapters/matchfile"
	"github.com/okian/standings/internal/testmatches"
	"github.com/okian/standings/pkg/logger"
)

type generateCmd struct {
	Teams   int    `help:"Number of teams." default:"20"`
	Matches int    `help:"Number of matches." default:"200"`
	Seed    uint64 `help:"Generator seed." default:"1"`
	Out     string `help:"Output file; standard output when empty." short:"o" type:"path"`
}

func (c *generateCmd) Run(e *env) error {
	t, err := testmatches.Generate(c.Teams, c.Matches, c.Seed)
	if err != nil {
		return err
	}
	logger.Get().Debug(e.ctx, "generated tournament",
		logger.Int("teams", len(t.Teams)),
		logger.Int("matches", len(t.Matches)),
		logger.Uint64("seed", c.Seed),
	)
	if c.Out == "" {
		return matchfile.Write(e.out, t.Matches)
	}
	return matchfile.WriteFile(c.Out, t.Matches)
}
