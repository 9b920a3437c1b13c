package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/standings/internal/testmatches"
)

type checkCmd struct {
	URL        string        `help:"Base URL of the service." default:"http://localhost:9080"`
	Teams      int           `help:"Number of generated teams." default:"50"`
	Matches    int           `help:"Number of generated matches." default:"1000"`
	Seed       uint64        `help:"Generator seed." default:"1"`
	Requests   int           `help:"Number of ranking requests." default:"100"`
	Workers    int           `help:"Concurrent request workers." default:"${check_workers}"`
	Timeout    time.Duration `help:"HTTP request timeout." default:"30s"`
	Deadline   time.Duration `help:"Overall time limit." default:"10m"`
	Top        int           `help:"Leaderboard entries to fetch and verify." default:"10"`
	Damping    float64       `help:"Damping sent with every ranking request; match the server's for the replay check." default:"${damping}"`
	Iterations int           `help:"Fixed iteration count sent with every ranking request." default:"${iterations}"`
	Output     string        `help:"Save the generated matches to this file." type:"path"`
}

func (c *checkCmd) Run(e *env) error {
	ctx, cancel := context.WithTimeout(e.ctx, c.Deadline)
	defer cancel()

	stats, err := testmatches.Run(ctx, &testmatches.Config{
		BaseURL:    c.URL,
		Teams:      c.Teams,
		Matches:    c.Matches,
		Seed:       c.Seed,
		Requests:   c.Requests,
		Workers:    c.Workers,
		Timeout:    c.Timeout,
		TopN:       c.Top,
		Damping:    c.Damping,
		Iterations: c.Iterations,
		OutputFile: c.Output,
	})
	if stats != nil {
		if _, perr := fmt.Fprintf(e.out,
			"matches %d | requests %d ok %d failed %d mismatched %d | replay %s frames %d leaderboard %d | %s\n",
			stats.MatchesGenerated, stats.RequestsSubmitted, stats.RequestsSuccessful, stats.RequestsFailed,
			stats.Mismatches, stats.ReplayID, stats.ReplayFrames, stats.LeaderboardEntries, stats.Duration,
		); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}
