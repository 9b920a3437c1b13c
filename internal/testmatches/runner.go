package testmatches

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/standings/internal/adapters/matchfile"
	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/standings"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/pkg/logger"
)

const replayPollInterval = 50 * time.Millisecond

// Run executes a complete load check against cfg.BaseURL:
// health, generation, concurrent ranking requests, one replay and its
// leaderboard, each verified against a local solve.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("testmatches")

	log.Info(ctx, "starting standings load check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("teams", cfg.Teams),
		logger.Int("matches", cfg.Matches),
		logger.Uint64("seed", cfg.Seed),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the tournament
	t, err := Generate(cfg.Teams, cfg.Matches, cfg.Seed)
	if err != nil {
		return stats, fmt.Errorf("match generation failed: %w", err)
	}
	stats.MatchesGenerated = len(t.Matches)
	if cfg.OutputFile != "" {
		if err := matchfile.WriteFile(cfg.OutputFile, t.Matches); err != nil {
			log.Warn(ctx, "failed to save matches to file", logger.Error(err))
		}
	}

	solver, err := ranking.NewSolver(
		ranking.WithDamping(cfg.Damping),
		ranking.WithPolicy(ranking.FixedCount(cfg.Iterations)),
	)
	if err != nil {
		return stats, err
	}

	// Step 3: Submit ranking requests concurrently
	if err := submitRankings(ctx, cfg, client, solver, t.Matches, stats); err != nil {
		return stats, fmt.Errorf("ranking requests failed: %w", err)
	}

	// Step 4: Replay the full season and verify its leaderboard
	if err := checkReplay(ctx, cfg, client, solver, t.Matches, stats); err != nil {
		return stats, fmt.Errorf("replay check failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "load check completed",
		logger.Int("requests", stats.RequestsSubmitted),
		logger.Int("successful", stats.RequestsSuccessful),
		logger.Int("failed", stats.RequestsFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("frames", stats.ReplayFrames),
		logger.Duration("duration", stats.Duration),
	)
	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d of %d ranking requests", ErrMismatch, stats.Mismatches, stats.RequestsSubmitted)
	}
	return stats, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.BaseURL == "":
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	case cfg.Matches < 1:
		return fmt.Errorf("%w: need at least one match", ErrInvalidConfig)
	case cfg.Requests < 1:
		return fmt.Errorf("%w: need at least one request", ErrInvalidConfig)
	case cfg.Workers < 1:
		return fmt.Errorf("%w: need at least one worker", ErrInvalidConfig)
	case cfg.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	}
	return nil
}

// prefixLen spreads request sizes evenly over (0, matches].
func prefixLen(i, requests, matches int) int {
	return max(1, matches*(i+1)/requests)
}

// submitRankings posts growing prefixes of matches with a worker pool and
// compares every answer with the local solve of the same prefix.
func submitRankings(ctx context.Context, cfg *Config, client *HTTPClient, solver *ranking.Solver, matches []model.Match, stats *Stats) error {
	log := logger.Get().Named("testmatches")

	var (
		submitted  int64
		successful int64
		failed     int64
		mismatched int64
	)

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				prefix := matches[:prefixLen(i, cfg.Requests, len(matches))]
				atomic.AddInt64(&submitted, 1)

				got, err := client.rank(ctx, rankRequest{
					Matches:    prefix,
					Damping:    solver.Damping(),
					Policy:     ranking.ModeFixed.String(),
					Iterations: solver.Policy().Iterations(),
				})
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Debug(ctx, "ranking request failed", logger.Int("request", i), logger.Error(err))
					continue
				}
				atomic.AddInt64(&successful, 1)

				want, err := localStandings(solver, prefix)
				if err == nil {
					err = verifyStandings(want, got.Entries, rankTolerance)
				}
				if err != nil {
					atomic.AddInt64(&mismatched, 1)
					log.Warn(ctx, "ranking mismatch", logger.Int("request", i), logger.Error(err))
				}
			}
		}()
	}

	for i := 0; i < cfg.Requests; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats.RequestsSubmitted = int(submitted)
	stats.RequestsSuccessful = int(successful)
	stats.RequestsFailed = int(failed)
	stats.Mismatches = int(mismatched)

	if successful == 0 {
		return fmt.Errorf("all %d ranking requests failed", failed)
	}
	return nil
}

// checkReplay submits the full season as a replay, waits for it to finish
// and verifies the final leaderboard.
func checkReplay(ctx context.Context, cfg *Config, client *HTTPClient, solver *ranking.Solver, matches []model.Match, stats *Stats) error {
	sub, err := client.submitReplay(ctx, matches)
	if err != nil {
		return err
	}
	stats.ReplayID = sub.ID

	job, err := waitReplay(ctx, client, sub.ID)
	if err != nil {
		return err
	}
	stats.ReplayFrames = job.Steps
	if job.Steps != len(matches) {
		return fmt.Errorf("%w: replay has %d frames, want %d", ErrMismatch, job.Steps, len(matches))
	}

	board, err := client.leaderboard(ctx, sub.ID, cfg.TopN)
	if err != nil {
		return err
	}
	stats.LeaderboardEntries = len(board.Entries)

	want, err := localStandings(solver, matches)
	if err != nil {
		return err
	}
	if board.Leader != standings.Leader(want) {
		logger.Get().Named("testmatches").Warn(ctx, "replay leader differs from local leader",
			logger.String("remote", board.Leader),
			logger.String("local", standings.Leader(want)))
	}
	return verifyLeaderboard(want, board.Entries, cfg.TopN, replayTolerance)
}

func waitReplay(ctx context.Context, client *HTTPClient, id string) (replayResponse, error) {
	ticker := time.NewTicker(replayPollInterval)
	defer ticker.Stop()

	for {
		job, err := client.replay(ctx, id)
		if err != nil {
			return replayResponse{}, err
		}
		switch job.Status {
		case "done":
			return job, nil
		case "failed":
			return job, fmt.Errorf("%w: %s", ErrReplayFailed, job.Error)
		}

		select {
		case <-ctx.Done():
			return replayResponse{}, errors.Join(fmt.Errorf("replay %s still %s", id, job.Status), ctx.Err())
		case <-ticker.C:
		}
	}
}

func localStandings(solver *ranking.Solver, matches []model.Match) ([]types.Entry, error) {
	g, err := defeat.Build(matches)
	if err != nil {
		return nil, err
	}
	return standings.FromScores(solver.Solve(g).Scores), nil
}
