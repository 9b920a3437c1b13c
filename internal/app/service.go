// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/standings/internal/adapters/mq/queue"
	"github.com/okian/standings/internal/adapters/mq/worker"
	"github.com/okian/standings/internal/adapters/repository"
	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/standings"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/internal/replay"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

// RankRequest is a one-off ranking of a match list. Nil or empty overrides
// fall back to the service defaults.
type RankRequest struct {
	Matches       []model.Match
	Competitors   []string
	Damping       *float64
	Policy        string
	Iterations    *int
	Epsilon       *float64
	MaxIterations *int
}

// replayer runs replays with the service solver.
type replayer struct {
	solver  *ranking.Solver
	workers int
}

func (r *replayer) Replay(ctx context.Context, matches []model.Match) ([]model.Frame, error) {
	return replay.Run(ctx, r.solver, matches, replay.WithWorkers(r.workers))
}

// Service ranks match lists and manages asynchronous replay jobs.
type Service struct {
	mu sync.RWMutex

	// Solver defaults
	damping     float64
	policy      ranking.Policy
	parallelism int
	solver      *ranking.Solver

	// Replay pipeline
	store         repository.Store
	queue         queue.Queue
	pool          *worker.Pool
	replayWorkers int
	workerCount   int
	queueSize     int
	storeSize     int
	maxMatches    int

	// Request limits
	maxReplayMatches     int
	maxRequestIterations int

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Start must be called before replays are accepted.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		damping:       ranking.DefaultDamping,
		policy:        ranking.DefaultConvergence(),
		parallelism:   1,
		replayWorkers: runtime.NumCPU(),
		workerCount:   2,
		queueSize:     1_000,
		storeSize:     256,
		maxMatches:    100_000,
		logger:        logger.Nop(),

		maxReplayMatches:     1_000,
		maxRequestIterations: ranking.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}

	solver, err := ranking.NewSolver(s.solverOptions(s.damping, s.policy)...)
	if err != nil {
		return nil, err
	}
	s.solver = solver
	return s, nil
}

func (s *Service) solverOptions(damping float64, policy ranking.Policy) []ranking.Option {
	return []ranking.Option{
		ranking.WithDamping(damping),
		ranking.WithPolicy(policy),
		ranking.WithParallelism(s.parallelism),
	}
}

// Start initializes the replay queue, job store and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting standings service...")

	s.store = repository.NewMemoryStore(repository.WithCapacity(s.storeSize))
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = worker.NewPool(q,
		&replayer{solver: s.solver, workers: s.replayWorkers},
		s.store,
		worker.WithCount(s.workerCount),
		worker.WithLogger(s.logger.Named("replay")),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "standings service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("store_size", s.storeSize),
		logger.String("policy", s.policy.String()),
		logger.Float64("damping", s.damping),
	)
	return nil
}

// Stop drains pending replay jobs and shuts the pipeline down. Jobs still
// running after the shutdown timeout are cancelled.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping standings service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "replay workers did not drain", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "standings service stopped")
}

// Rank solves a match list synchronously.
func (s *Service) Rank(ctx context.Context, req RankRequest) (types.Standings, error) {
	if len(req.Matches) > s.maxMatches {
		return types.Standings{}, fmt.Errorf("%w: %d > %d", ErrTooManyMatches, len(req.Matches), s.maxMatches)
	}
	metrics.RecordRankRequest(len(req.Matches))

	solver, err := s.solverFor(req)
	if err != nil {
		return types.Standings{}, err
	}
	g, err := defeat.Build(req.Matches, req.Competitors...)
	if err != nil {
		return types.Standings{}, err
	}

	start := time.Now()
	res := solver.Solve(g)
	elapsed := time.Since(start)

	policy := res.Policy.Mode().String()
	metrics.RecordSolve(policy, float64(elapsed.Microseconds())/1000, res.Iterations, res.Delta, res.Converged)
	metrics.UpdateCompetitors(g.Len())
	s.logger.Debug(ctx, "ranked match list",
		logger.Int("matches", len(req.Matches)),
		logger.Int("competitors", g.Len()),
		logger.String("policy", res.Policy.String()),
		logger.Int("iterations", res.Iterations),
		logger.Bool("converged", res.Converged),
		logger.Duration("took", elapsed),
	)

	return types.Standings{
		Entries:     standings.FromScores(res.Scores),
		Competitors: g.Len(),
		Matches:     len(req.Matches),
		Policy:      res.Policy.String(),
		Iterations:  res.Iterations,
		Delta:       res.Delta,
		Converged:   res.Converged,
	}, nil
}

// solverFor returns the default solver, or a new one when req overrides
// any solver setting.
func (s *Service) solverFor(req RankRequest) (*ranking.Solver, error) {
	if req.Damping == nil && req.Policy == "" && req.Iterations == nil && req.Epsilon == nil && req.MaxIterations == nil {
		return s.solver, nil
	}

	damping := s.damping
	if req.Damping != nil {
		damping = *req.Damping
	}

	mode := s.policy.Mode()
	if req.Policy != "" {
		m, err := ranking.ParseMode(req.Policy)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	var policy ranking.Policy
	switch mode {
	case ranking.ModeFixed:
		k := ranking.DefaultIterations
		if s.policy.Mode() == ranking.ModeFixed {
			k = s.policy.Iterations()
		}
		if req.Iterations != nil {
			if err := s.checkIterations("iterations", *req.Iterations); err != nil {
				return nil, err
			}
			k = *req.Iterations
		}
		policy = ranking.FixedCount(k)
	default:
		eps, limit := ranking.DefaultEpsilon, ranking.DefaultMaxIterations
		if s.policy.Mode() == ranking.ModeConvergence {
			eps, limit = s.policy.Epsilon(), s.policy.MaxIterations()
		}
		if req.Epsilon != nil {
			eps = *req.Epsilon
		}
		if req.MaxIterations != nil {
			if err := s.checkIterations("max_iterations", *req.MaxIterations); err != nil {
				return nil, err
			}
			limit = *req.MaxIterations
		}
		policy = ranking.Convergence(eps, limit)
	}

	return ranking.NewSolver(s.solverOptions(damping, policy)...)
}

// checkIterations bounds the step counts a request may ask for.
func (s *Service) checkIterations(option string, n int) error {
	if n > s.maxRequestIterations {
		return &ranking.ConfigError{
			Option: option,
			Value:  n,
			Reason: fmt.Sprintf("must not exceed %d", s.maxRequestIterations),
		}
	}
	return nil
}

// SubmitReplay validates matches and queues a replay job. An identical
// match list already known to the store is answered with the existing job
// and duplicate set to true.
func (s *Service) SubmitReplay(ctx context.Context, matches []model.Match) (job repository.Job, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return repository.Job{}, false, ErrNotStarted
	}
	if len(matches) > s.maxReplayMatches {
		return repository.Job{}, false, fmt.Errorf("%w: replay of %d > %d", ErrTooManyMatches, len(matches), s.maxReplayMatches)
	}
	if _, err := defeat.Build(matches); err != nil {
		return repository.Job{}, false, err
	}

	job, created, err := s.store.Create(ctx, matches)
	if errors.Is(err, repository.ErrFull) {
		metrics.RecordQueueRejected()
		return repository.Job{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	if err != nil {
		return repository.Job{}, false, err
	}
	if !created {
		s.logger.Debug(ctx, "replay answered from store", logger.String("job_id", job.ID))
		return job, true, nil
	}

	err = s.queue.Enqueue(ctx, model.ReplayJob{ID: job.ID, Digest: job.Digest, Matches: job.Matches})
	if err != nil {
		_ = s.store.Delete(ctx, job.ID)
		switch {
		case errors.Is(err, queue.ErrFull):
			return repository.Job{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, queue.ErrClosed):
			return repository.Job{}, false, fmt.Errorf("%w: %w", ErrShuttingDown, err)
		default:
			return repository.Job{}, false, err
		}
	}

	s.logger.Debug(ctx, "replay queued",
		logger.String("job_id", job.ID),
		logger.Int("matches", len(matches)),
	)
	return job, false, nil
}

// Replay returns a replay job by ID.
func (s *Service) Replay(ctx context.Context, id string) (repository.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return repository.Job{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Frame returns frame step (1-based) of a finished replay; step 0 selects
// the final frame.
func (s *Service) Frame(ctx context.Context, id string, step int) (model.Frame, error) {
	job, err := s.Replay(ctx, id)
	if err != nil {
		return model.Frame{}, err
	}
	if job.Status != repository.StatusDone {
		return model.Frame{}, fmt.Errorf("%w: job %s is %s", ErrNotReady, id, job.Status)
	}
	if step == 0 {
		step = job.Steps()
	}
	if step < 1 || step > job.Steps() {
		return model.Frame{}, fmt.Errorf("%w: %d not in [1, %d]", ErrStepOutOfRange, step, job.Steps())
	}
	return job.Frames[step-1], nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"policy":      s.policy.String(),
		"damping":     s.damping,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"storeSize":   s.storeSize,

		"maxReplayMatches":     s.maxReplayMatches,
		"maxRequestIterations": s.maxRequestIterations,
	}

	if s.started {
		queueLen := s.queue.Len()
		jobs := s.store.Count(context.Background())

		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		stats["jobs"] = jobs

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoreSize(jobs)
		metrics.UpdateWorkerActiveCount(s.pool.Active())
	}
	return stats
}
