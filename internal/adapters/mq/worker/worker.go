// Package worker drains the replay queue and computes replay frames.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/standings/internal/adapters/repository"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/metrics"
)

const defaultWorkerCount = 2

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan model.ReplayJob
	Len() int
}

// Replayer computes the frames of a match list.
type Replayer interface {
	Replay(ctx context.Context, matches []model.Match) ([]model.Frame, error)
}

// Recorder stores job progress and results.
type Recorder interface {
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, frames []model.Frame) error
	Fail(ctx context.Context, id string, cause error) error
}

// Worker runs replay jobs off the queue.
type Worker struct {
	name     string
	queue    Queue
	replayer Replayer
	recorder Recorder
	active   *atomic.Int64
	logger   logger.Logger
}

// Run consumes jobs until the queue is closed and drained or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.UpdateQueueSize(w.queue.Len())
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "replay job failed",
					logger.String("worker", w.name),
					logger.String("job_id", job.ID),
					logger.Error(err),
				)
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, job model.ReplayJob) error {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(w.active.Add(-1))) }()

	if err := w.recorder.Start(ctx, job.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Dropped from the store while queued; nobody can read its result.
			w.logger.Warn(ctx, "skipping replay job no longer stored",
				logger.String("worker", w.name),
				logger.String("job_id", job.ID),
			)
			return nil
		}
		metrics.RecordErrorByComponent("worker", "start")
		return fmt.Errorf("start job %s: %w", job.ID, err)
	}

	start := time.Now()
	frames, err := w.replayer.Replay(ctx, job.Matches)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordReplayJob("failed")
		metrics.RecordErrorByComponent("worker", "replay")
		if ferr := w.recorder.Fail(ctx, job.ID, err); ferr != nil {
			w.logger.Warn(ctx, "could not record failure", logger.String("job_id", job.ID), logger.Error(ferr))
		}
		return fmt.Errorf("replay job %s: %w", job.ID, err)
	}

	if err := w.recorder.Complete(ctx, job.ID, frames); err != nil {
		metrics.RecordErrorByComponent("worker", "complete")
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	metrics.RecordReplayJob("done")
	metrics.RecordReplayFrames(len(frames))
	metrics.RecordReplayLatency(float64(elapsed.Microseconds()) / 1000)
	w.logger.Debug(ctx, "replay job done",
		logger.String("job_id", job.ID),
		logger.Int("frames", len(frames)),
		logger.Duration("took", elapsed),
	)
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	active  atomic.Int64
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a worker pool.
func NewPool(queue Queue, replayer Replayer, recorder Recorder, opts ...Option) *Pool {
	cfg := poolConfig{count: defaultWorkerCount, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		workers: make([]*Worker, cfg.count),
		queue:   queue,
		logger:  cfg.logger,
	}
	for i := range p.workers {
		p.workers[i] = &Worker{
			name:     "worker-" + strconv.Itoa(i),
			queue:    queue,
			replayer: replayer,
			recorder: recorder,
			active:   &p.active,
			logger:   cfg.logger.Named("worker-" + strconv.Itoa(i)),
		}
	}

	metrics.UpdateWorkerCount(cfg.count)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start launches every worker. They stop when ctx is done or the queue is
// closed and drained.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Shutdown closes the queue when it can be closed and waits for the workers
// to drain it, or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("workers", len(p.workers)))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
