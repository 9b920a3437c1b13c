// Package repository keeps replay jobs and their computed frames in memory.
package repository

import (
	"context"
	"time"

	"github.com/okian/standings/internal/domain/model"
)

// Status is the lifecycle state of a replay job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Finished reports whether the job will not change again.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is a replay request together with its result.
type Job struct {
	ID        string        `json:"id"`
	Digest    uint64        `json:"digest"`
	Status    Status        `json:"status"`
	Matches   []model.Match `json:"-"`
	Frames    []model.Frame `json:"-"`
	Err       string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Steps is the number of frames a finished job holds.
func (j Job) Steps() int { return len(j.Frames) }

// Store provides access to replay jobs.
type Store interface {
	// Create registers a queued job for matches. When an unfailed job for the
	// same match list exists it is returned instead and created is false.
	// ErrFull is returned when no finished job can make room.
	Create(ctx context.Context, matches []model.Match) (job Job, created bool, err error)

	// Get returns the job with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Job, error)

	// FindByDigest returns the job for a match-list digest or ErrNotFound.
	FindByDigest(ctx context.Context, digest uint64) (Job, error)

	// Start marks a queued job as running.
	Start(ctx context.Context, id string) error

	// Complete stores the frames of a job and marks it done.
	Complete(ctx context.Context, id string, frames []model.Frame) error

	// Fail records why a job could not be computed.
	Fail(ctx context.Context, id string, cause error) error

	// Delete forgets a job.
	Delete(ctx context.Context, id string) error

	// Count returns the number of retained jobs.
	Count(ctx context.Context) int
}
