// Package queue implements the Job Queue (C7): a thin, account-scoped
// wrapper over domain.JobRepository exposing the operation set of
// spec §4.7. All mutation correctness (claim's atomicity, retry budget
// enforcement) lives on domain.Job / the storage layer; this package
// composes those primitives into the queue's public contract, grounded
// on the command-then-persist shape in
// internal/domain/execution.go, simplified to direct row mutation per
// DESIGN NOTES §9 ("no separate attempt table in this revision").
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

type Queue struct {
	store domain.JobRepository
}

func New(store domain.JobRepository) *Queue {
	return &Queue{store: store}
}

// Enqueue validates and inserts a new queued job.
func (q *Queue) Enqueue(ctx context.Context, accountID string, jobType domain.JobType, payload domain.JobPayload, priority int, createdBy string, maxRetries int) (uuid.UUID, error) {
	job, err := domain.NewJob(accountID, jobType, payload, priority, createdBy, maxRetries, time.Now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := q.store.InsertJob(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.JobID, nil
}

// Next returns the highest-priority, oldest queued job for accountID, or
// nil if none is queued. System-wide workers pass an empty accountID per
// spec §4.7 ("System-wide workers do not filter"), which MemoryStore/
// BunStore both treat as "no account predicate".
func (q *Queue) Next(ctx context.Context, accountID string) (*domain.Job, error) {
	return q.store.NextQueuedJob(ctx, accountID)
}

// Claim performs the atomic compare-and-set from queued to processing.
func (q *Queue) Claim(ctx context.Context, jobID uuid.UUID, workerID string) (bool, error) {
	return q.store.ClaimJob(ctx, jobID, workerID, time.Now())
}

// Progress updates a job's progress fields.
func (q *Queue) Progress(ctx context.Context, accountID string, jobID uuid.UUID, pct int, detail string) error {
	job, err := q.store.GetJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	job.Progress(pct, detail, time.Now())
	return q.store.UpdateJob(ctx, job)
}

// Complete transitions a job to completed. A no-op if already terminal.
func (q *Queue) Complete(ctx context.Context, accountID string, jobID uuid.UUID, results map[string]any) error {
	job, err := q.store.GetJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	job.Complete(results, time.Now())
	return q.store.UpdateJob(ctx, job)
}

// Fail transitions a job to failed. A no-op if already terminal.
func (q *Queue) Fail(ctx context.Context, accountID string, jobID uuid.UUID, errMsg string) error {
	job, err := q.store.GetJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	job.Fail(errMsg, time.Now())
	return q.store.UpdateJob(ctx, job)
}

// Cancel transitions a job to cancelled. A no-op if already terminal. For
// a processing job, the running handler is not preempted (spec §4.8).
func (q *Queue) Cancel(ctx context.Context, accountID string, jobID uuid.UUID) error {
	job, err := q.store.GetJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	job.Cancel(time.Now())
	return q.store.UpdateJob(ctx, job)
}

// Retry resets a failed job to queued, only within its retry budget.
func (q *Queue) Retry(ctx context.Context, accountID string, jobID uuid.UUID) error {
	job, err := q.store.GetJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	if err := job.Retry(time.Now()); err != nil {
		return err
	}
	return q.store.UpdateJob(ctx, job)
}

// Recent returns the most recently created jobs for accountID.
func (q *Queue) Recent(ctx context.Context, accountID string, limit int) ([]*domain.Job, error) {
	return q.store.ListRecentJobs(ctx, accountID, limit)
}

// ByStatus returns jobs in the given status, optionally scoped to an
// account (empty accountID means system-wide).
func (q *Queue) ByStatus(ctx context.Context, status domain.JobStatus, accountID string, limit int) ([]*domain.Job, error) {
	return q.store.ListJobsByStatus(ctx, status, accountID, limit)
}

// Stats returns counts by status and job_type over the trailing 24h
// window, per spec §4.7.
func (q *Queue) Stats(ctx context.Context, accountID string) (map[string]map[string]int, error) {
	return q.store.JobStats(ctx, accountID, time.Now().Add(-24*time.Hour))
}

// Cleanup hard-deletes terminal jobs older than daysOld.
func (q *Queue) Cleanup(ctx context.Context, accountID string, daysOld int) (int, error) {
	if daysOld < 0 {
		return 0, cferrors.NewValidationError("daysOld", "must be non-negative")
	}
	cutoff := time.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	return q.store.CleanupTerminalJobs(ctx, accountID, cutoff)
}

// ReclaimStale fails every job left processing past maxProcessing,
// attributing it to a crashed worker. These are never auto-retried
// (spec §4.7, §4.8, §8 scenario 5).
func (q *Queue) ReclaimStale(ctx context.Context, maxProcessing time.Duration) ([]uuid.UUID, error) {
	stale, err := q.store.ListStaleProcessingJobs(ctx, time.Now().Add(-maxProcessing))
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(stale))
	for _, job := range stale {
		job.MarkStaleFailed(time.Now())
		if err := q.store.UpdateJob(ctx, job); err != nil {
			return ids, err
		}
		ids = append(ids, job.JobID)
	}
	return ids, nil
}
