// Package worker implements the Worker Engine (C8): a single-process,
// single-threaded cooperative polling loop over the Job Queue, grounded
// on cmd/server/main.go's signal-handling and graceful
// shutdown shape, adapted from serving HTTP to polling next()/claim().
package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/application/orchestrator"
	"github.com/smilemakc/contentforge/internal/application/queue"
	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/monitoring"
)

// PollInterval is the sleep between empty next() calls (spec §4.8).
const PollInterval = 5 * time.Second

// StaleReclaimThreshold is the boot-time window past which a processing
// job is presumed abandoned by a crashed worker (spec §4.8).
const StaleReclaimThreshold = 5 * time.Minute

// Worker runs the cooperative loop: next -> claim -> dispatch -> complete/fail.
type Worker struct {
	id           string
	accountID    string // empty means system-wide, unfiltered next()
	queue        *queue.Queue
	orchestrator *orchestrator.Orchestrator
	jobLogs      domain.JobLogRepository
	logger       zerolog.Logger
	metrics      *monitoring.MetricsCollector
	pollInterval time.Duration

	quit chan struct{}
	done chan struct{}
}

func New(q *queue.Queue, orch *orchestrator.Orchestrator, jobLogs domain.JobLogRepository, logger zerolog.Logger, metrics *monitoring.MetricsCollector) *Worker {
	return &Worker{
		id:           computeWorkerID(),
		queue:        q,
		orchestrator: orch,
		jobLogs:      jobLogs,
		logger:       logger,
		metrics:      metrics,
		pollInterval: PollInterval,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// computeWorkerID returns a stable identifier for this process instance:
// pid plus start time, per spec §4.8 step 1.
func computeWorkerID() string {
	return fmt.Sprintf("worker-%d-%d", os.Getpid(), time.Now().UnixNano())
}

// Run blocks until Stop is called or ctx is cancelled, reclaiming stale
// jobs once at boot and then looping next/claim/dispatch.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)

	w.logger.Info().Str("worker_id", w.id).Msg("worker starting")

	reclaimed, err := w.queue.ReclaimStale(ctx, StaleReclaimThreshold)
	if err != nil {
		w.logger.Error().Err(err).Msg("boot-time stale reclaim failed")
	} else if len(reclaimed) > 0 {
		w.logger.Warn().Int("count", len(reclaimed)).Msg("reclaimed stale processing jobs at boot")
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("worker_id", w.id).Msg("worker stopping: context cancelled")
			return ctx.Err()
		case <-w.quit:
			w.logger.Info().Str("worker_id", w.id).Msg("worker stopping: quit requested")
			return nil
		default:
		}

		job, err := w.queue.Next(ctx, w.accountID)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to fetch next job")
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}
		if job == nil {
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		claimed, err := w.queue.Claim(ctx, job.JobID, w.id)
		if err != nil {
			w.logger.Error().Err(err).Str("job_id", job.JobID.String()).Msg("claim failed")
			continue
		}
		if !claimed {
			continue // another worker won the race
		}

		w.runJob(ctx, job)
	}
}

// sleep waits for the poll interval, returning false if the worker should
// stop instead.
func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-w.quit:
		return false
	case <-time.After(w.pollInterval):
		return true
	}
}

// runJob dispatches one claimed job to its handler and reports the
// terminal transition. It never returns an error — every outcome is
// recorded on the job row itself, per spec §4.8 step 5.
func (w *Worker) runJob(ctx context.Context, job *domain.Job) {
	jobLogger := monitoring.JobScopedLogger(w.logger, w.jobLogs, job.JobID, job.AccountID)
	jobLogger.Info().Str("job_type", string(job.JobType)).Msg("job claimed, starting")

	report := func(pct int, detail string) {
		if err := w.queue.Progress(ctx, job.AccountID, job.JobID, pct, detail); err != nil {
			jobLogger.Warn().Err(err).Msg("failed to persist progress")
		}
	}

	start := time.Now()
	results, err := w.orchestrator.Dispatch(ctx, job, report)
	duration := time.Since(start)

	if err != nil {
		jobLogger.Error().Err(err).Msg("job failed")
		if failErr := w.queue.Fail(ctx, job.AccountID, job.JobID, err.Error()); failErr != nil {
			jobLogger.Error().Err(failErr).Msg("failed to persist job failure")
		}
		if w.metrics != nil {
			w.metrics.RecordJobExecution(string(job.JobType), duration, false)
		}
		return
	}

	jobLogger.Info().Msg("job completed")
	if completeErr := w.queue.Complete(ctx, job.AccountID, job.JobID, results); completeErr != nil {
		jobLogger.Error().Err(completeErr).Msg("failed to persist job completion")
	}
	if w.metrics != nil {
		w.metrics.RecordJobExecution(string(job.JobType), duration, true)
	}
}

// Stop requests the loop exit after the current job; the in-flight job is
// not interrupted (spec §4.8 step 6, cooperative only).
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

// ID returns this worker's stable identifier.
func (w *Worker) ID() string {
	return w.id
}
