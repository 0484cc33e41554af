package domain

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// JobType is a tagged variant over the composite job handlers of §4.9.
// Unknown values are rejected by JobPayload.Validate when the job is
// created; JobPayload.Extra is the forward-compatibility escape hatch for
// payload data, not for job types.
type JobType string

const (
	JobTypeNewsAggregation   JobType = "news_aggregation"
	JobTypeAIAnalysis        JobType = "ai_analysis"
	JobTypeURLAnalysis       JobType = "url_analysis"
	JobTypeContentGeneration JobType = "content_generation"
	JobTypeFullCycle         JobType = "full_cycle"
)

// JobStatus is the bit-exact status vocabulary of spec §6.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status is one of the three terminal
// states that require CompletedAt to be set (spec §3 Job invariants).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobPayload is the tagged-variant union of the five job payload shapes in
// spec §6, plus an Extra escape hatch for forward compatibility (DESIGN
// NOTES §9). Only the fields relevant to Type are expected to be set; the
// others are simply omitted from the marshalled JSON.
type JobPayload struct {
	// news_aggregation
	SourceID     *int64  `json:"sourceId,omitempty"`
	SourceName   *string `json:"sourceName,omitempty"`
	SingleSource *bool   `json:"singleSource,omitempty"`

	// ai_analysis / content_generation
	Limit *int `json:"limit,omitempty"`

	// url_analysis
	ArticleID *int64  `json:"articleId,omitempty"`
	URL       *string `json:"url,omitempty"`

	// content_generation
	SpecificStoryID *int64 `json:"specificStoryId,omitempty"`

	// Extra carries additional producer data under the "extra" JSON key.
	// Top-level keys outside the schema above are not collected into it;
	// decoding drops them.
	Extra map[string]any `json:"extra,omitempty"`
}

// Validate rejects a payload that is structurally wrong for its job type
// at the boundary (spec §7 Validation row): no side effects have happened
// yet when this runs.
func (p JobPayload) Validate(t JobType) error {
	switch t {
	case JobTypeURLAnalysis:
		if p.ArticleID == nil {
			return cferrors.NewValidationError("articleId", "required for url_analysis")
		}
		if p.URL == nil || *p.URL == "" {
			return cferrors.NewValidationError("url", "required for url_analysis")
		}
		if u, err := url.Parse(*p.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return cferrors.NewValidationError("url", "must be an absolute http(s) URL")
		}
		if p.SourceID == nil {
			return cferrors.NewValidationError("sourceId", "required for url_analysis")
		}
	case JobTypeNewsAggregation, JobTypeAIAnalysis, JobTypeContentGeneration, JobTypeFullCycle:
		// all fields optional, defaults applied by the orchestrator
	default:
		return cferrors.NewValidationError("type", "unknown job type: "+string(t))
	}
	return nil
}

// AIAnalysisLimit returns payload.Limit or the default of 20.
func (p JobPayload) AIAnalysisLimit() int {
	if p.Limit != nil && *p.Limit > 0 {
		return *p.Limit
	}
	return 20
}

// ContentGenerationLimit returns payload.Limit or the default of 5.
func (p JobPayload) ContentGenerationLimit() int {
	if p.Limit != nil && *p.Limit > 0 {
		return *p.Limit
	}
	return 5
}

// Job is the durable unit of work described in spec §3. Rather than an
// event-sourced aggregate, a Job is a single mutable row: §9 Design Notes
// explicitly keeps attempt history on the row itself rather than
// introducing an event log for this revision.
type Job struct {
	JobID     uuid.UUID
	AccountID string
	JobType   JobType
	Status    JobStatus
	Priority  int
	Payload   JobPayload
	Results   map[string]any
	Error     string

	ProgressPct    int
	ProgressDetail string

	RetryCount int
	MaxRetries int

	WorkerID string

	CreatedBy string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// NewJob constructs a queued job, validating the payload against its type
// (spec §7 Validation row). CreatedAt/UpdatedAt are stamped by the caller
// (the queue's Enqueue, which owns "now").
func NewJob(accountID string, jobType JobType, payload JobPayload, priority int, createdBy string, maxRetries int, now time.Time) (*Job, error) {
	if accountID == "" {
		return nil, cferrors.NewValidationError("accountId", "required")
	}
	if err := payload.Validate(jobType); err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Job{
		JobID:      uuid.New(),
		AccountID:  accountID,
		JobType:    jobType,
		Status:     JobStatusQueued,
		Priority:   priority,
		Payload:    payload,
		MaxRetries: maxRetries,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanClaim reports whether the job is eligible to transition queued ->
// processing. The actual compare-and-set is the storage layer's job
// (spec §4.7); this is the in-memory mirror of that guard, used by
// Job.Claim. The stores' ClaimJob methods apply the same status check
// themselves and do not call it.
func (j *Job) CanClaim() bool {
	return j.Status == JobStatusQueued
}

// Claim transitions queued -> processing. Returns false without mutating
// the job if it wasn't claimable (spec §4.7's "returns true iff this
// caller won").
func (j *Job) Claim(workerID string, now time.Time) bool {
	if !j.CanClaim() {
		return false
	}
	j.Status = JobStatusProcessing
	j.WorkerID = workerID
	j.StartedAt = &now
	j.UpdatedAt = now
	return true
}

// Progress updates the progress fields. Idempotent-safe: it is legal to
// call this repeatedly on a processing job (spec §4.8's "emit progress()
// at least every few minutes" requirement).
func (j *Job) Progress(pct int, detail string, now time.Time) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	j.ProgressPct = pct
	j.ProgressDetail = detail
	j.UpdatedAt = now
}

// Complete transitions to completed. A no-op on an already-terminal job
// (spec §8 idempotence law).
func (j *Job) Complete(results map[string]any, now time.Time) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusCompleted
	j.Results = results
	j.ProgressPct = 100
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail transitions to failed. A no-op on an already-terminal job.
func (j *Job) Fail(errMsg string, now time.Time) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusFailed
	j.Error = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Cancel transitions to cancelled. A no-op on an already-terminal job. A
// processing job has its status flipped but the running handler is not
// preempted (spec §4.8 cancellation semantics) — that cooperative check is
// the handler's responsibility, not this method's.
func (j *Job) Cancel(now time.Time) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Retry resets a failed job back to queued, incrementing RetryCount. Only
// legal from failed and only under the retry budget (spec §4.7, §8
// Retry budget scenario).
func (j *Job) Retry(now time.Time) error {
	if j.Status != JobStatusFailed {
		return cferrors.NewValidationError("status", "retry only legal from failed, got "+string(j.Status))
	}
	if j.RetryCount >= j.MaxRetries {
		return cferrors.NewValidationError("retryCount", "retry budget exhausted")
	}
	j.Status = JobStatusQueued
	j.RetryCount++
	j.WorkerID = ""
	j.StartedAt = nil
	j.CompletedAt = nil
	j.Error = ""
	j.ProgressPct = 0
	j.ProgressDetail = ""
	j.UpdatedAt = now
	return nil
}

// MarkStaleFailed fails a job that was left processing by a crashed
// worker. It is NOT routed through Retry — spec §4.8 and §8 scenario 5 are
// explicit that stale reclamation is never auto-retried.
func (j *Job) MarkStaleFailed(now time.Time) {
	j.Fail("job failed: worker restart detected stale claim", now)
}
