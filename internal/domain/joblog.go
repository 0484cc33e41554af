package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogLevel is the bit-exact log level vocabulary of spec §6.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// JobLog is an append-only row keyed by (job_id, account_id, level) per
// spec §6's observability surface. JobID and AccountID are both optional
// so the same table can carry system-wide events alongside job-scoped
// ones (spec §3).
type JobLog struct {
	LogID     uuid.UUID
	JobID     *uuid.UUID
	AccountID *string
	Level     LogLevel
	Message   string
	Source    string
	Metadata  map[string]any
	CreatedAt time.Time
}

// NewJobLog builds a job-scoped log row.
func NewJobLog(jobID uuid.UUID, accountID string, level LogLevel, source, message string, metadata map[string]any, now time.Time) JobLog {
	return JobLog{
		LogID:     uuid.New(),
		JobID:     &jobID,
		AccountID: &accountID,
		Level:     level,
		Message:   message,
		Source:    source,
		Metadata:  metadata,
		CreatedAt: now,
	}
}
