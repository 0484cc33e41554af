package monitoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/domain"
)

// JobLogHook fans every log event at or above its minimum level into the
// job_logs table, grounded on an ExecutionLogger console+DB
// fan-out. It is attached to a per-job zerolog.Logger via JobScopedLogger
// so worker and handler code keeps logging through the normal zerolog API
// while the job's audit trail (spec §4.9, §6) is populated as a side effect.
type JobLogHook struct {
	repo      domain.JobLogRepository
	jobID     uuid.UUID
	accountID string
	minLevel  zerolog.Level
}

func NewJobLogHook(repo domain.JobLogRepository, jobID uuid.UUID, accountID string, minLevel zerolog.Level) *JobLogHook {
	return &JobLogHook{repo: repo, jobID: jobID, accountID: accountID, minLevel: minLevel}
}

// Run implements zerolog.Hook. The insert happens on a detached goroutine
// with its own short timeout: a slow or unavailable store must never block
// the worker's own logging call.
func (h *JobLogHook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if level < h.minLevel || level == zerolog.NoLevel {
		return
	}

	entry := domain.NewJobLog(h.jobID, h.accountID, toDomainLevel(level), "worker", message, nil, time.Now())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.repo.InsertJobLog(ctx, &entry)
	}()
}

func toDomainLevel(level zerolog.Level) domain.LogLevel {
	switch level {
	case zerolog.DebugLevel:
		return domain.LogLevelDebug
	case zerolog.WarnLevel:
		return domain.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return domain.LogLevelError
	default:
		return domain.LogLevelInfo
	}
}

// JobScopedLogger returns base with a JobLogHook attached, plus job_id and
// account_id fields so console output and DB rows agree on provenance.
func JobScopedLogger(base zerolog.Logger, repo domain.JobLogRepository, jobID uuid.UUID, accountID string) zerolog.Logger {
	return base.With().
		Str("job_id", jobID.String()).
		Str("account_id", accountID).
		Logger().
		Hook(NewJobLogHook(repo, jobID, accountID, zerolog.InfoLevel))
}
