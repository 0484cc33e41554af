package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Every method below that takes an accountID parameter MUST apply it as a
// predicate in the underlying query (spec §3, §8: "No query against a
// tenant-owning table executes without account_id in its predicate").
// Nothing at the type level enforces this; memory_test.go's
// TestMemoryStore_JobAccountIsolation guards against a regression here.

// NewsSourceRepository manages NewsSource rows (component C3's input).
type NewsSourceRepository interface {
	SaveNewsSource(ctx context.Context, s *NewsSource) error
	GetNewsSource(ctx context.Context, accountID string, sourceID int64) (*NewsSource, error)
	ListActiveNewsSources(ctx context.Context, accountID string) ([]*NewsSource, error)
	TouchNewsSourceChecked(ctx context.Context, accountID string, sourceID int64, at time.Time) error
}

// ArticleRepository manages ScrapedArticle rows (C3, C4).
type ArticleRepository interface {
	// InsertArticle inserts a, returning its assigned id and whether a new
	// row was actually created. A false inserted result with a nil error
	// means (account_id, url) already existed and the insert was skipped
	// silently, per spec §4.3's duplicate-URL contract.
	InsertArticle(ctx context.Context, a *ScrapedArticle) (id int64, inserted bool, err error)
	ArticleExistsByURL(ctx context.Context, accountID, url string) (bool, error)
	GetArticle(ctx context.Context, accountID string, articleID int64) (*ScrapedArticle, error)
	ListArticlesByStatus(ctx context.Context, accountID string, status ArticleStatus, limit int) ([]*ScrapedArticle, error)
	ListTopRelevance(ctx context.Context, accountID string, excludeStatus ArticleStatus, limit int) ([]*ScrapedArticle, error)
	UpdateArticleAnalysis(ctx context.Context, a *ScrapedArticle) error
	MarkArticleStatus(ctx context.Context, accountID string, articleID int64, status ArticleStatus) error
}

// TemplateRepository manages PromptTemplate/PromptVersion rows (C5).
type TemplateRepository interface {
	ListActiveTemplatesWithCurrentVersion(ctx context.Context, accountID string) ([]*PromptTemplate, error)
	SetCurrentVersion(ctx context.Context, templateID int64, versionID int64) error
}

// GeneratedContentRepository manages generation output rows (C6).
type GeneratedContentRepository interface {
	CreateDraftGeneratedArticle(ctx context.Context, ga *GeneratedArticle) (uuid.UUID, error)
	HasInProgressGeneration(ctx context.Context, accountID string, basedOnArticleID int64) (bool, error)
	UpdateGeneratedArticleBody(ctx context.Context, accountID string, id uuid.UUID, title, body string) error
	TransitionGeneratedArticleStatus(ctx context.Context, accountID string, id uuid.UUID, status GeneratedArticleStatus) error
	InsertGeneratedContent(ctx context.Context, c *GeneratedContent) error
	InsertAIResponseLog(ctx context.Context, l *AIResponseLog) error
}

// JobRepository is the Job Queue's persistence seam (C7).
type JobRepository interface {
	InsertJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, accountID string, jobID uuid.UUID) (*Job, error)
	NextQueuedJob(ctx context.Context, accountID string) (*Job, error)
	ClaimJob(ctx context.Context, jobID uuid.UUID, workerID string, now time.Time) (bool, error)
	UpdateJob(ctx context.Context, j *Job) error
	ListRecentJobs(ctx context.Context, accountID string, limit int) ([]*Job, error)
	ListJobsByStatus(ctx context.Context, status JobStatus, accountID string, limit int) ([]*Job, error)
	JobStats(ctx context.Context, accountID string, since time.Time) (map[string]map[string]int, error)
	CleanupTerminalJobs(ctx context.Context, accountID string, olderThan time.Time) (int, error)
	ListStaleProcessingJobs(ctx context.Context, olderThan time.Time) ([]*Job, error)
}

// JobLogRepository manages append-only JobLog rows.
type JobLogRepository interface {
	InsertJobLog(ctx context.Context, l *JobLog) error
	ListJobLogs(ctx context.Context, jobID uuid.UUID, accountID string, limit int) ([]*JobLog, error)
}

// SettingsRepository implements the row-lock read-modify-write contract
// for settings-shaped JSON blobs (spec §4.1: "BEGIN; SELECT ... FOR
// UPDATE; write; COMMIT").
type SettingsRepository interface {
	// MutateSettings reads the named settings row under FOR UPDATE,
	// invokes mutate with the current blob (empty map if absent, never
	// nil), and writes the result back in the same transaction.
	MutateSettings(ctx context.Context, accountID, key string, mutate func(current map[string]any) (map[string]any, error)) error
}

// Storage is the unified persistence interface, combining every
// repository (spec §4.1). A single BunStore or MemoryStore implements
// all of it.
type Storage interface {
	NewsSourceRepository
	ArticleRepository
	TemplateRepository
	GeneratedContentRepository
	JobRepository
	JobLogRepository
	SettingsRepository

	Ping(ctx context.Context) error
	Close() error
}
