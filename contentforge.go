// Package contentforge is the public facade over the internal job queue,
// worker engine, and pipeline stages: type aliases re-exported from
// internal/domain plus constructor functions, following the usual
// root-facade shape (no logic lives here, only re-export and wiring).
package contentforge

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/application/analyser"
	"github.com/smilemakc/contentforge/internal/application/generator"
	"github.com/smilemakc/contentforge/internal/application/ingestion"
	"github.com/smilemakc/contentforge/internal/application/orchestrator"
	"github.com/smilemakc/contentforge/internal/application/queue"
	"github.com/smilemakc/contentforge/internal/application/templates"
	"github.com/smilemakc/contentforge/internal/application/worker"
	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
	"github.com/smilemakc/contentforge/internal/monitoring"
)

// Job types.
type (
	Job                    = domain.Job
	JobType                = domain.JobType
	JobStatus              = domain.JobStatus
	JobPayload             = domain.JobPayload
	JobLog                 = domain.JobLog
	LogLevel               = domain.LogLevel
	NewsSource             = domain.NewsSource
	ScrapedArticle         = domain.ScrapedArticle
	ArticleStatus          = domain.ArticleStatus
	PromptTemplate         = domain.PromptTemplate
	PromptVersion          = domain.PromptVersion
	GeneratedArticle       = domain.GeneratedArticle
	GeneratedArticleStatus = domain.GeneratedArticleStatus
	GeneratedContent       = domain.GeneratedContent
	AIResponseLog          = domain.AIResponseLog
	Storage                = domain.Storage
)

// Job type constants, re-exported for callers that enqueue work without
// importing internal/domain directly.
const (
	JobTypeNewsAggregation   = domain.JobTypeNewsAggregation
	JobTypeAIAnalysis        = domain.JobTypeAIAnalysis
	JobTypeURLAnalysis       = domain.JobTypeURLAnalysis
	JobTypeContentGeneration = domain.JobTypeContentGeneration
	JobTypeFullCycle         = domain.JobTypeFullCycle
)

const (
	JobStatusQueued     = domain.JobStatusQueued
	JobStatusProcessing = domain.JobStatusProcessing
	JobStatusCompleted  = domain.JobStatusCompleted
	JobStatusFailed     = domain.JobStatusFailed
	JobStatusCancelled  = domain.JobStatusCancelled
)

// NewMemoryStorage creates a new in-memory Storage, suitable for tests and
// single-process development (spec §4.1's MemoryStore implementation).
func NewMemoryStorage() Storage {
	return storage.NewMemoryStore()
}

// NewPostgresStorage opens a pooled Postgres-backed Storage. It does not
// create the schema; the caller runs InitSchema on the returned store.
// maxOpenConns/maxIdleConns bound the connection pool per spec §4.1.
func NewPostgresStorage(dsn string, maxOpenConns, maxIdleConns int) *storage.BunStore {
	return storage.NewBunStore(dsn, maxOpenConns, maxIdleConns)
}

// Engine bundles the application services a worker process needs: the
// Job Queue (C7), Pipeline Orchestrator (C9), and the Worker Engine (C8)
// loop that drives them, wired through one constructor call.
type Engine struct {
	Queue        *queue.Queue
	Orchestrator *orchestrator.Orchestrator
	Worker       *worker.Worker
	Metrics      *monitoring.MetricsCollector
}

// EngineConfig carries the tunables every stage needs. Zero values take
// the same defaults the individual constructors apply on their own.
type EngineConfig struct {
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAITemperature   float64
	AnalyserConcurrency int
	HTTPUserAgent       string
	HTTPFetchTimeout    time.Duration
}

// NewEngine wires the AI Provider Adapter (C2), Source Fetcher (C3),
// Analyser (C4), Template Registry (C5), Content Generator (C6), Job
// Queue (C7), Pipeline Orchestrator (C9), and Worker Engine (C8) against
// a single Storage (C1) instance, mirroring cmd/worker/main.go's
// construction order.
func NewEngine(store Storage, cfg EngineConfig, logger zerolog.Logger) *Engine {
	provider := aiprovider.NewOpenAIProvider(cfg.OpenAIAPIKey, aiprovider.DefaultCircuitBreakerConfig(), logger)
	metrics := monitoring.NewMetricsCollector()

	fetcher := ingestion.NewFetcher(cfg.HTTPUserAgent, cfg.HTTPFetchTimeout, logger)
	aggregator := ingestion.NewAggregator(fetcher, store, logger)
	an := analyser.New(provider, store, cfg.AnalyserConcurrency, cfg.OpenAIModel, cfg.OpenAITemperature, logger)
	registry := templates.New(store, logger)
	gen := generator.New(store, provider, logger)
	orch := orchestrator.New(store, fetcher, aggregator, an, registry, gen, logger)

	q := queue.New(store)
	w := worker.New(q, orch, store, logger, metrics)

	return &Engine{Queue: q, Orchestrator: orch, Worker: w, Metrics: metrics}
}
