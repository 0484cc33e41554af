// Package orchestrator implements the Pipeline Orchestrator (C9): a
// job_type-keyed handler table, grounded on
// nodeExecutors map[domain.NodeType]NodeExecutor registry in
// internal/application/executor/engine.go, adapted from a per-node
// dispatch to a per-job-type one.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/application/analyser"
	"github.com/smilemakc/contentforge/internal/application/generator"
	"github.com/smilemakc/contentforge/internal/application/ingestion"
	"github.com/smilemakc/contentforge/internal/application/templates"
	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// defaultContentGenerationLimit is the top-N analysed-articles cutoff for
// content_generation when the job doesn't target a specific article
// (spec §4.9).
const defaultContentGenerationLimit = 5

// ProgressFunc reports a job's progress; bound to the running job by the
// Worker Engine (C8).
type ProgressFunc func(pct int, detail string)

// Handler runs one job_type's effect and returns its reported results.
type Handler func(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error)

// Orchestrator owns the handler table and the application services each
// handler composes.
type Orchestrator struct {
	store      domain.Storage
	fetcher    *ingestion.Fetcher
	aggregator *ingestion.Aggregator
	analyser   *analyser.Analyser
	registry   *templates.Registry
	generator  *generator.Generator
	logger     zerolog.Logger

	handlers map[domain.JobType]Handler
}

func New(store domain.Storage, fetcher *ingestion.Fetcher, aggregator *ingestion.Aggregator, an *analyser.Analyser, reg *templates.Registry, gen *generator.Generator, logger zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		fetcher:    fetcher,
		aggregator: aggregator,
		analyser:   an,
		registry:   reg,
		generator:  gen,
		logger:     logger,
	}
	o.handlers = map[domain.JobType]Handler{
		domain.JobTypeNewsAggregation:   o.handleNewsAggregation,
		domain.JobTypeAIAnalysis:        o.handleAIAnalysis,
		domain.JobTypeURLAnalysis:       o.handleURLAnalysis,
		domain.JobTypeContentGeneration: o.handleContentGeneration,
		domain.JobTypeFullCycle:         o.handleFullCycle,
	}
	return o
}

// Dispatch resolves and runs the handler for job.JobType.
func (o *Orchestrator) Dispatch(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	handler, ok := o.handlers[job.JobType]
	if !ok {
		return nil, cferrors.NewValidationError("jobType", "no handler registered for "+string(job.JobType))
	}
	return handler(ctx, job, report)
}

func (o *Orchestrator) handleNewsAggregation(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	if job.Payload.SourceID != nil {
		source, err := o.store.GetNewsSource(ctx, job.AccountID, *job.Payload.SourceID)
		if err != nil {
			return nil, err
		}
		exists := func(ctx context.Context, url string) (bool, error) {
			return o.store.ArticleExistsByURL(ctx, job.AccountID, url)
		}
		records, err := o.fetcher.FetchSource(ctx, source, exists)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		stored := 0
		for _, rec := range records {
			article, err := domain.NewScrapedArticle(job.AccountID, &source.SourceID, rec.Title, rec.URL, rec.Text, rec.PublishedAt, now)
			if err != nil {
				o.logger.Warn().Err(err).Str("url", rec.URL).Msg("skipping invalid record")
				continue
			}
			_, inserted, err := o.store.InsertArticle(ctx, article)
			if err != nil {
				return nil, err
			}
			if inserted {
				stored++
			}
		}
		if err := o.store.TouchNewsSourceChecked(ctx, job.AccountID, source.SourceID, now); err != nil {
			return nil, err
		}
		report(100, "single source aggregated")
		return map[string]any{"articles_aggregated": stored}, nil
	}

	res, err := o.aggregator.Run(ctx, job.AccountID, func(done, total int) {
		if total == 0 {
			report(100, "no active sources")
			return
		}
		report(done*100/total, "aggregating sources")
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"articles_aggregated": res.ArticlesStored, "sources_checked": res.SourcesChecked, "sources_failed": res.SourcesFailed}, nil
}

func (o *Orchestrator) handleAIAnalysis(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	limit := job.Payload.AIAnalysisLimit()
	res, err := o.analyser.AnalyseBatch(ctx, job.AccountID, limit)
	if err != nil {
		return nil, err
	}
	report(100, "analysis complete")
	return map[string]any{"articles_analyzed": res.Analysed, "articles_failed": res.Failed}, nil
}

// handleURLAnalysis fetches one user-submitted URL with the permissive
// scrape extractor, persists the article text, then runs the analyser on
// it. On a scrape failure where some text was still captured, analysis
// proceeds anyway; otherwise the article is marked failed (spec §4.9).
func (o *Orchestrator) handleURLAnalysis(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	record, fetchErr := o.fetcher.FetchURL(ctx, *job.Payload.URL)
	if fetchErr != nil && record.Text == "" {
		// job.Payload.ArticleID references a stub row the caller created
		// before enqueueing so a scrape failure has somewhere to land.
		if err := o.store.MarkArticleStatus(ctx, job.AccountID, *job.Payload.ArticleID, domain.ArticleStatusFailed); err != nil {
			return nil, err
		}
		return nil, fetchErr
	}

	article, err := domain.NewScrapedArticle(job.AccountID, job.Payload.SourceID, record.Title, *job.Payload.URL, record.Text, record.PublishedAt, time.Now())
	if err != nil {
		return nil, err
	}
	articleID, inserted, err := o.store.InsertArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	if !inserted {
		report(100, "url already analysed")
		return map[string]any{"article_id": articleID, "analyzed": 0}, nil
	}
	report(50, "article captured, analysing")

	analysed, err := o.analyser.AnalyseArticle(ctx, job.AccountID, articleID)
	if err != nil {
		return nil, err
	}
	report(100, "url analysis complete")
	analysedCount := 0
	if analysed {
		analysedCount = 1
	}
	return map[string]any{"article_id": articleID, "analyzed": analysedCount}, nil
}

func (o *Orchestrator) handleContentGeneration(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	tpls, err := o.registry.Resolve(ctx, job.AccountID)
	if err != nil {
		return nil, err
	}

	var targets []*domain.ScrapedArticle
	if job.Payload.SpecificStoryID != nil {
		article, err := o.store.GetArticle(ctx, job.AccountID, *job.Payload.SpecificStoryID)
		if err != nil {
			return nil, err
		}
		targets = []*domain.ScrapedArticle{article}
	} else {
		limit := job.Payload.ContentGenerationLimit()
		targets, err = o.store.ListTopRelevance(ctx, job.AccountID, domain.ArticleStatusProcessed, limit)
		if err != nil {
			return nil, err
		}
	}
	if len(targets) == 0 {
		report(100, "no eligible articles")
		return map[string]any{"articles_generated": 0}, nil
	}

	generated := 0
	for i, article := range targets {
		if _, err := o.generator.Generate(ctx, job.AccountID, article, tpls); err != nil {
			o.logger.Warn().Err(err).Int64("article_id", article.ArticleID).Msg("content generation failed for article, continuing")
			continue
		}
		if err := o.store.MarkArticleStatus(ctx, job.AccountID, article.ArticleID, domain.ArticleStatusProcessed); err != nil {
			return nil, err
		}
		generated++
		report((i+1)*100/len(targets), "generating content")
	}
	return map[string]any{"articles_generated": generated}, nil
}

// handleFullCycle chains news_aggregation -> ai_analysis(20) ->
// content_generation(5), publishing the fixed progress budget of spec
// §4.9 (10/35/65/95). A stage failure halts subsequent stages and
// surfaces the partial progress already made.
func (o *Orchestrator) handleFullCycle(ctx context.Context, job *domain.Job, report ProgressFunc) (map[string]any, error) {
	results := map[string]any{}

	report(10, "starting aggregation")
	aggRes, err := o.handleNewsAggregation(ctx, job, func(int, string) {})
	if err != nil {
		return results, err
	}
	results["articles_aggregated"] = aggRes["articles_aggregated"]
	report(35, "aggregation complete, analysing")

	analysisJob := *job
	analysisJob.Payload.Limit = intPtr(20)
	anRes, err := o.handleAIAnalysis(ctx, &analysisJob, func(int, string) {})
	if err != nil {
		return results, err
	}
	results["articles_analyzed"] = anRes["articles_analyzed"]
	report(65, "analysis complete, generating content")

	genJob := *job
	genJob.Payload.Limit = intPtr(defaultContentGenerationLimit)
	genRes, err := o.handleContentGeneration(ctx, &genJob, func(int, string) {})
	if err != nil {
		return results, err
	}
	results["content_generated"] = genRes["articles_generated"]
	report(95, "finalizing")

	return results, nil
}

func intPtr(n int) *int { return &n }
