// Package analyser implements the Analyser (C4): summarising, keywording,
// and scoring relevance for scraped articles via the AI Provider Adapter.
// Concurrency is capped with golang.org/x/sync/semaphore, the same package
// present in the pack's go/go.mod and jordigilh-kubernaut/go.mod, and the
// inter-call delay follows retry.go's cooperative-wait idiom
// (select on ctx.Done() vs time.After).
package analyser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
)

// InterCallDelay is the cooperative pause between AI calls for the same
// article, respecting provider rate-limit budgets (spec §4.4).
const InterCallDelay = time.Second

const relevanceRubricTemplate = "On a scale from 0.0 to 1.0, how relevant is this article to our content focus? Respond with only a number.\n\nArticle:\n%s"

// Analyser scores articles against a tenant's relevance rubric.
type Analyser struct {
	provider    aiprovider.Provider
	store       domain.Storage
	sem         *semaphore.Weighted
	logger      zerolog.Logger
	model       string
	temperature float64
}

func New(provider aiprovider.Provider, store domain.Storage, concurrency int, model string, temperature float64, logger zerolog.Logger) *Analyser {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Analyser{
		provider:    provider,
		store:       store,
		sem:         semaphore.NewWeighted(int64(concurrency)),
		logger:      logger,
		model:       model,
		temperature: temperature,
	}
}

// Result summarises one run of AnalyseBatch.
type Result struct {
	Analysed int
	Failed   int
}

// AnalyseBatch analyses every scraped, non-empty-text article for
// accountID, up to limit, serialising the three AI calls per article but
// running up to the configured concurrency cap across articles (spec
// §4.4). A per-article AI failure marks that article failed and does not
// stop the batch.
func (a *Analyser) AnalyseBatch(ctx context.Context, accountID string, limit int) (Result, error) {
	articles, err := a.store.ListArticlesByStatus(ctx, accountID, domain.ArticleStatusScraped, limit)
	if err != nil {
		return Result{}, err
	}

	results := make(chan bool, len(articles))
	for _, article := range articles {
		if strings.TrimSpace(article.FullText) == "" {
			results <- false
			continue
		}

		if err := a.sem.Acquire(ctx, 1); err != nil {
			return Result{}, err
		}
		go func(article *domain.ScrapedArticle) {
			defer a.sem.Release(1)
			ok := a.analyseOne(ctx, accountID, article)
			results <- ok
		}(article)
	}

	var res Result
	for range articles {
		if <-results {
			res.Analysed++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

// AnalyseArticle runs the same analysis sequence as AnalyseBatch against a
// single, already-known article, rather than the oldest scraped row. Used
// by url_analysis (spec §4.9), which must analyse the article it just
// fetched, not whatever else happens to be queued.
func (a *Analyser) AnalyseArticle(ctx context.Context, accountID string, articleID int64) (bool, error) {
	article, err := a.store.GetArticle(ctx, accountID, articleID)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(article.FullText) == "" {
		return false, nil
	}
	return a.analyseOne(ctx, accountID, article), nil
}

// analyseOne runs the summary -> keywords -> relevance sequence for one
// article, persisting the result or marking it failed. It never returns an
// error: every outcome is reported via the boolean and logged, per
// spec §4.4's isolation requirement.
func (a *Analyser) analyseOne(ctx context.Context, accountID string, article *domain.ScrapedArticle) bool {
	summary, err := a.callText(ctx, fmt.Sprintf("Summarise the following article in at most two sentences.\n\n%s", article.FullText))
	if err != nil {
		a.fail(ctx, accountID, article, "summary", err)
		return false
	}

	if err := a.wait(ctx); err != nil {
		a.fail(ctx, accountID, article, "keywords", err)
		return false
	}

	keywordsRaw, err := a.callText(ctx, fmt.Sprintf("List 3-6 comma-separated keywords for this article.\n\n%s", article.FullText))
	if err != nil {
		a.fail(ctx, accountID, article, "keywords", err)
		return false
	}

	if err := a.wait(ctx); err != nil {
		a.fail(ctx, accountID, article, "relevance", err)
		return false
	}

	scoreRaw, err := a.callText(ctx, fmt.Sprintf(relevanceRubricTemplate, article.FullText))
	if err != nil {
		a.fail(ctx, accountID, article, "relevance", err)
		return false
	}

	score, parseErr := parseScore(scoreRaw)
	if parseErr != nil {
		a.logger.Warn().Err(parseErr).Int64("article_id", article.ArticleID).Msg("relevance score unparsable, defaulting to 0")
		score = 0
	}
	clamped, wasClamped := domain.ClampRelevanceScore(score)
	if wasClamped {
		a.logger.Warn().Float64("raw_score", score).Int64("article_id", article.ArticleID).Msg("relevance score out of [0,1], clamped")
	}

	article.Summary = summary
	article.Keywords = splitKeywords(keywordsRaw)
	article.RelevanceScore = &clamped
	article.Status = domain.ArticleStatusAnalyzed

	if err := a.store.UpdateArticleAnalysis(ctx, article); err != nil {
		a.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("failed to persist analysis")
		return false
	}
	return true
}

func (a *Analyser) callText(ctx context.Context, prompt string) (string, error) {
	res, err := a.provider.Complete(ctx, aiprovider.CompletionRequest{
		Model:       a.model,
		Prompt:      prompt,
		Temperature: a.temperature,
		MaxTokens:   256,
	})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (a *Analyser) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(InterCallDelay):
		return nil
	}
}

func (a *Analyser) fail(ctx context.Context, accountID string, article *domain.ScrapedArticle, stage string, err error) {
	a.logger.Warn().Err(err).Int64("article_id", article.ArticleID).Str("stage", stage).Msg("analysis call failed")
	if markErr := a.store.MarkArticleStatus(ctx, accountID, article.ArticleID, domain.ArticleStatusFailed); markErr != nil {
		a.logger.Error().Err(markErr).Int64("article_id", article.ArticleID).Msg("failed to mark article failed")
	}
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseScore(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	var score float64
	if _, err := fmt.Sscanf(raw, "%f", &score); err != nil {
		return 0, fmt.Errorf("unparsable relevance score %q: %w", raw, err)
	}
	return score, nil
}
