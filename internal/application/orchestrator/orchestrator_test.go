package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/application/analyser"
	"github.com/smilemakc/contentforge/internal/application/generator"
	"github.com/smilemakc/contentforge/internal/application/ingestion"
	"github.com/smilemakc/contentforge/internal/application/templates"
	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

type stubProvider struct{ content string }

func (s *stubProvider) Complete(ctx context.Context, req aiprovider.CompletionRequest) (*aiprovider.CompletionResult, error) {
	return &aiprovider.CompletionResult{Content: s.content, StopReason: "stop", IsComplete: true}, nil
}

func newTestOrchestrator(store domain.Storage) *Orchestrator {
	logger := zerolog.Nop()
	fetcher := ingestion.NewFetcher("test-agent", time.Second, logger)
	aggregator := ingestion.NewAggregator(fetcher, store, logger)
	an := analyser.New(&stubProvider{content: "0.9"}, store, 2, "gpt-4o", 0.7, logger)
	reg := templates.New(store, logger)
	gen := generator.New(store, &stubProvider{content: "generated"}, logger)
	return New(store, fetcher, aggregator, an, reg, gen, logger)
}

func TestHandleAIAnalysis_NoArticlesReportsZero(t *testing.T) {
	store := storage.NewMemoryStore()
	o := newTestOrchestrator(store)

	job, err := domain.NewJob("acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 0, time.Now())
	require.NoError(t, err)

	var lastPct int
	results, err := o.Dispatch(context.Background(), job, func(pct int, detail string) { lastPct = pct })
	require.NoError(t, err)
	assert.Equal(t, 0, results["articles_analyzed"])
	assert.Equal(t, 100, lastPct)
}

func TestDispatch_UnknownJobTypeErrors(t *testing.T) {
	store := storage.NewMemoryStore()
	o := newTestOrchestrator(store)

	job := &domain.Job{JobType: domain.JobType("unknown")}
	_, err := o.Dispatch(context.Background(), job, func(int, string) {})
	assert.Error(t, err)
}

func TestHandleContentGeneration_NoEligibleArticlesIsNotAnError(t *testing.T) {
	store := storage.NewMemoryStore()
	o := newTestOrchestrator(store)

	job, err := domain.NewJob("acct-1", domain.JobTypeContentGeneration, domain.JobPayload{}, 0, "tester", 0, time.Now())
	require.NoError(t, err)

	results, err := o.Dispatch(context.Background(), job, func(int, string) {})
	require.NoError(t, err)
	assert.Equal(t, 0, results["articles_generated"])
}

func TestHandleContentGeneration_SpecificStoryIDTargetsThatArticleOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	o := newTestOrchestrator(store)

	wanted, err := domain.NewScrapedArticle("acct-1", nil, "Wanted", "https://x/wanted", "wanted body text", nil, time.Now())
	require.NoError(t, err)
	wantedID, inserted, err := store.InsertArticle(context.Background(), wanted)
	require.NoError(t, err)
	require.True(t, inserted)

	other, err := domain.NewScrapedArticle("acct-1", nil, "Other", "https://x/other", "other body text", nil, time.Now())
	require.NoError(t, err)
	_, inserted, err = store.InsertArticle(context.Background(), other)
	require.NoError(t, err)
	require.True(t, inserted)

	payload := domain.JobPayload{SpecificStoryID: &wantedID}
	job, err := domain.NewJob("acct-1", domain.JobTypeContentGeneration, payload, 0, "tester", 0, time.Now())
	require.NoError(t, err)

	results, err := o.Dispatch(context.Background(), job, func(int, string) {})
	require.NoError(t, err)
	assert.Equal(t, 1, results["articles_generated"])

	got, err := store.GetArticle(context.Background(), "acct-1", wantedID)
	require.NoError(t, err)
	assert.Equal(t, domain.ArticleStatusProcessed, got.Status)

	untouched, err := store.GetArticle(context.Background(), "acct-1", other.ArticleID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.ArticleStatusProcessed, untouched.Status, "a story not targeted by specificStoryId must be left alone")
}
