package analyser

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

type stubProvider struct {
	responses []string
	calls     int
	alwaysErr bool
}

func (s *stubProvider) Complete(ctx context.Context, req aiprovider.CompletionRequest) (*aiprovider.CompletionResult, error) {
	idx := s.calls
	s.calls++
	if s.alwaysErr {
		return nil, assertErr{}
	}
	content := "stub"
	if idx < len(s.responses) {
		content = s.responses[idx]
	}
	return &aiprovider.CompletionResult{Content: content}, nil
}

type assertErr struct{}

func (assertErr) Error() string { return "stub provider failure" }

func TestAnalyseBatch_SuccessPath(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now()
	article, err := domain.NewScrapedArticle("acct-1", nil, "Title", "https://x/1", "some article body text", nil, now)
	require.NoError(t, err)
	_, _, err = store.InsertArticle(context.Background(), article)
	require.NoError(t, err)

	provider := &stubProvider{responses: []string{"A short summary.", "alpha, beta, gamma", "0.8"}}
	a := New(provider, store, 2, "gpt-4o", 0.7, zerolog.Nop())

	res, err := a.AnalyseBatch(context.Background(), "acct-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Analysed)
	assert.Equal(t, 0, res.Failed)

	got, err := store.ListArticlesByStatus(context.Background(), "acct-1", domain.ArticleStatusAnalyzed, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A short summary.", got[0].Summary)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, got[0].Keywords)
	require.NotNil(t, got[0].RelevanceScore)
	assert.InDelta(t, 0.8, *got[0].RelevanceScore, 0.0001)
}

func TestAnalyseBatch_ProviderFailureMarksArticleFailedAndContinues(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now()
	a1, _ := domain.NewScrapedArticle("acct-1", nil, "T1", "https://x/1", "body one text here", nil, now)
	a2, _ := domain.NewScrapedArticle("acct-1", nil, "T2", "https://x/2", "body two text here", nil, now)
	_, _, _ = store.InsertArticle(context.Background(), a1)
	_, _, _ = store.InsertArticle(context.Background(), a2)

	provider := &stubProvider{alwaysErr: true}
	an := New(provider, store, 1, "gpt-4o", 0.7, zerolog.Nop())

	res, err := an.AnalyseBatch(context.Background(), "acct-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)

	failed, err := store.ListArticlesByStatus(context.Background(), "acct-1", domain.ArticleStatusFailed, 10)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestParseScore_ClampsOutOfRange(t *testing.T) {
	score, err := parseScore("1.5")
	require.NoError(t, err)
	clamped, wasClamped := domain.ClampRelevanceScore(score)
	assert.True(t, wasClamped)
	assert.Equal(t, 1.0, clamped)
}
