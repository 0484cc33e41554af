package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/domain"
)

func TestMemoryStore_JobLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	j, err := domain.NewJob("acct-1", domain.JobTypeNewsAggregation, domain.JobPayload{}, 5, "tester", 3, now)
	require.NoError(t, err)
	require.NoError(t, s.InsertJob(ctx, j))

	next, err := s.NextQueuedJob(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, j.JobID, next.JobID)

	ok, err := s.ClaimJob(ctx, j.JobID, "worker-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ClaimJob(ctx, j.JobID, "worker-2", now)
	require.NoError(t, err)
	assert.False(t, ok, "second claim on an already-processing job must fail")

	got, err := s.GetJob(ctx, "acct-1", j.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, got.Status)
	assert.Equal(t, "worker-1", got.WorkerID)

	got.Complete(map[string]any{"articles": 4}, now.Add(time.Minute))
	require.NoError(t, s.UpdateJob(ctx, got))

	done, err := s.GetJob(ctx, "acct-1", j.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, done.Status)
	assert.Equal(t, 100, done.ProgressPct)
}

func TestMemoryStore_JobAccountIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	j, err := domain.NewJob("acct-a", domain.JobTypeNewsAggregation, domain.JobPayload{}, 0, "tester", 0, now)
	require.NoError(t, err)
	require.NoError(t, s.InsertJob(ctx, j))

	_, err = s.GetJob(ctx, "acct-b", j.JobID)
	assert.Error(t, err, "a job must not be visible to a different account")

	next, err := s.NextQueuedJob(ctx, "acct-b")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestMemoryStore_StaleProcessingReclaim(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	j, err := domain.NewJob("acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 1, past)
	require.NoError(t, err)
	require.NoError(t, s.InsertJob(ctx, j))
	ok, err := s.ClaimJob(ctx, j.JobID, "worker-dead", past)
	require.NoError(t, err)
	require.True(t, ok)

	stale, err := s.ListStaleProcessingJobs(ctx, time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)

	stale[0].MarkStaleFailed(time.Now())
	require.NoError(t, s.UpdateJob(ctx, stale[0]))

	final, err := s.GetJob(ctx, "acct-1", j.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, final.Status)
	assert.Equal(t, 0, final.RetryCount, "stale reclamation must not consume retry budget")
}

func TestMemoryStore_TemplateResolutionPrefersTenantOverGlobal(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	global := &domain.PromptTemplate{AccountID: domain.GlobalAccountID, Name: "summary", Category: "blog", ExecutionOrder: 1, Active: true}
	s.AddTemplate(global)
	s.AddVersion(&domain.PromptVersion{TemplateID: global.TemplateID, VersionNumber: 1, PromptText: "global prompt", IsCurrent: true})

	tenant := &domain.PromptTemplate{AccountID: "acct-1", Name: "summary", Category: "blog", ExecutionOrder: 1, Active: true}
	s.AddTemplate(tenant)
	s.AddVersion(&domain.PromptVersion{TemplateID: tenant.TemplateID, VersionNumber: 1, PromptText: "tenant prompt", IsCurrent: true})

	resolved, err := s.ListActiveTemplatesWithCurrentVersion(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "acct-1", resolved[0].AccountID)
	assert.Equal(t, "tenant prompt", resolved[0].Current.PromptText)
}

func TestMemoryStore_SetCurrentVersionIsExclusive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tmpl := &domain.PromptTemplate{AccountID: "acct-1", Name: "summary", Category: "blog", Active: true}
	s.AddTemplate(tmpl)
	v1 := &domain.PromptVersion{TemplateID: tmpl.TemplateID, VersionNumber: 1, IsCurrent: true}
	s.AddVersion(v1)
	v2 := &domain.PromptVersion{TemplateID: tmpl.TemplateID, VersionNumber: 2}
	s.AddVersion(v2)

	require.NoError(t, s.SetCurrentVersion(ctx, tmpl.TemplateID, v2.VersionID))

	resolved, err := s.ListActiveTemplatesWithCurrentVersion(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, 2, resolved[0].Current.VersionNumber)
}

func TestMemoryStore_HasInProgressGeneration(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	articleID := int64(42)

	has, err := s.HasInProgressGeneration(ctx, "acct-1", articleID)
	require.NoError(t, err)
	assert.False(t, has)

	ga := &domain.GeneratedArticle{AccountID: "acct-1", BasedOnArticleID: &articleID, Status: domain.GeneratedArticleStatusDraft, CreatedAt: time.Now()}
	_, err = s.CreateDraftGeneratedArticle(ctx, ga)
	require.NoError(t, err)

	has, err = s.HasInProgressGeneration(ctx, "acct-1", articleID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryStore_MutateSettingsReadsCurrentValue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.MutateSettings(ctx, "acct-1", "ingestion", func(current map[string]any) (map[string]any, error) {
		current["max_per_source"] = 20
		return current, nil
	})
	require.NoError(t, err)

	err = s.MutateSettings(ctx, "acct-1", "ingestion", func(current map[string]any) (map[string]any, error) {
		assert.Equal(t, 20, current["max_per_source"])
		current["max_per_source"] = 30
		return current, nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ArticleDedupeByURL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := domain.NewScrapedArticle("acct-1", nil, "Title", "https://example.com/a", "body text", nil, time.Now())
	require.NoError(t, err)
	_, inserted, err := s.InsertArticle(ctx, a)
	require.NoError(t, err)
	require.True(t, inserted)

	exists, err := s.ArticleExistsByURL(ctx, "acct-1", "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ArticleExistsByURL(ctx, "acct-2", "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, exists, "dedupe is scoped per tenant")

	dup, err := domain.NewScrapedArticle("acct-1", nil, "Title Again", "https://example.com/a", "other body", nil, time.Now())
	require.NoError(t, err)
	_, inserted, err = s.InsertArticle(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted, "same (account_id, url) must be skipped silently, not erred")
}
