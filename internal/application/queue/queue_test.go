package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

func TestQueue_EnqueueClaimComplete(t *testing.T) {
	store := storage.NewMemoryStore()
	q := New(store)

	jobID, err := q.Enqueue(context.Background(), "acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 5, "tester", 3)
	require.NoError(t, err)

	job, err := q.Next(context.Background(), "acct-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, jobID, job.JobID)

	ok, err := q.Claim(context.Background(), jobID, "worker-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Claim(context.Background(), jobID, "worker-2")
	require.NoError(t, err)
	assert.False(t, ok, "second claim on an already-processing job must fail")

	require.NoError(t, q.Complete(context.Background(), "acct-1", jobID, map[string]any{"articles_analyzed": 3}))

	got, err := store.GetJob(context.Background(), "acct-1", jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPct)
}

func TestQueue_RetryRespectsBudget(t *testing.T) {
	store := storage.NewMemoryStore()
	q := New(store)

	jobID, err := q.Enqueue(context.Background(), "acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 1)
	require.NoError(t, err)
	require.NoError(t, q.Fail(context.Background(), "acct-1", jobID, "boom"))

	require.NoError(t, q.Retry(context.Background(), "acct-1", jobID))
	require.NoError(t, q.Fail(context.Background(), "acct-1", jobID, "boom again"))

	err = q.Retry(context.Background(), "acct-1", jobID)
	assert.Error(t, err, "retry budget of 1 is exhausted")
}

func TestQueue_ReclaimStaleDoesNotConsumeRetryBudget(t *testing.T) {
	store := storage.NewMemoryStore()
	q := New(store)

	jobID, err := q.Enqueue(context.Background(), "acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 3)
	require.NoError(t, err)
	ok, err := q.Claim(context.Background(), jobID, "worker-1")
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := q.ReclaimStale(context.Background(), -time.Hour) // everything processing looks stale
	require.NoError(t, err)
	require.Contains(t, ids, jobID)

	got, err := store.GetJob(context.Background(), "acct-1", jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, 0, got.RetryCount)
}
