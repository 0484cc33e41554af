package worker

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
	"github.com/smilemakc/contentforge/internal/application/orchestrator"
	"github.com/smilemakc/contentforge/internal/application/queue"
	"github.com/smilemakc/contentforge/internal/application/templates"
	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

type stubProvider struct{ content string }

func (s *stubProvider) Complete(ctx context.Context, req aiprovider.CompletionRequest) (*aiprovider.CompletionResult, error) {
	return &aiprovider.CompletionResult{Content: s.content, StopReason: "stop", IsComplete: true}, nil
}

func newTestDeps(store *storage.MemoryStore) (*queue.Queue, *orchestrator.Orchestrator) {
	logger := zerolog.Nop()
	fetcher := ingestion.NewFetcher("test-agent", time.Second, logger)
	aggregator := ingestion.NewAggregator(fetcher, store, logger)
	an := analyser.New(&stubProvider{content: "0.5"}, store, 2, "gpt-4o", 0.7, logger)
	reg := templates.New(store, logger)
	gen := generator.New(store, &stubProvider{content: "body"}, logger)
	orch := orchestrator.New(store, fetcher, aggregator, an, reg, gen, logger)
	return queue.New(store), orch
}

func TestWorker_ClaimsAndCompletesAJob(t *testing.T) {
	store := storage.NewMemoryStore()
	q, orch := newTestDeps(store)

	jobID, err := q.Enqueue(context.Background(), "acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 0)
	require.NoError(t, err)

	w := New(q, orch, store, zerolog.Nop(), nil)
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_ = w.Run(ctx)

	job, err := store.GetJob(context.Background(), "acct-1", jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
}

func TestWorker_ReclaimsStaleJobsAtBoot(t *testing.T) {
	store := storage.NewMemoryStore()
	q, orch := newTestDeps(store)

	jobID, err := q.Enqueue(context.Background(), "acct-1", domain.JobTypeAIAnalysis, domain.JobPayload{}, 0, "tester", 3)
	require.NoError(t, err)
	ok, err := q.Claim(context.Background(), jobID, "dead-worker")
	require.NoError(t, err)
	require.True(t, ok)

	job, _ := store.GetJob(context.Background(), "acct-1", jobID)
	past := time.Now().Add(-10 * time.Minute)
	job.StartedAt = &past
	require.NoError(t, store.UpdateJob(context.Background(), job))

	w := New(q, orch, store, zerolog.Nop(), nil)
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // stop immediately after boot-time reclaim runs
	_ = w.Run(ctx)

	got, err := store.GetJob(context.Background(), "acct-1", jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, 0, got.RetryCount)
}
