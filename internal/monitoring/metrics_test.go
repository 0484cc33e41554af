package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_RecordJobExecution(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordJobExecution("full_cycle", 10*time.Millisecond, true)
	mc.RecordJobExecution("full_cycle", 20*time.Millisecond, false)

	snap := mc.JobTypeSnapshot("full_cycle")
	assert.NotNil(t, snap)
	assert.Equal(t, 2, snap.ExecutionCount)
	assert.Equal(t, 1, snap.SuccessCount)
	assert.Equal(t, 1, snap.FailureCount)
	assert.Equal(t, 15*time.Millisecond, snap.AverageDuration)
}

func TestMetricsCollector_UnknownJobTypeReturnsNil(t *testing.T) {
	mc := NewMetricsCollector()
	assert.Nil(t, mc.JobTypeSnapshot("nonexistent"))
}

func TestMetricsCollector_RecordAIRequest(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordAIRequest(100, 50, 200*time.Millisecond)
	mc.RecordAIRequest(200, 100, 400*time.Millisecond)

	ai := mc.AISnapshot()
	assert.Equal(t, 2, ai.TotalRequests)
	assert.Equal(t, 300, ai.PromptTokens)
	assert.Equal(t, 150, ai.CompletionTokens)
	assert.Equal(t, 450, ai.TotalTokens)
	assert.Equal(t, 300*time.Millisecond, ai.AverageLatency)
}

func TestMetricsCollector_GetSummary(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordJobExecution("news_aggregation", time.Millisecond, true)
	mc.RecordJobExecution("ai_analysis", time.Millisecond, false)

	s := mc.GetSummary()
	assert.Equal(t, 2, s.TotalJobTypes)
	assert.Equal(t, 2, s.TotalExecutions)
	assert.Equal(t, 1, s.TotalSuccesses)
	assert.Equal(t, 1, s.TotalFailures)
	assert.InDelta(t, 0.5, s.OverallSuccessRate, 0.0001)
}
