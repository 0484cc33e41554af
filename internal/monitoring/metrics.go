// Package monitoring implements the read-only metrics collector, grounded
// on the aggregate shape of internal/infrastructure/monitoring/metrics.go, adapted
// from per-workflow/per-node aggregates to per-job-type and AI-call
// aggregates. It never gates a decision (spec §1 Non-goals), so it carries
// no component dependency on anything it measures.
package monitoring

import (
	"sync"
	"time"
)

// MetricsCollector aggregates job execution counts/durations and AI
// provider usage. All methods are safe for concurrent use.
type MetricsCollector struct {
	mu         sync.RWMutex
	jobMetrics map[string]*JobTypeMetrics
	aiMetrics  AIMetrics
}

// JobTypeMetrics aggregates outcomes for one job_type.
type JobTypeMetrics struct {
	JobType         string        `json:"job_type"`
	ExecutionCount  int           `json:"execution_count"`
	SuccessCount    int           `json:"success_count"`
	FailureCount    int           `json:"failure_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastExecutionAt time.Time     `json:"last_execution_at"`
}

// AIMetrics aggregates AI provider usage across every call, mirroring the
// usual AIMetrics shape (cost estimation omitted — this system has no
// per-model pricing table and guessing one would be worse than omitting it).
type AIMetrics struct {
	TotalRequests    int           `json:"total_requests"`
	TotalTokens      int           `json:"total_tokens"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	AverageLatency   time.Duration `json:"average_latency"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{jobMetrics: make(map[string]*JobTypeMetrics)}
}

// RecordJobExecution records one completed or failed job run.
func (mc *MetricsCollector) RecordJobExecution(jobType string, duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, ok := mc.jobMetrics[jobType]
	if !ok {
		m = &JobTypeMetrics{JobType: jobType}
		mc.jobMetrics[jobType] = m
	}

	m.ExecutionCount++
	if success {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.ExecutionCount)
	m.LastExecutionAt = time.Now()
}

// RecordAIRequest records one AI provider call's token usage and latency.
func (mc *MetricsCollector) RecordAIRequest(promptTokens, completionTokens int, latency time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.aiMetrics.TotalRequests++
	mc.aiMetrics.PromptTokens += promptTokens
	mc.aiMetrics.CompletionTokens += completionTokens
	mc.aiMetrics.TotalTokens += promptTokens + completionTokens

	totalLatency := time.Duration(mc.aiMetrics.TotalRequests-1) * mc.aiMetrics.AverageLatency
	mc.aiMetrics.AverageLatency = (totalLatency + latency) / time.Duration(mc.aiMetrics.TotalRequests)
}

// JobTypeSnapshot returns a copy of the metrics for one job_type, or nil
// if no job of that type has executed yet.
func (mc *MetricsCollector) JobTypeSnapshot(jobType string) *JobTypeMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if m, ok := mc.jobMetrics[jobType]; ok {
		c := *m
		return &c
	}
	return nil
}

// AISnapshot returns a copy of the aggregate AI usage metrics.
func (mc *MetricsCollector) AISnapshot() AIMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.aiMetrics
}

// Summary aggregates every job_type's counters into totals.
type Summary struct {
	TotalJobTypes      int     `json:"total_job_types"`
	TotalExecutions    int     `json:"total_executions"`
	TotalSuccesses     int     `json:"total_successes"`
	TotalFailures      int     `json:"total_failures"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
	TotalAIRequests    int     `json:"total_ai_requests"`
	TotalAITokens      int     `json:"total_ai_tokens"`
}

func (mc *MetricsCollector) GetSummary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := Summary{TotalJobTypes: len(mc.jobMetrics)}
	for _, m := range mc.jobMetrics {
		s.TotalExecutions += m.ExecutionCount
		s.TotalSuccesses += m.SuccessCount
		s.TotalFailures += m.FailureCount
	}
	if s.TotalExecutions > 0 {
		s.OverallSuccessRate = float64(s.TotalSuccesses) / float64(s.TotalExecutions)
	}
	s.TotalAIRequests = mc.aiMetrics.TotalRequests
	s.TotalAITokens = mc.aiMetrics.TotalTokens
	return s
}
