// Package aiprovider implements the AI Provider Adapter (C2): a thin,
// swappable wrapper around go-openai with circuit breaking and usage
// accounting, built the way an OpenAICompletionExecutor wraps
// go-openai in internal/application/executor/node_executors.go.
package aiprovider

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// CompletionRequest is the provider-agnostic shape the rest of the system
// calls through (spec §4.2). SystemMessage is optional.
type CompletionRequest struct {
	Model         string
	SystemMessage string
	Prompt        string
	Temperature   float64
	MaxTokens     int
}

// CompletionResult carries the outcome plus the bookkeeping the Content
// Generator (C6) needs to populate an AIResponseLog row (spec §3).
type CompletionResult struct {
	Content      string
	Model        string
	TokensInput  int
	TokensOutput int
	TokensTotal  int
	DurationMs   int64
	StopReason   string
	IsComplete   bool
	IsTruncated  bool
}

// Provider is the AI Provider Adapter's public surface. Every call is
// synchronous and returns a typed cferrors.ProviderError on failure so
// callers can distinguish retriable transport errors from fatal ones
// (spec §4.2, §7).
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// OpenAIProvider is the production Provider backed by go-openai, guarded
// by a CircuitBreaker per spec §4.2's resilience requirement.
type OpenAIProvider struct {
	client  *openai.Client
	breaker *CircuitBreaker
	logger  zerolog.Logger
}

// NewOpenAIProvider builds a Provider. apiKey is required; the caller
// resolves it the same way node-level API keys are resolved
// (config, then environment) before constructing this.
func NewOpenAIProvider(apiKey string, breakerConfig CircuitBreakerConfig, logger zerolog.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		breaker: NewCircuitBreaker(breakerConfig),
		logger:  logger,
	}
}

// Complete calls the chat completion endpoint. It does NOT retry on
// truncation, safety refusal, or any other content-shaped outcome — those
// are reported as-is so the Content Generator can decide what "success"
// means for its template (spec §4.2 "never silently retry a truncated or
// safety-filtered completion").
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if !p.breaker.Allow() {
		return nil, cferrors.NewRetriableProviderError("ai provider circuit breaker is open", nil)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	model := req.Model
	if model == "" {
		model = openai.GPT4o
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	latency := time.Since(start)

	if err != nil {
		p.breaker.RecordFailure()
		p.logger.Warn().Err(err).Str("model", model).Msg("ai provider call failed")
		if isTimeout(err) {
			return nil, cferrors.NewProviderTimeoutError(err.Error(), err)
		}
		return nil, cferrors.NewRetriableProviderError(err.Error(), err)
	}

	if len(resp.Choices) == 0 {
		p.breaker.RecordFailure()
		return nil, cferrors.NewFatalProviderError("provider returned no choices", nil)
	}
	p.breaker.RecordSuccess()

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	stopReason := string(choice.FinishReason)

	return &CompletionResult{
		Content:      content,
		Model:        resp.Model,
		TokensInput:  resp.Usage.PromptTokens,
		TokensOutput: resp.Usage.CompletionTokens,
		TokensTotal:  resp.Usage.TotalTokens,
		DurationMs:   latency.Milliseconds(),
		StopReason:   stopReason,
		IsComplete:   stopReason == string(openai.FinishReasonStop),
		IsTruncated:  stopReason == string(openai.FinishReasonLength),
	}, nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if t, ok := err.(timeouter); ok {
		return t.Timeout()
	}
	return strings.Contains(err.Error(), "context deadline exceeded") || strings.Contains(err.Error(), "timeout")
}
