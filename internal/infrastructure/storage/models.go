// Package storage implements the Persistence Store (C1): a BunStore
// backed by Postgres for production, and a MemoryStore for tests, both
// satisfying domain.Storage. Modeled on the bun struct-tag conventions of
// internal/infrastructure/storage/bun_store.go and memory.go.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/smilemakc/contentforge/internal/domain"
)

type NewsSourceModel struct {
	bun.BaseModel `bun:"table:news_sources,alias:ns"`

	SourceID      int64      `bun:"source_id,pk,autoincrement"`
	AccountID     string     `bun:"account_id,notnull"`
	Name          string     `bun:"name,notnull"`
	HomepageURL   string     `bun:"homepage_url,notnull"`
	FeedURL       string     `bun:"feed_url"`
	Active        bool       `bun:"active,notnull,default:true"`
	LastCheckedAt *time.Time `bun:"last_checked_at"`
}

func newsSourceFromModel(m *NewsSourceModel) *domain.NewsSource {
	return &domain.NewsSource{
		SourceID:      m.SourceID,
		AccountID:     m.AccountID,
		Name:          m.Name,
		HomepageURL:   m.HomepageURL,
		FeedURL:       m.FeedURL,
		Active:        m.Active,
		LastCheckedAt: m.LastCheckedAt,
	}
}

func newsSourceToModel(s *domain.NewsSource) *NewsSourceModel {
	return &NewsSourceModel{
		SourceID:      s.SourceID,
		AccountID:     s.AccountID,
		Name:          s.Name,
		HomepageURL:   s.HomepageURL,
		FeedURL:       s.FeedURL,
		Active:        s.Active,
		LastCheckedAt: s.LastCheckedAt,
	}
}

type ArticleModel struct {
	bun.BaseModel `bun:"table:scraped_articles,alias:a"`

	ArticleID      int64      `bun:"article_id,pk,autoincrement"`
	AccountID      string     `bun:"account_id,notnull"`
	SourceID       *int64     `bun:"source_id"`
	Title          string     `bun:"title,notnull"`
	URL            string     `bun:"url,notnull"`
	PublishedAt    *time.Time `bun:"published_at"`
	FullText       string     `bun:"full_text,notnull"`
	Status         string     `bun:"status,notnull"`
	Summary        string     `bun:"summary"`
	Keywords       []string   `bun:"keywords,type:jsonb"`
	RelevanceScore *float64   `bun:"relevance_score"`
	ScrapedAt      time.Time  `bun:"scraped_at,notnull"`
}

func articleFromModel(m *ArticleModel) *domain.ScrapedArticle {
	return &domain.ScrapedArticle{
		ArticleID:      m.ArticleID,
		AccountID:      m.AccountID,
		SourceID:       m.SourceID,
		Title:          m.Title,
		URL:            m.URL,
		PublishedAt:    m.PublishedAt,
		FullText:       m.FullText,
		Status:         domain.ArticleStatus(m.Status),
		Summary:        m.Summary,
		Keywords:       m.Keywords,
		RelevanceScore: m.RelevanceScore,
		ScrapedAt:      m.ScrapedAt,
	}
}

func articleToModel(a *domain.ScrapedArticle) *ArticleModel {
	return &ArticleModel{
		ArticleID:      a.ArticleID,
		AccountID:      a.AccountID,
		SourceID:       a.SourceID,
		Title:          a.Title,
		URL:            a.URL,
		PublishedAt:    a.PublishedAt,
		FullText:       a.FullText,
		Status:         string(a.Status),
		Summary:        a.Summary,
		Keywords:       a.Keywords,
		RelevanceScore: a.RelevanceScore,
		ScrapedAt:      a.ScrapedAt,
	}
}

type PromptTemplateModel struct {
	bun.BaseModel `bun:"table:prompt_templates,alias:t"`

	TemplateID     int64          `bun:"template_id,pk,autoincrement"`
	AccountID      string         `bun:"account_id,notnull"`
	Name           string         `bun:"name,notnull"`
	Category       string         `bun:"category,notnull"`
	ExecutionOrder int            `bun:"execution_order,notnull"`
	MediaType      string         `bun:"media_type,notnull"`
	ParsingMethod  string         `bun:"parsing_method,notnull"`
	UIConfig       map[string]any `bun:"ui_config,type:jsonb"`
	Active         bool           `bun:"active,notnull,default:true"`
}

type PromptVersionModel struct {
	bun.BaseModel `bun:"table:prompt_versions,alias:pv"`

	VersionID     int64     `bun:"version_id,pk,autoincrement"`
	TemplateID    int64     `bun:"template_id,notnull"`
	VersionNumber int       `bun:"version_number,notnull"`
	PromptText    string    `bun:"prompt_text,notnull"`
	SystemMessage string    `bun:"system_message"`
	IsCurrent     bool      `bun:"is_current,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type GeneratedArticleModel struct {
	bun.BaseModel `bun:"table:generated_articles,alias:ga"`

	GenArticleID     uuid.UUID `bun:"gen_article_id,pk,type:uuid"`
	AccountID        string    `bun:"account_id,notnull"`
	BasedOnArticleID *int64    `bun:"based_on_article_id"`
	Title            string    `bun:"title"`
	Body             string    `bun:"body"`
	Status           string    `bun:"status,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

type GeneratedContentModel struct {
	bun.BaseModel `bun:"table:generated_content,alias:gc"`

	ContentID           uuid.UUID      `bun:"content_id,pk,type:uuid"`
	AccountID           string         `bun:"account_id,notnull"`
	BasedOnGenArticleID uuid.UUID      `bun:"based_on_gen_article_id,notnull,type:uuid"`
	PromptCategory      string         `bun:"prompt_category,notnull"`
	ContentData         map[string]any `bun:"content_data,type:jsonb"`
	Metadata            map[string]any `bun:"metadata,type:jsonb"`
	Status              string         `bun:"status,notnull"`
	CreatedAt           time.Time      `bun:"created_at,notnull"`
}

type AIResponseLogModel struct {
	bun.BaseModel `bun:"table:ai_response_logs,alias:al"`

	LogID              uuid.UUID      `bun:"log_id,pk,type:uuid"`
	GeneratedArticleID uuid.UUID      `bun:"generated_article_id,notnull,type:uuid"`
	TemplateID         int64          `bun:"template_id"`
	VersionID          int64          `bun:"version_id"`
	Category           string         `bun:"category"`
	Provider           string         `bun:"provider"`
	Model              string         `bun:"model"`
	PromptText         string         `bun:"prompt_text"`
	SystemMessage      string         `bun:"system_message"`
	ResponseText       string         `bun:"response_text"`
	TokensInput        int            `bun:"tokens_input"`
	TokensOutput       int            `bun:"tokens_output"`
	TokensTotal        int            `bun:"tokens_total"`
	DurationMs         int64          `bun:"duration_ms"`
	Temperature        float64        `bun:"temperature"`
	MaxOutputTokens    int            `bun:"max_output_tokens"`
	StopReason         string         `bun:"stop_reason"`
	IsComplete         bool           `bun:"is_complete"`
	IsTruncated        bool           `bun:"is_truncated"`
	SafetyRatings      map[string]any `bun:"safety_ratings,type:jsonb"`
	Success            bool           `bun:"success"`
	Error              string         `bun:"error"`
	Warning            string         `bun:"warning"`
	CreatedAt          time.Time      `bun:"created_at,notnull"`
}

type JobModel struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	JobID          uuid.UUID      `bun:"job_id,pk,type:uuid"`
	AccountID      string         `bun:"account_id,notnull"`
	JobType        string         `bun:"job_type,notnull"`
	Status         string         `bun:"status,notnull"`
	Priority       int            `bun:"priority,notnull"`
	Payload        map[string]any `bun:"payload,type:jsonb"`
	Results        map[string]any `bun:"results,type:jsonb"`
	Error          string         `bun:"error"`
	ProgressPct    int            `bun:"progress_pct,notnull"`
	ProgressDetail string         `bun:"progress_detail"`
	RetryCount     int            `bun:"retry_count,notnull"`
	MaxRetries     int            `bun:"max_retries,notnull"`
	WorkerID       string         `bun:"worker_id"`
	CreatedBy      string         `bun:"created_by"`
	CreatedAt      time.Time      `bun:"created_at,notnull"`
	StartedAt      *time.Time     `bun:"started_at"`
	CompletedAt    *time.Time     `bun:"completed_at"`
	UpdatedAt      time.Time      `bun:"updated_at,notnull"`
}

type JobLogModel struct {
	bun.BaseModel `bun:"table:job_logs,alias:jl"`

	LogID     uuid.UUID      `bun:"log_id,pk,type:uuid"`
	JobID     *uuid.UUID     `bun:"job_id,type:uuid"`
	AccountID *string        `bun:"account_id"`
	Level     string         `bun:"level,notnull"`
	Message   string         `bun:"message,notnull"`
	Source    string         `bun:"source"`
	Metadata  map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,notnull"`
}

type SettingsModel struct {
	bun.BaseModel `bun:"table:tenant_settings,alias:s"`

	AccountID string         `bun:"account_id,pk"`
	Key       string         `bun:"key,pk"`
	Value     map[string]any `bun:"value,type:jsonb"`
	UpdatedAt time.Time      `bun:"updated_at,notnull"`
}
