package domain

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedArticleStatus is the bit-exact status vocabulary of spec §6.
type GeneratedArticleStatus string

const (
	GeneratedArticleStatusDraft          GeneratedArticleStatus = "draft"
	GeneratedArticleStatusReviewPending  GeneratedArticleStatus = "review_pending"
	GeneratedArticleStatusApproved       GeneratedArticleStatus = "approved"
	GeneratedArticleStatusArchived       GeneratedArticleStatus = "archived"
	GeneratedArticleStatusRejected       GeneratedArticleStatus = "rejected"
	GeneratedArticleStatusPublished      GeneratedArticleStatus = "published"
)

// GeneratedArticle is the "main" artifact of one Content Generator run
// (spec §3, §4.6). It owns sibling GeneratedContent rows and the
// AIResponseLog rows produced while generating them.
type GeneratedArticle struct {
	GenArticleID      uuid.UUID
	AccountID         string
	BasedOnArticleID  *int64
	Title             string
	Body              string
	Status            GeneratedArticleStatus
	CreatedAt         time.Time
}

// InProgressStatuses are the statuses that block a second generation for
// the same source article (spec §4.6 "at-most-one per article").
func InProgressStatuses() []GeneratedArticleStatus {
	return []GeneratedArticleStatus{GeneratedArticleStatusDraft, GeneratedArticleStatusReviewPending}
}

// GeneratedContent is a sibling artifact of a GeneratedArticle — a social
// post, video script, prayer points list, image prompt set, etc. (spec
// §3). ContentData's shape is governed by its template's ParsingMethod.
type GeneratedContent struct {
	ContentID           uuid.UUID
	AccountID           string
	BasedOnGenArticleID uuid.UUID
	PromptCategory      string
	ContentData         map[string]any
	Metadata            map[string]any
	Status              string
	CreatedAt           time.Time
}

// AIResponseLog is the append-only provenance record for a single AI call
// (spec §3, §8: "exactly one AIResponseLog row whose tokens_total =
// tokens_input + tokens_output").
type AIResponseLog struct {
	LogID              uuid.UUID
	GeneratedArticleID uuid.UUID
	TemplateID         int64
	VersionID          int64
	Category           string
	Provider           string
	Model              string
	PromptText         string
	SystemMessage      string
	ResponseText       string
	TokensInput        int
	TokensOutput       int
	TokensTotal        int
	DurationMs         int64
	Temperature        float64
	MaxOutputTokens    int
	StopReason         string
	IsComplete         bool
	IsTruncated        bool
	SafetyRatings      map[string]any
	Success            bool
	Error              string
	Warning            string
	CreatedAt          time.Time
}
