package domain

import (
	"time"

	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// GlobalAccountID is the fallback tenant used for templates shared across
// every account (spec §4.5). Tenant templates take precedence over it.
const GlobalAccountID = "global"

// MediaType is the bit-exact media-type vocabulary of spec §3.
type MediaType string

const (
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ParsingMethod selects how Content Generator (C6) interprets an AI
// response for a template (spec §3, §4.6). Categories and parsing methods
// are free-form strings, not a closed enum (spec §4.5) — these constants
// name the ones this implementation understands; any other value falls
// through to ParsingMethodText.
type ParsingMethod string

const (
	ParsingMethodText         ParsingMethod = "text"
	ParsingMethodSocialMedia  ParsingMethod = "social_media_json"
	ParsingMethodVideoScript  ParsingMethod = "video_script_json"
	ParsingMethodPrayerPoints ParsingMethod = "prayer_points_list"
	ParsingMethodImagePrompts ParsingMethod = "image_prompt_list"
)

// BlogCategory is the designated "main" template category that updates
// the draft GeneratedArticle rather than writing a GeneratedContent
// sibling (spec §4.6 step 2d).
const BlogCategory = "blog"

// PromptTemplate is a tenant- (or global-) scoped step in the content
// generation graph (spec §3).
type PromptTemplate struct {
	TemplateID     int64
	AccountID      string
	Name           string
	Category       string
	ExecutionOrder int
	MediaType      MediaType
	ParsingMethod  ParsingMethod
	UIConfig       map[string]any
	Active         bool

	// Current is the one PromptVersion with IsCurrent = true. The
	// registry refuses to return a template without one (spec §4.5).
	Current *PromptVersion
}

// IsMain reports whether this template owns the draft GeneratedArticle
// body rather than writing a sibling GeneratedContent row.
func (t *PromptTemplate) IsMain() bool {
	return t.Category == BlogCategory
}

// PromptVersion is one revision of a template's prompt text (spec §3).
type PromptVersion struct {
	VersionID     int64
	TemplateID    int64
	VersionNumber int
	PromptText    string
	SystemMessage string
	IsCurrent     bool
	CreatedAt     time.Time
}

// ErrNoCurrentVersion is returned by the Content Generator's per-template
// step when a template has no current version — a data-corruption
// condition (spec §7), since there is nothing to render. The registry
// itself does not return it: it drops such templates and logs a warning.
var ErrNoCurrentVersion = cferrors.NewConfigurationError("template_registry", "template has no current version")
