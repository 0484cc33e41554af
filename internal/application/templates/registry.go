// Package templates implements the Template Registry (C5): resolving a
// tenant's ordered active templates, each with its current version,
// falling back to global templates where the tenant has none of its own.
// Grounded on internal/application/executor/template.go
// TemplateProcessor, adapted from node-template substitution to
// tenant/global template resolution.
package templates

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/domain"
)

// defaultUIConfig is substituted whenever a template's ui_config is
// missing or empty, per spec §4.5: "a malformed blob degrades to a
// sensible default and logs a warning, never aborts."
var defaultUIConfig = map[string]any{"layout": "default"}

// Registry resolves PromptTemplates for generation.
type Registry struct {
	store  domain.TemplateRepository
	logger zerolog.Logger
}

func New(store domain.TemplateRepository, logger zerolog.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Resolve returns the ordered, current-version-bearing templates for
// accountID (tenant templates, with global templates filling in where the
// tenant has none of that name — spec §4.5). Templates without a current
// version are refused rather than returned, per the same invariant.
func (r *Registry) Resolve(ctx context.Context, accountID string) ([]*domain.PromptTemplate, error) {
	raw, err := r.store.ListActiveTemplatesWithCurrentVersion(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.PromptTemplate, 0, len(raw))
	for _, t := range raw {
		if t.Current == nil {
			r.logger.Warn().Int64("template_id", t.TemplateID).Str("name", t.Name).Msg("template has no current version, refusing to return it")
			continue
		}
		if len(t.UIConfig) == 0 {
			r.logger.Warn().Int64("template_id", t.TemplateID).Msg("template ui_config missing or malformed, using default")
			t.UIConfig = defaultUIConfig
		}
		out = append(out, t)
	}
	return out, nil
}

// SetCurrentVersion promotes versionID to current for templateID,
// demoting any previously current version (spec §3's "exactly one current
// version" invariant, enforced transactionally at the storage layer).
func (r *Registry) SetCurrentVersion(ctx context.Context, templateID, versionID int64) error {
	return r.store.SetCurrentVersion(ctx, templateID, versionID)
}
