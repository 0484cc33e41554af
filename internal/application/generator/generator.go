// Package generator implements the Content Generator (C6): running a
// tenant's ordered templates over one analysed article, producing a draft
// GeneratedArticle plus sibling GeneratedContent rows and their
// AIResponseLog provenance. Grounded on
// internal/application/executor/template.go substitution engine and
// json_parser.go-style dispatch, restructured around this domain's
// generation-context placeholders instead of node configs.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/domain/cferrors"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
)

const defaultTemperature = 0.7

// Generator runs the content-generation protocol for one article against
// a tenant's resolved template list.
type Generator struct {
	store    domain.Storage
	provider aiprovider.Provider
	logger   zerolog.Logger
}

func New(store domain.Storage, provider aiprovider.Provider, logger zerolog.Logger) *Generator {
	return &Generator{store: store, provider: provider, logger: logger}
}

// Generate runs spec §4.6's protocol for one article: create the draft,
// run each template in execution order substituting prior outputs into
// the generation context, and transition to review_pending on success.
// It refuses to start a second concurrent generation for the same
// article (spec §4.6 "at-most-one per article").
func (g *Generator) Generate(ctx context.Context, accountID string, article *domain.ScrapedArticle, templates []*domain.PromptTemplate) (uuid.UUID, error) {
	inProgress, err := g.store.HasInProgressGeneration(ctx, accountID, article.ArticleID)
	if err != nil {
		return uuid.Nil, err
	}
	if inProgress {
		return uuid.Nil, cferrors.NewValidationError("based_on_article_id", "a generation is already in progress for this article")
	}

	draft := &domain.GeneratedArticle{
		AccountID:        accountID,
		BasedOnArticleID: &article.ArticleID,
		Status:           domain.GeneratedArticleStatusDraft,
		CreatedAt:        time.Now(),
	}
	genArticleID, err := g.store.CreateDraftGeneratedArticle(ctx, draft)
	if err != nil {
		return uuid.Nil, err
	}
	draft.GenArticleID = genArticleID

	vars := initialContext(article)

	// TODO: once templates carry a depends_on field, a failed dependency
	// should skip its dependents instead of running them with an empty
	// placeholder. Every template currently runs regardless.
	for _, tmpl := range templates {
		if err := g.runTemplate(ctx, accountID, draft, tmpl, vars); err != nil {
			g.logger.Warn().Err(err).Int64("template_id", tmpl.TemplateID).Str("gen_article_id", genArticleID.String()).Msg("template step failed, continuing")
			vars[outputKey(tmpl)] = ""
			continue
		}
	}

	if err := g.store.TransitionGeneratedArticleStatus(ctx, accountID, genArticleID, domain.GeneratedArticleStatusReviewPending); err != nil {
		return genArticleID, err
	}
	return genArticleID, nil
}

// runTemplate executes one template's generation step and records its
// provenance, per spec §4.6 steps 2a-2e.
func (g *Generator) runTemplate(ctx context.Context, accountID string, draft *domain.GeneratedArticle, tmpl *domain.PromptTemplate, vars map[string]string) error {
	if tmpl.Current == nil {
		return domain.ErrNoCurrentVersion
	}

	prompt := substitute(tmpl.Current.PromptText, vars)
	systemMessage := substitute(tmpl.Current.SystemMessage, vars)

	maxTokens := maxOutputTokens(tmpl)

	result, err := g.provider.Complete(ctx, aiprovider.CompletionRequest{
		Model:         "", // empty: the provider falls back to its built-in default (gpt-4o)
		SystemMessage: systemMessage,
		Prompt:        prompt,
		Temperature:   defaultTemperature,
		MaxTokens:     maxTokens,
	})

	log := &domain.AIResponseLog{
		GeneratedArticleID: draft.GenArticleID,
		TemplateID:         tmpl.TemplateID,
		VersionID:          tmpl.Current.VersionID,
		Category:           tmpl.Category,
		Provider:           "openai",
		PromptText:         prompt,
		SystemMessage:      systemMessage,
		Temperature:        defaultTemperature,
		MaxOutputTokens:    maxTokens,
		CreatedAt:          time.Now(),
	}

	if err != nil {
		log.Success = false
		log.Error = err.Error()
		if logErr := g.store.InsertAIResponseLog(ctx, log); logErr != nil {
			g.logger.Error().Err(logErr).Msg("failed to persist AI response log for failed call")
		}
		return err
	}

	parsed := Parse(tmpl.ParsingMethod, result.Content)

	log.Model = result.Model
	log.ResponseText = result.Content
	log.TokensInput = result.TokensInput
	log.TokensOutput = result.TokensOutput
	log.TokensTotal = result.TokensTotal
	log.DurationMs = result.DurationMs
	log.StopReason = result.StopReason
	log.IsComplete = result.IsComplete
	log.IsTruncated = result.IsTruncated
	log.Success = true
	log.Warning = parsed.Warning

	vars[outputKey(tmpl)] = parsed.RawText

	if tmpl.IsMain() {
		title := vars["article_title"]
		if err := g.store.UpdateGeneratedArticleBody(ctx, accountID, draft.GenArticleID, title, parsed.RawText); err != nil {
			return err
		}
	} else {
		content := &domain.GeneratedContent{
			AccountID:           accountID,
			BasedOnGenArticleID: draft.GenArticleID,
			PromptCategory:      tmpl.Category,
			ContentData:         parsed.Data,
			Status:              "generated",
			CreatedAt:           time.Now(),
		}
		if err := g.store.InsertGeneratedContent(ctx, content); err != nil {
			return err
		}
	}

	return g.store.InsertAIResponseLog(ctx, log)
}

func initialContext(article *domain.ScrapedArticle) map[string]string {
	return map[string]string{
		"article_content": article.FullText,
		"article_title":   article.Title,
		"article_summary": article.Summary,
	}
}

// outputKey names the generation-context placeholder a template's output
// fills for subsequent templates, e.g. {social_media_output} for the
// "social_media" category (spec §4.6 step 2a).
func outputKey(tmpl *domain.PromptTemplate) string {
	return fmt.Sprintf("%s_output", tmpl.Category)
}

func maxOutputTokens(tmpl *domain.PromptTemplate) int {
	if v, ok := tmpl.UIConfig["max_output_tokens"]; ok {
		if n, ok := v.(float64); ok && n > 0 {
			return int(n)
		}
	}
	return 1500
}
