package generator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/aiprovider"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

type fakeProvider struct{ content string }

func (f *fakeProvider) Complete(ctx context.Context, req aiprovider.CompletionRequest) (*aiprovider.CompletionResult, error) {
	return &aiprovider.CompletionResult{Content: f.content, Model: "gpt-4o", StopReason: "stop", IsComplete: true}, nil
}

func TestGenerate_RunsBlogTemplateAndSiblingContent(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now()
	article, err := domain.NewScrapedArticle("acct-1", nil, "Big News", "https://x/1", "full article text", nil, now)
	require.NoError(t, err)
	id, inserted, err := store.InsertArticle(context.Background(), article)
	require.NoError(t, err)
	require.True(t, inserted)
	article.ArticleID = id

	blog := &domain.PromptTemplate{AccountID: "acct-1", Name: "blog-post", Category: domain.BlogCategory, ExecutionOrder: 1, Active: true, ParsingMethod: domain.ParsingMethodText}
	store.AddTemplate(blog)
	store.AddVersion(&domain.PromptVersion{TemplateID: blog.TemplateID, VersionNumber: 1, PromptText: "Write about {article_content}", IsCurrent: true})
	blog.Current = &domain.PromptVersion{TemplateID: blog.TemplateID, IsCurrent: true}

	social := &domain.PromptTemplate{AccountID: "acct-1", Name: "social", Category: "social_media", ExecutionOrder: 2, Active: true, ParsingMethod: domain.ParsingMethodSocialMedia}
	store.AddTemplate(social)
	store.AddVersion(&domain.PromptVersion{TemplateID: social.TemplateID, VersionNumber: 1, PromptText: "Summarize {article_content} for social", IsCurrent: true})
	social.Current = &domain.PromptVersion{TemplateID: social.TemplateID, IsCurrent: true}

	g := New(store, &fakeProvider{content: "Generated body text"}, zerolog.Nop())

	genID, err := g.Generate(context.Background(), "acct-1", article, []*domain.PromptTemplate{blog, social})
	require.NoError(t, err)
	assert.NotEqual(t, genID.String(), "")
}

func TestGenerate_RefusesSecondConcurrentGeneration(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now()
	article, err := domain.NewScrapedArticle("acct-1", nil, "Title", "https://x/2", "text", nil, now)
	require.NoError(t, err)
	id, inserted, err := store.InsertArticle(context.Background(), article)
	require.NoError(t, err)
	require.True(t, inserted)
	article.ArticleID = id

	_, err = store.CreateDraftGeneratedArticle(context.Background(), &domain.GeneratedArticle{
		AccountID:        "acct-1",
		BasedOnArticleID: &article.ArticleID,
		Status:           domain.GeneratedArticleStatusDraft,
	})
	require.NoError(t, err)

	g := New(store, &fakeProvider{content: "x"}, zerolog.Nop())
	_, err = g.Generate(context.Background(), "acct-1", article, nil)
	assert.Error(t, err)
}
