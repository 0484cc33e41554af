package templates

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/infrastructure/storage"
)

func TestResolve_SkipsTemplatesWithoutCurrentVersion(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddTemplate(&domain.PromptTemplate{AccountID: "acct-1", Name: "no-version", ExecutionOrder: 1, Active: true})

	reg := New(store, zerolog.Nop())
	out, err := reg.Resolve(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolve_MissingUIConfigGetsDefault(t *testing.T) {
	store := storage.NewMemoryStore()
	tpl := &domain.PromptTemplate{AccountID: "acct-1", Name: "blog", ExecutionOrder: 1, Active: true}
	store.AddTemplate(tpl)
	store.AddVersion(&domain.PromptVersion{TemplateID: tpl.TemplateID, VersionNumber: 1, PromptText: "hi", IsCurrent: true})

	reg := New(store, zerolog.Nop())
	out, err := reg.Resolve(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, defaultUIConfig, out[0].UIConfig)
}
