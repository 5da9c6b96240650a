package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/property"
	"github.com/tendant/content-dimension/pkg/dimension/repo/memory"
	"github.com/tendant/content-dimension/pkg/dimension/search"
	searchmemory "github.com/tendant/content-dimension/pkg/dimension/search/memory"
)

var testIndexes = []search.IndexDefinition{
	{Name: "page", ResourceKey: "pages", Stage: dimension.StageDraft},
	{Name: "page_published", ResourceKey: "pages", Stage: dimension.StageLive},
	{Name: "article", ResourceKey: "articles", Stage: dimension.StageDraft},
	{Name: "article_published", ResourceKey: "articles", Stage: dimension.StageLive},
}

type fixture struct {
	repo    *memory.Repository
	engine  *searchmemory.Engine
	indexer *search.Indexer
}

func setupIndexer(t *testing.T) fixture {
	t.Helper()
	repo := memory.New()
	forms := metadata.NewRegistry(&metadata.FormMetadata{
		Key:   "default",
		Items: []metadata.FieldMetadata{{Name: "title", Type: "text_line"}},
	})

	aggregator, err := dimension.NewAggregator(repo)
	require.NoError(t, err)
	resolver, err := dimension.NewResolver(property.NewStandardProvider(forms), forms)
	require.NoError(t, err)

	engine := searchmemory.New()
	indexer, err := search.NewIndexer(aggregator, resolver, engine,
		search.WithIndexes(testIndexes...),
		search.WithLocales("en", "de"),
	)
	require.NoError(t, err)

	return fixture{repo: repo, engine: engine, indexer: indexer}
}

func TestNewIndexerValidation(t *testing.T) {
	_, err := search.NewIndexer(nil, nil, nil)
	assert.Error(t, err)

	aggregator, _ := dimension.NewAggregator(memory.New())
	forms := metadata.NewRegistry()
	resolver, _ := dimension.NewResolver(property.NewStandardProvider(forms), forms)
	_, err = search.NewIndexer(aggregator, resolver, searchmemory.New(),
		search.WithIndexes(search.IndexDefinition{Name: "x", ResourceKey: "pages", Stage: "published"}))
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	f := setupIndexer(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SaveDimension(ctx, &dimension.DimensionContent{
		ResourceKey: "pages", ResourceID: "1", Locale: "en", Stage: dimension.StageLive,
		TemplateKey: "default", Data: map[string]any{"title": "Hello"},
	}))

	dc, err := f.indexer.Index(ctx, dimension.NewReference("pages", "1"), dimension.Attributes{Locale: "en", Stage: dimension.StageLive})
	require.NoError(t, err)
	assert.True(t, dc.IsMerged())

	assert.Empty(t, f.engine.Documents("page"))
	require.Equal(t, []string{"pages-1-en"}, f.engine.Documents("page_published"))

	doc, err := f.engine.Get(ctx, "page_published", "pages-1-en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Content["title"])
	assert.Equal(t, dimension.StageLive, doc.Stage)
}

func TestIndexNotFound(t *testing.T) {
	f := setupIndexer(t)

	_, err := f.indexer.Index(context.Background(), dimension.NewReference("pages", "missing"), dimension.Attributes{Locale: "en"})
	assert.True(t, dimension.IsNotFound(err))
	assert.Empty(t, f.engine.Documents("page"))
}

func TestDeindexGrouping(t *testing.T) {
	f := setupIndexer(t)

	require.NoError(t, f.indexer.Deindex(context.Background(), "pages", "1", nil))

	deletions := f.engine.Deletions()
	assert.ElementsMatch(t, []searchmemory.Deletion{
		{Index: "page", DocumentID: "pages-1-en"},
		{Index: "page", DocumentID: "pages-1-de"},
		{Index: "page_published", DocumentID: "pages-1-en"},
		{Index: "page_published", DocumentID: "pages-1-de"},
	}, deletions)
	for _, d := range deletions {
		assert.NotContains(t, d.Index, "article")
	}
}

func TestDeindexFiltered(t *testing.T) {
	tests := []struct {
		name  string
		attrs *dimension.Attributes
		want  []searchmemory.Deletion
	}{
		{
			name:  "locale",
			attrs: &dimension.Attributes{Locale: "de"},
			want: []searchmemory.Deletion{
				{Index: "article", DocumentID: "articles-7-de"},
				{Index: "article_published", DocumentID: "articles-7-de"},
			},
		},
		{
			name:  "stage",
			attrs: &dimension.Attributes{Stage: dimension.StageLive},
			want: []searchmemory.Deletion{
				{Index: "article_published", DocumentID: "articles-7-en"},
				{Index: "article_published", DocumentID: "articles-7-de"},
			},
		},
		{
			name:  "locale and stage",
			attrs: &dimension.Attributes{Locale: "en", Stage: dimension.StageDraft},
			want:  []searchmemory.Deletion{{Index: "article", DocumentID: "articles-7-en"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupIndexer(t)
			require.NoError(t, f.indexer.Deindex(context.Background(), "articles", "7", tt.attrs))
			assert.ElementsMatch(t, tt.want, f.engine.Deletions())
		})
	}
}

func TestDeindexRemovesIndexedDocument(t *testing.T) {
	f := setupIndexer(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SaveDimension(ctx, &dimension.DimensionContent{
		ResourceKey: "pages", ResourceID: "1", Locale: "en", Stage: dimension.StageDraft,
		TemplateKey: "default", Data: map[string]any{"title": "Hello"},
	}))

	_, err := f.indexer.Index(ctx, dimension.NewReference("pages", "1"), dimension.Attributes{Locale: "en"})
	require.NoError(t, err)
	require.Len(t, f.engine.Documents("page"), 1)

	require.NoError(t, f.indexer.Deindex(ctx, "pages", "1", nil))
	assert.Empty(t, f.engine.Documents("page"))
}
