package dimension_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/property"
)

var (
	textBlockForm = &metadata.FormMetadata{
		Key: "text_block",
		Items: []metadata.FieldMetadata{
			{Name: "title", Type: "text_line"},
			{Name: "image", Type: property.TypeSingleMediaSelection},
		},
	}
	articleForm = &metadata.FormMetadata{
		Key: "article",
		Items: []metadata.FieldMetadata{
			{Name: "title", Type: "text_line"},
			{Name: "link", Type: property.TypeLink},
			{Name: "teasers", Type: property.TypeTeaserSelection},
			{
				Name: "details",
				Type: metadata.TypeSection,
				Items: []metadata.FieldMetadata{
					{Name: "images", Type: property.TypeMediaSelection},
					{Name: "blocks", Type: property.TypeBlock, Types: []*metadata.FormMetadata{textBlockForm}},
				},
			},
		},
	}
	seoForm = &metadata.FormMetadata{
		Key:   "seo",
		Items: []metadata.FieldMetadata{{Name: "title", Type: "text_line"}},
	}
)

func articleContent() *dimension.DimensionContent {
	dc := &dimension.DimensionContent{
		ResourceKey: "articles",
		ResourceID:  "1",
		Locale:      "en",
		Stage:       dimension.StageDraft,
		TemplateKey: "article",
		Data: map[string]any{
			"title": "Hello",
			"link":  map[string]any{"href": "42", "provider": "page", "anchor": "top"},
			"teasers": map[string]any{"items": []any{
				map[string]any{"id": "123", "type": "article", "title": "Local title"},
			}},
			"images": map[string]any{"ids": []any{"m1", "m2"}},
			"blocks": []any{
				map[string]any{"type": "text_block", "title": "First", "image": map[string]any{"id": "m2"}},
				map[string]any{"type": "text_block", "title": "Second", "image": map[string]any{"id": "m3"}},
			},
			"ignored": "not declared",
		},
		Extensions: map[string]map[string]any{"seo": {"title": "SEO title"}},
	}
	dc.MarkMerged()
	return dc
}

type countingLoader struct {
	mu    sync.Mutex
	calls [][]string
	inner dimension.ResourceLoader
}

func (c *countingLoader) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), ids...))
	c.mu.Unlock()
	return c.inner.Load(ctx, ids, locale)
}

type testLoaders struct {
	media  *countingLoader
	link   *countingLoader
	teaser *countingLoader
}

func newTestResolver(t *testing.T, opts ...dimension.ResolverOption) (*dimension.Resolver, testLoaders) {
	t.Helper()
	forms := metadata.NewRegistry(articleForm, textBlockForm, seoForm)

	links := loader.NewLinkLoader(nil)
	links.Register("page", loader.LinkProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.LinkItem, error) {
		items := make([]*loader.LinkItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, &loader.LinkItem{ID: id, URL: "/" + locale + "/page-" + id})
		}
		return items, nil
	}))

	loaders := testLoaders{
		media: &countingLoader{inner: loader.NewStaticLoader(map[string]any{
			"m1": map[string]any{"url": "/media/m1.jpg"},
			"m2": map[string]any{"url": "/media/m2.jpg"},
		})},
		link: &countingLoader{inner: links},
		teaser: &countingLoader{inner: loader.NewStaticLoader(map[string]any{
			"article::123": map[string]any{"title": "Loaded title", "description": "Loaded description"},
		})},
	}

	options := append([]dimension.ResolverOption{
		dimension.WithResourceLoader(loader.KeyMedia, loaders.media),
		dimension.WithResourceLoader(loader.KeyLink, loaders.link),
		dimension.WithResourceLoader(loader.KeyTeaser, loaders.teaser),
		dimension.WithExtension("seo", "seo"),
	}, opts...)

	resolver, err := dimension.NewResolver(property.NewStandardProvider(forms), forms, options...)
	require.NoError(t, err)
	return resolver, loaders
}

func TestNewResolver(t *testing.T) {
	forms := metadata.NewRegistry()
	_, err := dimension.NewResolver(nil, forms)
	assert.Error(t, err)
	_, err = dimension.NewResolver(property.NewStandardProvider(forms), nil)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	resolver, loaders := newTestResolver(t)

	result, err := resolver.Resolve(context.Background(), articleContent())
	require.NoError(t, err)

	assert.Equal(t, "Hello", result.Content["title"])
	assert.Equal(t, "/en/page-42#top", result.Content["link"])
	assert.Equal(t, "top", result.View["link"].(map[string]any)["anchor"])
	assert.NotContains(t, result.Content, "ignored")

	teasers := result.Content["teasers"].([]any)
	require.Len(t, teasers, 1)
	assert.Equal(t, map[string]any{"title": "Local title", "description": "Loaded description"}, teasers[0])

	assert.Equal(t, []any{
		map[string]any{"url": "/media/m1.jpg"},
		map[string]any{"url": "/media/m2.jpg"},
	}, result.Content["images"])

	blocks := result.Content["blocks"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, map[string]any{
		"type":  "text_block",
		"title": "First",
		"image": map[string]any{"url": "/media/m2.jpg"},
	}, blocks[0])
	assert.Nil(t, blocks[1].(map[string]any)["image"], "unknown media resolves to nil")

	blockViews := result.View["blocks"].([]any)
	require.Len(t, blockViews, 2)
	assert.Equal(t, "text_block", blockViews[0].(map[string]any)["type"])

	require.Contains(t, result.Extensions, "seo")
	assert.Equal(t, "SEO title", result.Extensions["seo"].Content["title"])

	// One batch per loader key, ids deduplicated and sorted
	require.Len(t, loaders.media.calls, 1)
	assert.Equal(t, []string{"m1", "m2", "m3"}, loaders.media.calls[0])
	require.Len(t, loaders.link.calls, 1)
	assert.Equal(t, []string{"page::42"}, loaders.link.calls[0])
	require.Len(t, loaders.teaser.calls, 1)
}

func TestResolveOutputIsPlain(t *testing.T) {
	resolver, _ := newTestResolver(t)

	result, err := resolver.Resolve(context.Background(), articleContent())
	require.NoError(t, err)

	var walk func(v any)
	walk = func(v any) {
		switch tv := v.(type) {
		case dimension.ContentView, *dimension.ResolvableResource:
			t.Fatalf("unresolved value %T in output", v)
		case map[string]any:
			for _, item := range tv {
				walk(item)
			}
		case []any:
			for _, item := range tv {
				walk(item)
			}
		}
	}
	walk(result.Content)
	walk(result.View)

	_, err = json.Marshal(result)
	assert.NoError(t, err)
}

func TestResolveIdempotent(t *testing.T) {
	resolver, _ := newTestResolver(t)
	dc := articleContent()

	first, err := resolver.Resolve(context.Background(), dc)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), dc)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.View, second.View)
	assert.Equal(t, first.Extensions, second.Extensions)
}

func TestResolvePreconditions(t *testing.T) {
	resolver, _ := newTestResolver(t)

	notMerged := &dimension.DimensionContent{ResourceKey: "articles", ResourceID: "1", Locale: "en", TemplateKey: "article"}
	_, err := resolver.Resolve(context.Background(), notMerged)
	assert.ErrorIs(t, err, dimension.ErrNotMerged)

	noLocale := articleContent()
	noLocale.Locale = ""
	_, err = resolver.Resolve(context.Background(), noLocale)
	assert.ErrorIs(t, err, dimension.ErrMissingLocale)

	unknownTemplate := articleContent()
	unknownTemplate.TemplateKey = "missing"
	_, err = resolver.Resolve(context.Background(), unknownTemplate)
	assert.ErrorIs(t, err, metadata.ErrFormNotFound)

	var ce *dimension.ContentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "resolve", ce.Op)
	assert.Equal(t, "articles", ce.ResourceKey)
}

func TestResolveLoaderError(t *testing.T) {
	boom := errors.New("media service unavailable")
	resolver, _ := newTestResolver(t,
		dimension.WithResourceLoader(loader.KeyMedia, dimension.ResourceLoaderFunc(
			func(ctx context.Context, ids []string, locale string) (map[string]any, error) {
				return nil, boom
			})),
		dimension.WithMaxParallelLoads(1),
	)

	result, err := resolver.Resolve(context.Background(), articleContent())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)

	var le *dimension.LoaderError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, loader.KeyMedia, le.LoaderKey)
}

func TestResolveUnknownLoader(t *testing.T) {
	forms := metadata.NewRegistry(articleForm, textBlockForm)
	resolver, err := dimension.NewResolver(property.NewStandardProvider(forms), forms)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), articleContent())
	assert.ErrorIs(t, err, dimension.ErrResourceLoaderNotFound)
}
