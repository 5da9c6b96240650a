package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
)

func TestStaticLoader(t *testing.T) {
	l := loader.NewStaticLoader(map[string]any{"1": "any", "2": "any two"})
	l.Set("de", "1", "german")

	got, err := l.Load(context.Background(), []string{"1", "2", "3"}, "de")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "german", "2": "any two"}, got)

	got, err = l.Load(context.Background(), []string{"1"}, "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "any"}, got)
	assert.Equal(t, 2, l.Calls())
}

func TestLinkLoader(t *testing.T) {
	l := loader.NewLinkLoader(nil)
	var requested []string
	l.Register("page", loader.LinkProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.LinkItem, error) {
		requested = ids
		return []*loader.LinkItem{{ID: "1", Provider: "page", URL: "/" + locale + "/one"}}, nil
	}))

	got, err := l.Load(context.Background(), []string{
		"page::1", "page::2", "external::https://example.com", "unknown::x", "malformed",
	}, "en")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, requested)
	require.Len(t, got, 2)
	assert.Equal(t, "/en/one", got["page::1"].(*loader.LinkItem).GetURL())
	assert.Equal(t, "https://example.com", got["external::https://example.com"].(*loader.LinkItem).URL)
}

func TestLinkLoaderError(t *testing.T) {
	boom := errors.New("boom")
	l := loader.NewLinkLoader(nil)
	l.Register("page", loader.LinkProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.LinkItem, error) {
		return nil, boom
	}))

	_, err := l.Load(context.Background(), []string{"page::1"}, "en")
	assert.ErrorIs(t, err, boom)
}

func TestTeaserLoader(t *testing.T) {
	l := loader.NewTeaserLoader(nil)
	calls := 0
	l.Register("article", loader.TeaserProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.Teaser, error) {
		calls++
		teasers := make([]*loader.Teaser, 0, len(ids))
		for _, id := range ids {
			teasers = append(teasers, &loader.Teaser{ID: id, Type: "article", Locale: locale, Title: "Article " + id})
		}
		return teasers, nil
	}))

	got, err := l.Load(context.Background(), []string{"article::1", "article::2", "page::3"}, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, got, 2)
	assert.Equal(t, "Article 2", got["article::2"].(*loader.Teaser).Title)
}
