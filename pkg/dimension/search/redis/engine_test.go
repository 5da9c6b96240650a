package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/search"
	"github.com/tendant/content-dimension/pkg/dimension/search/redis"
)

func TestEngine(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	rdb, err := redis.Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	engine := redis.New(rdb, "test-"+uuid.NewString()+":")
	doc := &search.Document{
		ID:          search.DocumentID("pages", "1", "en"),
		ResourceKey: "pages",
		ResourceID:  "1",
		Locale:      "en",
		Stage:       dimension.StageDraft,
		Content:     map[string]any{"title": "Hello"},
	}
	require.NoError(t, engine.Save(ctx, "page", doc))

	got, err := engine.Get(ctx, "page", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Content["title"])

	ids, err := engine.Documents(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID}, ids)

	require.NoError(t, engine.Delete(ctx, "page", doc.ID))
	assert.ErrorIs(t, engine.Delete(ctx, "page", doc.ID), search.ErrDocumentNotFound)
	_, err = engine.Get(ctx, "page", doc.ID)
	assert.ErrorIs(t, err, search.ErrDocumentNotFound)
}
