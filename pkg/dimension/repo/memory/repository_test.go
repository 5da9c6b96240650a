package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/repo/memory"
)

func TestRepository_SaveAndLoad(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	row := &dimension.DimensionContent{
		ResourceKey: "pages",
		ResourceID:  "1",
		Locale:      "en",
		Stage:       dimension.StageDraft,
		TemplateKey: "default",
		Data:        map[string]any{"title": "Hello", "tags": []any{"a"}},
	}
	require.NoError(t, repo.SaveDimension(ctx, row))
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.False(t, row.CreatedAt.IsZero())

	require.NoError(t, repo.SaveDimension(ctx, &dimension.DimensionContent{
		ResourceKey: "pages", ResourceID: "1", Stage: dimension.StageDraft,
		Data: map[string]any{"template": "default"},
	}))

	rows, err := repo.LoadDimensions(ctx, "pages", "1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Locale)
	assert.Equal(t, "en", rows[1].Locale)

	// Returned rows are copies
	rows[1].Data["tags"].([]any)[0] = "changed"
	again, err := repo.LoadDimensions(ctx, "pages", "1")
	require.NoError(t, err)
	assert.Equal(t, "a", again[1].Data["tags"].([]any)[0])
}

func TestRepository_SaveReplacesVariant(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	first := &dimension.DimensionContent{ResourceKey: "pages", ResourceID: "1", Locale: "en", Stage: dimension.StageLive, Data: map[string]any{"title": "v1"}}
	require.NoError(t, repo.SaveDimension(ctx, first))
	second := &dimension.DimensionContent{ResourceKey: "pages", ResourceID: "1", Locale: "en", Stage: dimension.StageLive, Data: map[string]any{"title": "v2"}}
	require.NoError(t, repo.SaveDimension(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	rows, err := repo.LoadDimensions(ctx, "pages", "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "v2", rows[0].Data["title"])
}

func TestRepository_Validation(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	assert.Error(t, repo.SaveDimension(ctx, &dimension.DimensionContent{ResourceID: "1", Stage: dimension.StageDraft}))
	assert.Error(t, repo.SaveDimension(ctx, &dimension.DimensionContent{ResourceKey: "pages", ResourceID: "1", Stage: "published"}))
}

func TestRepository_Delete(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	require.NoError(t, repo.SaveDimension(ctx, &dimension.DimensionContent{ResourceKey: "pages", ResourceID: "1", Stage: dimension.StageDraft}))
	require.NoError(t, repo.DeleteDimensions(ctx, "pages", "1"))

	rows, err := repo.LoadDimensions(ctx, "pages", "1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
