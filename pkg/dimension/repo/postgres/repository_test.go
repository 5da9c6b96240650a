package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/repo/postgres"
)

func setupRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	dsn := os.Getenv("CONTENT_DIMENSION_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CONTENT_DIMENSION_TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewWithPool(pool)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestRepository_RoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = repo.DeleteDimensions(ctx, "pages", "pg-test") })

	row := &dimension.DimensionContent{
		ResourceKey: "pages",
		ResourceID:  "pg-test",
		Locale:      "en",
		Stage:       dimension.StageDraft,
		TemplateKey: "default",
		Data:        map[string]any{"title": "Hello", "count": float64(2)},
		Extensions:  map[string]map[string]any{"seo": {"title": "SEO"}},
	}
	require.NoError(t, repo.SaveDimension(ctx, row))

	row.Data["title"] = "Updated"
	require.NoError(t, repo.SaveDimension(ctx, row))

	rows, err := repo.LoadDimensions(ctx, "pages", "pg-test")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
	assert.Equal(t, "Updated", rows[0].Data["title"])
	assert.Equal(t, float64(2), rows[0].Data["count"])
	assert.Equal(t, "SEO", rows[0].Extensions["seo"]["title"])
	assert.Equal(t, dimension.StageDraft, rows[0].Stage)
}
