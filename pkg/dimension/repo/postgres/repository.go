package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/content-dimension/pkg/dimension"
)

// Schema creates the dimension table.
const Schema = `
CREATE TABLE IF NOT EXISTS content_dimensions (
	id           UUID PRIMARY KEY,
	resource_key TEXT NOT NULL,
	resource_id  TEXT NOT NULL,
	locale       TEXT NOT NULL DEFAULT '',
	stage        TEXT NOT NULL CHECK (stage IN ('draft', 'live')),
	template_key TEXT NOT NULL DEFAULT '',
	data         JSONB NOT NULL DEFAULT '{}'::jsonb,
	extensions   JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT content_dimensions_unique UNIQUE (resource_key, resource_id, locale, stage)
);
`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements dimension.DimensionRepository and
// dimension.DimensionWriter using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("dimension already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("invalid dimension: %s", pgErr.ConstraintName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) LoadDimensions(ctx context.Context, resourceKey, resourceID string) ([]*dimension.DimensionContent, error) {
	query := `
		SELECT id, resource_key, resource_id, locale, stage, template_key,
		       data, extensions, created_at, updated_at
		FROM content_dimensions
		WHERE resource_key = $1 AND resource_id = $2
		ORDER BY stage, locale`

	rows, err := r.db.Query(ctx, query, resourceKey, resourceID)
	if err != nil {
		return nil, r.handlePostgresError("load dimensions", err)
	}
	defer rows.Close()

	var result []*dimension.DimensionContent
	for rows.Next() {
		var (
			dc         dimension.DimensionContent
			stage      string
			data       []byte
			extensions []byte
		)
		if err := rows.Scan(
			&dc.ID, &dc.ResourceKey, &dc.ResourceID, &dc.Locale, &stage, &dc.TemplateKey,
			&data, &extensions, &dc.CreatedAt, &dc.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan dimension", err)
		}
		dc.Stage = dimension.Stage(stage)
		if err := decodeJSON(data, &dc.Data); err != nil {
			return nil, fmt.Errorf("failed to decode data of dimension %s: %w", dc.ID, err)
		}
		if err := decodeJSON(extensions, &dc.Extensions); err != nil {
			return nil, fmt.Errorf("failed to decode extensions of dimension %s: %w", dc.ID, err)
		}
		result = append(result, &dc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("load dimensions", err)
	}

	return result, nil
}

// SaveDimension upserts the row identified by resource, locale and stage.
func (r *Repository) SaveDimension(ctx context.Context, dc *dimension.DimensionContent) error {
	if dc.ID == uuid.Nil {
		dc.ID = uuid.New()
	}

	data, err := json.Marshal(orEmpty(dc.Data))
	if err != nil {
		return fmt.Errorf("failed to encode dimension data: %w", err)
	}
	extensions := dc.Extensions
	if extensions == nil {
		extensions = map[string]map[string]any{}
	}
	extData, err := json.Marshal(extensions)
	if err != nil {
		return fmt.Errorf("failed to encode dimension extensions: %w", err)
	}

	query := `
		INSERT INTO content_dimensions (
			id, resource_key, resource_id, locale, stage, template_key,
			data, extensions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (resource_key, resource_id, locale, stage) DO UPDATE SET
			template_key = EXCLUDED.template_key,
			data = EXCLUDED.data,
			extensions = EXCLUDED.extensions,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		dc.ID, dc.ResourceKey, dc.ResourceID, dc.Locale, string(dc.Stage), dc.TemplateKey,
		data, extData).Scan(&dc.ID, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("save dimension", err)
	}

	return nil
}

func (r *Repository) DeleteDimensions(ctx context.Context, resourceKey, resourceID string) error {
	query := `DELETE FROM content_dimensions WHERE resource_key = $1 AND resource_id = $2`
	if _, err := r.db.Exec(ctx, query, resourceKey, resourceID); err != nil {
		return r.handlePostgresError("delete dimensions", err)
	}
	return nil
}

func decodeJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
