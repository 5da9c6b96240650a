package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/content-dimension/pkg/dimension"
)

// Repository implements dimension.DimensionRepository and
// dimension.DimensionWriter using in-memory storage.
type Repository struct {
	mu   sync.RWMutex
	rows map[string]map[rowKey]*dimension.DimensionContent // "resourceKey:resourceID" -> rows
}

type rowKey struct {
	locale string
	stage  dimension.Stage
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		rows: make(map[string]map[rowKey]*dimension.DimensionContent),
	}
}

func resourceKey(key, id string) string {
	return key + ":" + id
}

// LoadDimensions returns copies of the stored rows ordered by stage and locale.
func (r *Repository) LoadDimensions(ctx context.Context, key, id string) ([]*dimension.DimensionContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.rows[resourceKey(key, id)]
	result := make([]*dimension.DimensionContent, 0, len(stored))
	for _, row := range stored {
		result = append(result, row.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Stage != result[j].Stage {
			return result[i].Stage < result[j].Stage
		}
		return result[i].Locale < result[j].Locale
	})

	return result, nil
}

// SaveDimension stores a copy of dc, replacing the row with the same resource,
// locale and stage.
func (r *Repository) SaveDimension(ctx context.Context, dc *dimension.DimensionContent) error {
	if dc.ResourceKey == "" || dc.ResourceID == "" {
		return fmt.Errorf("resource key and id are required")
	}
	if !dc.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", dc.Stage)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := resourceKey(dc.ResourceKey, dc.ResourceID)
	rows, ok := r.rows[k]
	if !ok {
		rows = make(map[rowKey]*dimension.DimensionContent)
		r.rows[k] = rows
	}

	now := time.Now().UTC()
	row := dc.Clone()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	rk := rowKey{locale: row.Locale, stage: row.Stage}
	if existing, ok := rows[rk]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	rows[rk] = row

	dc.ID = row.ID
	dc.CreatedAt = row.CreatedAt
	dc.UpdatedAt = row.UpdatedAt
	return nil
}

// DeleteDimensions removes every row of the resource.
func (r *Repository) DeleteDimensions(ctx context.Context, key, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, resourceKey(key, id))
	return nil
}
