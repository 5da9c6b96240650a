package dimension

import "context"

// DimensionRepository loads stored dimension rows.
type DimensionRepository interface {
	// LoadDimensions returns every stored row of the resource, in any order.
	// It returns an empty slice when the resource has no rows.
	LoadDimensions(ctx context.Context, resourceKey, resourceID string) ([]*DimensionContent, error)
}

// DimensionWriter persists dimension rows. It is implemented by the
// repositories under repo/ and used by tooling; the resolution pipeline only
// reads.
type DimensionWriter interface {
	SaveDimension(ctx context.Context, dc *DimensionContent) error
	DeleteDimensions(ctx context.Context, resourceKey, resourceID string) error
}

// ResourceLoader loads referenced resources in one batch.
type ResourceLoader interface {
	// Load returns the loaded resources keyed by id. Ids which cannot be found
	// are omitted from the result.
	Load(ctx context.Context, ids []string, locale string) (map[string]any, error)
}

// ResourceLoaderFunc adapts a function to the ResourceLoader interface.
type ResourceLoaderFunc func(ctx context.Context, ids []string, locale string) (map[string]any, error)

// Load calls f.
func (f ResourceLoaderFunc) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	return f(ctx, ids, locale)
}

// FieldResolver resolves one raw field value by its type tag. It is
// implemented by property.Provider.
type FieldResolver interface {
	Resolve(ctx context.Context, typeTag string, data any, locale string, params Params) ContentView
}
