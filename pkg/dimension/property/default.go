package property

import (
	"context"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// TypeDefault is the type tag of the passthrough resolver.
const TypeDefault = "default"

// DefaultResolver returns the raw value unchanged with the params as view.
type DefaultResolver struct{}

// NewDefaultResolver creates the passthrough resolver.
func NewDefaultResolver(opts ...Option) *DefaultResolver {
	return &DefaultResolver{}
}

func (r *DefaultResolver) GetType() string { return TypeDefault }

func (r *DefaultResolver) Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView {
	return dimension.NewContentView(data, params.Without())
}
