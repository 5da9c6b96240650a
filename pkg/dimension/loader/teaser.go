package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// Teaser is a summary of a referenced resource shown in teaser selections.
type Teaser struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	Locale      string         `json:"locale" yaml:"locale"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	MoreText    string         `json:"moreText,omitempty" yaml:"moreText,omitempty"`
	MediaID     *int           `json:"mediaId,omitempty" yaml:"mediaId,omitempty"`
	URL         string         `json:"url,omitempty" yaml:"url,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// TeaserProvider loads teasers for one resource type.
type TeaserProvider interface {
	FindTeasers(ctx context.Context, ids []string, locale string) ([]*Teaser, error)
}

// TeaserProviderFunc adapts a function to TeaserProvider.
type TeaserProviderFunc func(ctx context.Context, ids []string, locale string) ([]*Teaser, error)

func (f TeaserProviderFunc) FindTeasers(ctx context.Context, ids []string, locale string) ([]*Teaser, error) {
	return f(ctx, ids, locale)
}

// TeaserLoader loads "<type>::<id>" ids through the provider of each type.
type TeaserLoader struct {
	providers map[string]TeaserProvider
	logger    *slog.Logger
}

// NewTeaserLoader creates an empty teaser loader.
func NewTeaserLoader(logger *slog.Logger) *TeaserLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeaserLoader{providers: make(map[string]TeaserProvider), logger: logger}
}

// Register adds the provider for teasers of resourceType.
func (l *TeaserLoader) Register(resourceType string, provider TeaserProvider) {
	l.providers[resourceType] = provider
}

// Load implements dimension.ResourceLoader.
func (l *TeaserLoader) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	out := make(map[string]any, len(ids))
	for resourceType, typeIDs := range groupComposite(ids) {
		provider, ok := l.providers[resourceType]
		if !ok {
			l.logger.WarnContext(ctx, "unknown teaser type", "type", resourceType, "ids", len(typeIDs))
			continue
		}
		teasers, err := provider.FindTeasers(ctx, typeIDs, locale)
		if err != nil {
			return nil, fmt.Errorf("teaser provider %s: %w", resourceType, err)
		}
		for _, t := range teasers {
			if t != nil {
				out[dimension.CompositeID(resourceType, t.ID)] = t
			}
		}
	}
	return out, nil
}
