package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// ProviderExternal is the link provider whose href already is the URL.
const ProviderExternal = "external"

// LinkItem is a resolved link target.
type LinkItem struct {
	ID        string `json:"id" yaml:"id"`
	Provider  string `json:"provider" yaml:"provider"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string `json:"url" yaml:"url"`
	Published bool   `json:"published" yaml:"published"`
}

// GetURL returns the target URL.
func (i *LinkItem) GetURL() string { return i.URL }

// LinkProvider loads link targets of one provider, such as pages or articles.
type LinkProvider interface {
	LoadLinks(ctx context.Context, ids []string, locale string) ([]*LinkItem, error)
}

// LinkProviderFunc adapts a function to LinkProvider.
type LinkProviderFunc func(ctx context.Context, ids []string, locale string) ([]*LinkItem, error)

func (f LinkProviderFunc) LoadLinks(ctx context.Context, ids []string, locale string) ([]*LinkItem, error) {
	return f(ctx, ids, locale)
}

// LinkLoader loads "<provider>::<href>" ids through the registered providers,
// one call per provider.
type LinkLoader struct {
	providers map[string]LinkProvider
	logger    *slog.Logger
}

// NewLinkLoader creates a link loader with the external provider registered.
func NewLinkLoader(logger *slog.Logger) *LinkLoader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &LinkLoader{providers: make(map[string]LinkProvider), logger: logger}
	l.Register(ProviderExternal, externalLinks{})
	return l
}

// Register adds the provider for name.
func (l *LinkLoader) Register(name string, provider LinkProvider) {
	l.providers[name] = provider
}

// Load implements dimension.ResourceLoader.
func (l *LinkLoader) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	out := make(map[string]any, len(ids))
	for name, hrefs := range groupComposite(ids) {
		provider, ok := l.providers[name]
		if !ok {
			l.logger.WarnContext(ctx, "unknown link provider", "provider", name, "ids", len(hrefs))
			continue
		}
		items, err := provider.LoadLinks(ctx, hrefs, locale)
		if err != nil {
			return nil, fmt.Errorf("link provider %s: %w", name, err)
		}
		for _, item := range items {
			if item != nil {
				out[dimension.CompositeID(name, item.ID)] = item
			}
		}
	}
	return out, nil
}

type externalLinks struct{}

func (externalLinks) LoadLinks(ctx context.Context, ids []string, locale string) ([]*LinkItem, error) {
	items := make([]*LinkItem, 0, len(ids))
	for _, href := range ids {
		items = append(items, &LinkItem{ID: href, Provider: ProviderExternal, URL: href, Published: true})
	}
	return items, nil
}
