// Package loader provides resource loaders for the placeholders created by the
// property resolvers.
package loader

import (
	"context"
	"sync"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// Loader keys used by the built-in property resolvers.
const (
	KeyLink     = "link"
	KeyTeaser   = "teaser"
	KeyMedia    = "media"
	KeyCategory = "category"
	KeyPage     = "page"
	KeySnippet  = "snippet"
)

// StaticLoader serves resources from memory, optionally per locale.
type StaticLoader struct {
	mu        sync.RWMutex
	resources map[string]map[string]any // locale -> id -> resource; "" for every locale
	calls     int
}

// NewStaticLoader creates a loader returning resources for every locale.
func NewStaticLoader(resources map[string]any) *StaticLoader {
	l := &StaticLoader{resources: map[string]map[string]any{"": {}}}
	for id, res := range resources {
		l.resources[""][id] = res
	}
	return l
}

// Set stores a resource for locale. An empty locale matches every locale.
func (l *StaticLoader) Set(locale, id string, resource any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resources[locale] == nil {
		l.resources[locale] = map[string]any{}
	}
	l.resources[locale][id] = resource
}

// Load implements dimension.ResourceLoader. Locale specific entries win over
// entries stored for every locale.
func (l *StaticLoader) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	out := make(map[string]any, len(ids))
	for _, id := range ids {
		if res, ok := l.resources[locale][id]; ok {
			out[id] = res
			continue
		}
		if res, ok := l.resources[""][id]; ok {
			out[id] = res
		}
	}
	return out, nil
}

// Calls returns how many times Load was called.
func (l *StaticLoader) Calls() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.calls
}

var _ dimension.ResourceLoader = (*StaticLoader)(nil)

// groupComposite splits "<kind>::<id>" ids by kind. Ids without a kind are
// dropped.
func groupComposite(ids []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, composite := range ids {
		kind, id, ok := dimension.SplitCompositeID(composite)
		if !ok || kind == "" || id == "" {
			continue
		}
		grouped[kind] = append(grouped[kind], id)
	}
	return grouped
}
