package dimension

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// pendingResources collects placeholder ids per loader key.
type pendingResources struct {
	ids map[string]map[string]struct{}
}

func newPendingResources() *pendingResources {
	return &pendingResources{ids: make(map[string]map[string]struct{})}
}

func (p *pendingResources) empty() bool {
	return len(p.ids) == 0
}

func (p *pendingResources) add(r *ResolvableResource) {
	set, ok := p.ids[r.LoaderKey]
	if !ok {
		set = make(map[string]struct{})
		p.ids[r.LoaderKey] = set
	}
	set[r.ID] = struct{}{}
}

func (p *pendingResources) collect(v any) {
	switch t := v.(type) {
	case *ResolvableResource:
		if t != nil {
			p.add(t)
		}
	case map[string]any:
		for _, item := range t {
			p.collect(item)
		}
	case []any:
		for _, item := range t {
			p.collect(item)
		}
	}
}

// batches returns the sorted ids of every loader key.
func (p *pendingResources) batches() map[string][]string {
	out := make(map[string][]string, len(p.ids))
	for key, set := range p.ids {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[key] = ids
	}
	return out
}

// load calls every loader once. Loader keys are independent and load
// concurrently; the first failure cancels the others.
func (r *Resolver) load(ctx context.Context, pending *pendingResources, locale string) (map[string]map[string]any, error) {
	batches := pending.batches()
	for key := range batches {
		if _, ok := r.loaders[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrResourceLoaderNotFound, key)
		}
	}

	var (
		mu     sync.Mutex
		loaded = make(map[string]map[string]any, len(batches))
	)

	g, gctx := errgroup.WithContext(ctx)
	if r.maxParallel > 0 {
		g.SetLimit(r.maxParallel)
	}
	for key, ids := range batches {
		key, ids := key, ids
		loader := r.loaders[key]
		g.Go(func() error {
			resources, err := loader.Load(gctx, ids, locale)
			if err != nil {
				return &LoaderError{LoaderKey: key, IDs: ids, Err: err}
			}
			r.logger.Debug("resources loaded", "loader", key, "requested", len(ids), "loaded", len(resources))

			mu.Lock()
			loaded[key] = resources
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return loaded, nil
}
