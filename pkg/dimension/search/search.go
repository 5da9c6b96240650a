// Package search keeps a search index in sync with resolved content.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/content-dimension/pkg/dimension"
)

// ErrDocumentNotFound is returned by engines for unknown documents.
var ErrDocumentNotFound = errors.New("document not found")

// Document is one indexed dimension of a resource.
type Document struct {
	ID          string                               `json:"id"`
	ResourceKey string                               `json:"resource_key"`
	ResourceID  string                               `json:"resource_id"`
	Locale      string                               `json:"locale"`
	Stage       dimension.Stage                      `json:"stage"`
	TemplateKey string                               `json:"template_key,omitempty"`
	Content     map[string]any                       `json:"content"`
	Extensions  map[string]dimension.ResolvedSection `json:"extensions,omitempty"`
	IndexedAt   time.Time                            `json:"indexed_at"`
}

// DocumentID returns the id of the document holding one locale of a resource.
func DocumentID(resourceKey, resourceID, locale string) string {
	return resourceKey + "-" + resourceID + "-" + locale
}

// Engine stores documents in named indexes.
type Engine interface {
	Save(ctx context.Context, index string, doc *Document) error
	Delete(ctx context.Context, index, docID string) error
}

// IndexDefinition maps an index to the resource key and stage it holds.
type IndexDefinition struct {
	Name        string          `yaml:"name" json:"name"`
	ResourceKey string          `yaml:"resource_key" json:"resource_key"`
	Stage       dimension.Stage `yaml:"stage" json:"stage"`
}

// ContentAggregator is implemented by dimension.Aggregator.
type ContentAggregator interface {
	Aggregate(ctx context.Context, entity dimension.Entity, attrs dimension.Attributes) (*dimension.DimensionContent, error)
}

// ContentResolver is implemented by dimension.Resolver.
type ContentResolver interface {
	Resolve(ctx context.Context, dc *dimension.DimensionContent) (*dimension.ResolvedContent, error)
}

// Indexer adds and removes documents of resolved content.
type Indexer struct {
	aggregator ContentAggregator
	resolver   ContentResolver
	engine     Engine
	indexes    []IndexDefinition
	locales    []string
	logger     *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithIndexes adds index definitions.
func WithIndexes(defs ...IndexDefinition) Option {
	return func(i *Indexer) {
		i.indexes = append(i.indexes, defs...)
	}
}

// WithLocales sets the locales removed by Deindex when no locale is given.
func WithLocales(locales ...string) Option {
	return func(i *Indexer) {
		i.locales = append(i.locales, locales...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) {
		i.logger = logger
	}
}

// NewIndexer creates an indexer.
func NewIndexer(aggregator ContentAggregator, resolver ContentResolver, engine Engine, opts ...Option) (*Indexer, error) {
	i := &Indexer{
		aggregator: aggregator,
		resolver:   resolver,
		engine:     engine,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if i.resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if i.engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	for _, def := range i.indexes {
		if def.Name == "" || def.ResourceKey == "" || !def.Stage.Valid() {
			return nil, fmt.Errorf("invalid index definition %+v", def)
		}
	}

	return i, nil
}

// Indexes returns the definitions holding resourceKey.
func (i *Indexer) Indexes(resourceKey string) []IndexDefinition {
	var out []IndexDefinition
	for _, def := range i.indexes {
		if def.ResourceKey == resourceKey {
			out = append(out, def)
		}
	}
	return out
}

// Index aggregates and resolves entity for attrs and saves the document to
// every index of its resource key and stage. Aggregation errors, including not
// found, are returned unchanged.
func (i *Indexer) Index(ctx context.Context, entity dimension.Entity, attrs dimension.Attributes) (*dimension.DimensionContent, error) {
	dc, err := i.aggregator.Aggregate(ctx, entity, attrs)
	if err != nil {
		return nil, err
	}
	if !dc.IsMerged() {
		return nil, dimension.ErrNotMerged
	}

	resolved, err := i.resolver.Resolve(ctx, dc)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:          DocumentID(dc.ResourceKey, dc.ResourceID, dc.Locale),
		ResourceKey: dc.ResourceKey,
		ResourceID:  dc.ResourceID,
		Locale:      dc.Locale,
		Stage:       dc.Stage,
		TemplateKey: dc.TemplateKey,
		Content:     resolved.Content,
		Extensions:  resolved.Extensions,
		IndexedAt:   time.Now().UTC(),
	}

	for _, def := range i.Indexes(dc.ResourceKey) {
		if def.Stage != dc.Stage {
			continue
		}
		if err := i.engine.Save(ctx, def.Name, doc); err != nil {
			return nil, fmt.Errorf("failed to index %s in %s: %w", doc.ID, def.Name, err)
		}
		i.logger.DebugContext(ctx, "document indexed", "index", def.Name, "document_id", doc.ID)
	}

	return dc, nil
}

// Deindex removes the documents of a resource. attrs narrows the removal to
// one locale and/or stage; nil or empty fields mean every configured locale
// and every stage.
func (i *Indexer) Deindex(ctx context.Context, resourceKey, resourceID string, attrs *dimension.Attributes) error {
	locales := i.locales
	var stage dimension.Stage
	if attrs != nil {
		if attrs.Locale != "" {
			locales = []string{attrs.Locale}
		}
		stage = attrs.Stage
	}

	for _, def := range i.Indexes(resourceKey) {
		if stage != "" && def.Stage != stage {
			continue
		}
		for _, locale := range locales {
			docID := DocumentID(resourceKey, resourceID, locale)
			if err := i.engine.Delete(ctx, def.Name, docID); err != nil && !errors.Is(err, ErrDocumentNotFound) {
				return fmt.Errorf("failed to deindex %s from %s: %w", docID, def.Name, err)
			}
		}
	}

	i.logger.DebugContext(ctx, "resource deindexed", "resource_key", resourceKey, "resource_id", resourceID)
	return nil
}
