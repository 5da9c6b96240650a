package dimension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/content-dimension/pkg/dimension/metadata"
)

// ResolvedSection is the resolved content and view of one form.
type ResolvedSection struct {
	Content map[string]any `json:"content"`
	View    map[string]any `json:"view"`
}

// ResolvedContent is the output of Resolver.Resolve. It holds plain maps and
// slices only; no ContentView or ResolvableResource values remain.
type ResolvedContent struct {
	Resource   *DimensionContent          `json:"-"`
	Content    map[string]any             `json:"content"`
	View       map[string]any             `json:"view"`
	Extensions map[string]ResolvedSection `json:"extension,omitempty"`
}

type extension struct {
	name    string
	formKey string
}

// Resolver resolves merged dimension content into content and view trees.
type Resolver struct {
	fields      FieldResolver
	forms       metadata.Resolver
	loaders     map[string]ResourceLoader
	extensions  []extension
	maxParallel int
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResourceLoader registers the loader for placeholders with loaderKey.
func WithResourceLoader(loaderKey string, loader ResourceLoader) ResolverOption {
	return func(r *Resolver) {
		r.loaders[loaderKey] = loader
	}
}

// WithExtension resolves DimensionContent.Extensions[name] with the form
// registered under formKey.
func WithExtension(name, formKey string) ResolverOption {
	return func(r *Resolver) {
		r.extensions = append(r.extensions, extension{name: name, formKey: formKey})
	}
}

// WithMaxParallelLoads limits how many loader keys are loaded concurrently.
// Zero or less means one goroutine per loader key.
func WithMaxParallelLoads(n int) ResolverOption {
	return func(r *Resolver) {
		r.maxParallel = n
	}
}

// WithResolverLogger sets the logger used by the resolver.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver dispatching fields to fields and reading
// template forms from forms.
func NewResolver(fields FieldResolver, forms metadata.Resolver, options ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		fields:  fields,
		forms:   forms,
		loaders: make(map[string]ResourceLoader),
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(r)
	}

	if r.fields == nil {
		return nil, fmt.Errorf("field resolver is required")
	}
	if r.forms == nil {
		return nil, fmt.Errorf("metadata resolver is required")
	}

	return r, nil
}

// Resolve resolves every field declared by the template form of dc, then loads
// all referenced resources with one call per loader key.
func (r *Resolver) Resolve(ctx context.Context, dc *DimensionContent) (*ResolvedContent, error) {
	if !dc.IsMerged() {
		return nil, r.contentError(dc, ErrNotMerged)
	}
	if dc.Locale == "" {
		return nil, r.contentError(dc, ErrMissingLocale)
	}

	form, err := r.forms.GetFormMetadata(ctx, dc.TemplateKey)
	if err != nil {
		return nil, r.contentError(dc, fmt.Errorf("template %q: %w", dc.TemplateKey, err))
	}

	result := &ResolvedContent{Resource: dc}
	result.Content, result.View = r.resolveForm(ctx, form, dc.Data, dc.Locale)

	for _, ext := range r.extensions {
		extForm, err := r.forms.GetFormMetadata(ctx, ext.formKey)
		if err != nil {
			return nil, r.contentError(dc, fmt.Errorf("extension %q: %w", ext.name, err))
		}
		if result.Extensions == nil {
			result.Extensions = make(map[string]ResolvedSection, len(r.extensions))
		}
		content, view := r.resolveForm(ctx, extForm, dc.Extensions[ext.name], dc.Locale)
		result.Extensions[ext.name] = ResolvedSection{Content: content, View: view}
	}

	pending := newPendingResources()
	pending.collect(result.Content)
	pending.collect(result.View)
	for _, section := range result.Extensions {
		pending.collect(section.Content)
		pending.collect(section.View)
	}
	if pending.empty() {
		return result, nil
	}

	loaded, err := r.load(ctx, pending, dc.Locale)
	if err != nil {
		return nil, r.contentError(dc, err)
	}

	result.Content = replaceResources(result.Content, loaded).(map[string]any)
	result.View = replaceResources(result.View, loaded).(map[string]any)
	for name, section := range result.Extensions {
		result.Extensions[name] = ResolvedSection{
			Content: replaceResources(section.Content, loaded).(map[string]any),
			View:    replaceResources(section.View, loaded).(map[string]any),
		}
	}

	return result, nil
}

func (r *Resolver) resolveForm(ctx context.Context, form *metadata.FormMetadata, data map[string]any, locale string) (map[string]any, map[string]any) {
	content := make(map[string]any)
	view := make(map[string]any)

	for _, field := range form.Fields() {
		field := field
		params := make(Params, len(field.Params)+1)
		for k, v := range field.Params {
			params[k] = v
		}
		params[ParamMetadata] = &field

		cv := r.fields.Resolve(ctx, field.Type, data[field.Name], locale, params)
		content[field.Name], view[field.Name] = flattenView(cv)
	}

	return content, view
}

func (r *Resolver) contentError(dc *DimensionContent, err error) error {
	ce := &ContentError{Op: "resolve", Err: err}
	if dc != nil {
		ce.ResourceKey = dc.ResourceKey
		ce.ResourceID = dc.ResourceID
	}
	return ce
}
