package property

import (
	"context"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
)

// Type tags of the reference selection fields.
const (
	TypeMediaSelection          = "media_selection"
	TypeSingleMediaSelection    = "single_media_selection"
	TypeCategorySelection       = "category_selection"
	TypeSingleCategorySelection = "single_category_selection"
	TypePageSelection           = "page_selection"
	TypeSinglePageSelection     = "single_page_selection"
	TypeSnippetSelection        = "snippet_selection"
	TypeSingleSnippetSelection  = "single_snippet_selection"
)

// SelectionResolver resolves references to resources of one loader.
//
// Wrapped selections store their ids in an object ({"ids": [...]} or
// {"id": ...}) next to presentation options, which are kept in the view. Bare
// selections store the id or list of ids directly.
type SelectionResolver struct {
	Type      string
	LoaderKey string
	Single    bool
	Wrapped   bool
	opts      options
}

// NewSelectionResolver creates a reference selection resolver.
func NewSelectionResolver(typ, loaderKey string, single, wrapped bool, opts ...Option) *SelectionResolver {
	return &SelectionResolver{Type: typ, LoaderKey: loaderKey, Single: single, Wrapped: wrapped, opts: newOptions(opts)}
}

func NewMediaSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeMediaSelection, loader.KeyMedia, false, true, opts...)
}

func NewSingleMediaSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeSingleMediaSelection, loader.KeyMedia, true, true, opts...)
}

func NewCategorySelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeCategorySelection, loader.KeyCategory, false, false, opts...)
}

func NewSingleCategorySelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeSingleCategorySelection, loader.KeyCategory, true, false, opts...)
}

func NewPageSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypePageSelection, loader.KeyPage, false, false, opts...)
}

func NewSinglePageSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeSinglePageSelection, loader.KeyPage, true, false, opts...)
}

func NewSnippetSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeSnippetSelection, loader.KeySnippet, false, false, opts...)
}

func NewSingleSnippetSelectionResolver(opts ...Option) *SelectionResolver {
	return NewSelectionResolver(TypeSingleSnippetSelection, loader.KeySnippet, true, false, opts...)
}

func (r *SelectionResolver) GetType() string { return r.Type }

func (r *SelectionResolver) Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView {
	var (
		cv  dimension.ContentView
		err error
	)
	if r.Single {
		cv, err = r.resolveSingle(data, params)
	} else {
		cv, err = r.resolveList(data, params)
	}
	return collapse(ctx, r.opts.logger, cv, err)
}

func (r *SelectionResolver) resolveSingle(data any, params dimension.Params) (dimension.ContentView, error) {
	base := map[string]any{}
	raw := data
	if r.Wrapped {
		wrapper, ok := data.(map[string]any)
		if !ok {
			return r.neutralSingle(params), r.ignore(data)
		}
		base = copyMap(wrapper)
		raw = wrapper["id"]
	}

	id, ok := toID(raw)
	if !ok {
		return r.neutralSingle(params), r.ignore(raw)
	}
	base["id"] = raw

	resource := dimension.NewResolvableResource(id, params.String("resourceLoader", r.LoaderKey), nil)
	return dimension.NewContentView(resource, withParams(base, params)), nil
}

func (r *SelectionResolver) resolveList(data any, params dimension.Params) (dimension.ContentView, error) {
	base := map[string]any{}
	raw := data
	if r.Wrapped {
		wrapper, ok := data.(map[string]any)
		if !ok {
			return r.neutralList(params), r.ignore(data)
		}
		base = copyMap(wrapper)
		raw = wrapper["ids"]
	}

	rawIDs, ok := raw.([]any)
	if !ok {
		return r.neutralList(params), r.ignore(raw)
	}

	loaderKey := params.String("resourceLoader", r.LoaderKey)
	resources := make([]any, 0, len(rawIDs))
	ids := make([]any, 0, len(rawIDs))
	for _, rawID := range rawIDs {
		id, ok := toID(rawID)
		if !ok {
			continue
		}
		ids = append(ids, rawID)
		resources = append(resources, dimension.NewResolvableResource(id, loaderKey, nil))
	}
	base["ids"] = ids

	return dimension.NewContentView(resources, withParams(base, params)), nil
}

func (r *SelectionResolver) neutralSingle(params dimension.Params) dimension.ContentView {
	return dimension.NewContentView(nil, withParams(map[string]any{"id": nil}, params))
}

func (r *SelectionResolver) neutralList(params dimension.Params) dimension.ContentView {
	return dimension.NewContentView([]any{}, withParams(map[string]any{"ids": []any{}}, params))
}

func (r *SelectionResolver) ignore(data any) error {
	if data == nil {
		return nil
	}
	return ignored(r.Type, "unexpected %T", data)
}
