package dimension

import "strings"

// Params carries per-field parameters into a field resolver.
type Params map[string]any

// ParamMetadata is the reserved params key holding the field metadata. Reserved
// keys are stripped before params are exposed in a view.
const ParamMetadata = "metadata"

// Without returns a copy of the params without reserved keys and the given
// keys.
func (p Params) Without(keys ...string) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if k == ParamMetadata {
			continue
		}
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// String returns the string param under key or def.
func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// ContentView pairs a resolved content value with editor-facing view metadata.
//
// Content may itself be a ContentView, a slice of values, a map of block fields,
// a *ResolvableResource or any terminal value. The zero value is a neutral view
// with nil content.
type ContentView struct {
	content any
	view    map[string]any
}

// NewContentView creates a content view. A nil view is stored as an empty map.
func NewContentView(content any, view map[string]any) ContentView {
	if view == nil {
		view = map[string]any{}
	}
	return ContentView{content: content, view: view}
}

// Content returns the resolved value.
func (c ContentView) Content() any {
	return c.content
}

// View returns the view metadata. The returned map is never nil.
func (c ContentView) View() map[string]any {
	if c.view == nil {
		return map[string]any{}
	}
	return c.view
}

// MergeCallback combines a loaded resource with data known by the resolver
// which created the placeholder.
type MergeCallback func(resource any) any

// ResolvableResource is a deferred reference to another resource. It is
// replaced by the loaded value after the tree walk.
type ResolvableResource struct {
	ID        string
	LoaderKey string
	merge     MergeCallback
}

// NewResolvableResource creates a placeholder for the resource id in the
// namespace of loaderKey. merge may be nil.
func NewResolvableResource(id, loaderKey string, merge MergeCallback) *ResolvableResource {
	return &ResolvableResource{ID: id, LoaderKey: loaderKey, merge: merge}
}

// HasMergeCallback reports whether the resource carries a merge callback.
func (r *ResolvableResource) HasMergeCallback() bool {
	return r.merge != nil
}

// Apply returns the final value for the loaded resource. A nil resource stays
// nil; the merge callback only sees resources that were actually loaded.
func (r *ResolvableResource) Apply(resource any) any {
	if resource == nil {
		return nil
	}
	if r.merge == nil {
		return resource
	}
	return r.merge(resource)
}

// CompositeIDSeparator joins the parts of polymorphic resource ids.
const CompositeIDSeparator = "::"

// CompositeID builds a "<kind>::<id>" identifier.
func CompositeID(kind, id string) string {
	return kind + CompositeIDSeparator + id
}

// SplitCompositeID splits a "<kind>::<id>" identifier. ok is false when the
// separator is missing.
func SplitCompositeID(composite string) (kind, id string, ok bool) {
	return strings.Cut(composite, CompositeIDSeparator)
}
