package property

import (
	"context"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
)

// TypeTeaserSelection is the type tag of teaser selection fields.
const TypeTeaserSelection = "teaser_selection"

// TeaserSelectionResolver resolves a list of heterogeneous references into
// teaser placeholders with composite "<type>::<id>" ids.
type TeaserSelectionResolver struct {
	opts options
}

// NewTeaserSelectionResolver creates the teaser selection resolver.
func NewTeaserSelectionResolver(opts ...Option) *TeaserSelectionResolver {
	return &TeaserSelectionResolver{opts: newOptions(opts)}
}

func (r *TeaserSelectionResolver) GetType() string { return TypeTeaserSelection }

func (r *TeaserSelectionResolver) Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView {
	cv, err := r.resolve(data, params)
	return collapse(ctx, r.opts.logger, cv, err)
}

// teaserOverrides are the fields an editor may set locally on a teaser item.
type teaserOverrides struct {
	title       *string
	description *string
	mediaID     *int
}

func (r *TeaserSelectionResolver) resolve(data any, params dimension.Params) (dimension.ContentView, error) {
	selection, _ := data.(map[string]any)
	view := withParams(map[string]any{"presentsAs": selection["presentsAs"]}, params)
	items := []any{}

	if selection == nil {
		return dimension.NewContentView(items, view), ignored(TypeTeaserSelection, "expected object, got %T", data)
	}
	rawItems, ok := selection["items"].([]any)
	if !ok {
		if selection["items"] != nil {
			return dimension.NewContentView(items, view), ignored(TypeTeaserSelection, "items must be a list")
		}
		return dimension.NewContentView(items, view), nil
	}

	loaderKey := params.String("resourceLoader", loader.KeyTeaser)
	for _, raw := range rawItems {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, idOK := toID(item["id"])
		typ, typeOK := item["type"].(string)
		if !idOK || !typeOK || typ == "" {
			continue
		}

		overrides := overridesOf(item)
		items = append(items, dimension.NewResolvableResource(
			dimension.CompositeID(typ, id),
			loaderKey,
			func(teaser any) any { return overlayTeaser(teaser, overrides) },
		))
	}

	return dimension.NewContentView(items, view), nil
}

func overridesOf(item map[string]any) teaserOverrides {
	var o teaserOverrides
	if s, ok := item["title"].(string); ok {
		o.title = &s
	}
	if s, ok := item["description"].(string); ok {
		o.description = &s
	}
	if i, ok := toInt(item["mediaId"]); ok {
		o.mediaID = &i
	}
	return o
}

// overlayTeaser copies the loaded teaser and applies the local overrides.
func overlayTeaser(teaser any, o teaserOverrides) any {
	switch t := teaser.(type) {
	case *loader.Teaser:
		merged := *t
		if t.Attributes != nil {
			merged.Attributes = copyMap(t.Attributes)
		}
		if o.title != nil {
			merged.Title = *o.title
		}
		if o.description != nil {
			merged.Description = *o.description
		}
		if o.mediaID != nil {
			id := *o.mediaID
			merged.MediaID = &id
		}
		return &merged
	case map[string]any:
		merged := copyMap(t)
		if o.title != nil {
			merged["title"] = *o.title
		}
		if o.description != nil {
			merged["description"] = *o.description
		}
		if o.mediaID != nil {
			merged["mediaId"] = *o.mediaID
		}
		return merged
	default:
		return teaser
	}
}
