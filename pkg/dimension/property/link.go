package property

import (
	"context"
	"strings"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
)

// TypeLink is the type tag of link fields.
const TypeLink = "link"

// LinkResolver resolves link descriptors to a placeholder for the link target.
//
// Data without a string href and provider is returned unchanged with an empty
// view, which keeps legacy values inert.
type LinkResolver struct {
	opts options
}

// NewLinkResolver creates the link resolver.
func NewLinkResolver(opts ...Option) *LinkResolver {
	return &LinkResolver{opts: newOptions(opts)}
}

func (r *LinkResolver) GetType() string { return TypeLink }

func (r *LinkResolver) Resolve(ctx context.Context, data any, locale string, params dimension.Params) dimension.ContentView {
	cv, err := r.resolve(data, params)
	return collapse(ctx, r.opts.logger, cv, err)
}

func (r *LinkResolver) resolve(data any, params dimension.Params) (dimension.ContentView, error) {
	passthrough := dimension.NewContentView(data, nil)

	link, ok := data.(map[string]any)
	if !ok {
		return passthrough, ignored(TypeLink, "expected object, got %T", data)
	}
	href, hrefOK := link["href"].(string)
	provider, providerOK := link["provider"].(string)
	if !hrefOK || !providerOK || href == "" || provider == "" {
		return passthrough, ignored(TypeLink, "href and provider must be non-empty strings")
	}

	query, _ := link["query"].(string)
	anchor, _ := link["anchor"].(string)

	resource := dimension.NewResolvableResource(
		dimension.CompositeID(provider, href),
		params.String("resourceLoader", loader.KeyLink),
		func(target any) any {
			url, ok := targetURL(target)
			if !ok {
				return nil
			}
			return ComposeURL(url, query, anchor)
		},
	)

	return dimension.NewContentView(resource, withParams(link, params)), nil
}

// ComposeURL appends query and anchor to url.
func ComposeURL(url, query, anchor string) string {
	query = strings.TrimPrefix(query, "?")
	anchor = strings.TrimPrefix(anchor, "#")
	if query != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + query
	}
	if anchor != "" {
		url += "#" + anchor
	}
	return url
}

type urlGetter interface {
	GetURL() string
}

func targetURL(target any) (string, bool) {
	switch t := target.(type) {
	case string:
		return t, t != ""
	case urlGetter:
		u := t.GetURL()
		return u, u != ""
	case map[string]any:
		u, ok := t["url"].(string)
		return u, ok && u != ""
	default:
		return "", false
	}
}
