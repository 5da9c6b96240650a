package property

import "github.com/tendant/content-dimension/pkg/dimension/metadata"

// NewStandardProvider creates a provider with every built-in resolver
// registered. forms supplies block type forms not declared on the field.
func NewStandardProvider(forms metadata.Resolver, opts ...Option) *Provider {
	p := NewProvider(opts...)
	p.Register(
		NewDefaultResolver(opts...),
		NewLinkResolver(opts...),
		NewTeaserSelectionResolver(opts...),
		NewBlockResolver(p, forms, opts...),
		NewMediaSelectionResolver(opts...),
		NewSingleMediaSelectionResolver(opts...),
		NewCategorySelectionResolver(opts...),
		NewSingleCategorySelectionResolver(opts...),
		NewPageSelectionResolver(opts...),
		NewSinglePageSelectionResolver(opts...),
		NewSnippetSelectionResolver(opts...),
		NewSingleSnippetSelectionResolver(opts...),
	)
	return p
}
