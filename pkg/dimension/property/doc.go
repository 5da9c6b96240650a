// Package property converts raw stored field values into content views.
//
// A Provider maps field type tags to Resolver implementations. Resolvers never
// fail: data they cannot interpret yields a neutral view (nil, empty list or
// the unchanged input, depending on the resolver). References to other
// resources are returned as dimension.ResolvableResource placeholders which are
// loaded in batch by dimension.Resolver.
package property
