// Package dimension merges stored content dimensions into one effective view and
// resolves the merged field data into content and view trees.
//
// A content entity is stored as several dimension rows, one per locale and
// workflow stage, plus locale independent rows holding structural fields. The
// Aggregator selects the rows matching a set of Attributes and merges them into a
// single DimensionContent. The Resolver walks the fields declared by the
// template form of that content, converts each raw value through a
// FieldResolver (see the property subpackage) and finally replaces every
// ResolvableResource placeholder with the value returned by its ResourceLoader.
//
// Resolution runs in two phases
//
// The first phase is a synchronous tree walk producing ContentView values, some
// of which carry ResolvableResource placeholders. The second phase groups all
// placeholders by loader key and calls each ResourceLoader exactly once with the
// complete set of ids, so a page referencing the same kind of resource a hundred
// times still causes a single lookup.
//
// Malformed stored data never fails resolution. Field resolvers degrade to
// empty or passthrough views; only missing content, unmerged input and loader
// failures are reported as errors.
package dimension
