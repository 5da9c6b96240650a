package dimension

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// SelectionPolicy picks the stored rows which make up the effective content
// for the requested attributes.
type SelectionPolicy interface {
	// Select returns the rows to merge, ordered from most generic to most
	// specific. attrs has its defaults applied.
	Select(attrs Attributes, rows []*DimensionContent) []*DimensionContent
}

// DefaultPolicy merges the locale independent row of the requested stage with
// the first row along the locale chain of that stage.
//
// The locale chain starts with the requested locale followed by
// LocaleFallbacks[locale]. StageFallbacks only applies to the locale
// independent row, which holds structural fields shared by all locales.
type DefaultPolicy struct {
	LocaleFallbacks map[string][]string
	StageFallbacks  map[Stage]Stage
}

// Select implements SelectionPolicy.
func (p DefaultPolicy) Select(attrs Attributes, rows []*DimensionContent) []*DimensionContent {
	var selected []*DimensionContent

	unlocalized := findRow(rows, "", attrs.Stage)
	if unlocalized == nil {
		if fallback, ok := p.StageFallbacks[attrs.Stage]; ok {
			unlocalized = findRow(rows, "", fallback)
		}
	}
	if unlocalized != nil {
		selected = append(selected, unlocalized)
	}

	if attrs.Locale == "" {
		return selected
	}
	for _, locale := range p.LocaleChain(attrs.Locale) {
		if localized := findRow(rows, locale, attrs.Stage); localized != nil {
			selected = append(selected, localized)
			break
		}
	}

	return selected
}

// LocaleChain returns the locales tried for locale, in order.
func (p DefaultPolicy) LocaleChain(locale string) []string {
	chain := []string{locale}
	for _, fb := range p.LocaleFallbacks[locale] {
		if fb != "" && fb != locale {
			chain = append(chain, fb)
		}
	}
	return chain
}

func findRow(rows []*DimensionContent, locale string, stage Stage) *DimensionContent {
	for _, row := range rows {
		if row != nil && row.Locale == locale && row.Stage == stage {
			return row
		}
	}
	return nil
}

// Aggregator merges the stored dimensions of an entity.
type Aggregator struct {
	repository DimensionRepository
	policy     SelectionPolicy
	logger     *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSelectionPolicy replaces the DefaultPolicy.
func WithSelectionPolicy(policy SelectionPolicy) AggregatorOption {
	return func(a *Aggregator) {
		a.policy = policy
	}
}

// WithAggregatorLogger sets the logger used by the aggregator.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an aggregator reading from repository.
func NewAggregator(repository DimensionRepository, options ...AggregatorOption) (*Aggregator, error) {
	a := &Aggregator{
		policy: DefaultPolicy{},
		logger: slog.Default(),
	}
	for _, option := range options {
		option(a)
	}
	a.repository = repository

	if a.repository == nil {
		return nil, fmt.Errorf("dimension repository is required")
	}
	if a.policy == nil {
		return nil, fmt.Errorf("selection policy is required")
	}

	return a, nil
}

// Aggregate returns the merged content of entity for attrs.
//
// It fails with an error wrapping ErrContentNotFound when a required attribute
// is missing, when the entity has no rows, or when a locale was requested but no
// localized row is selected.
func (a *Aggregator) Aggregate(ctx context.Context, entity Entity, attrs Attributes) (*DimensionContent, error) {
	attrs = attrs.WithDefaults()
	notFound := func(format string, args ...any) error {
		return &ContentError{
			ResourceKey: entity.ResourceKey(),
			ResourceID:  entity.ResourceID(),
			Op:          "aggregate",
			Err:         fmt.Errorf("%w: "+format, append([]any{ErrContentNotFound}, args...)...),
		}
	}

	for _, key := range requiredAttributes(entity) {
		if !attrs.Has(key) {
			return nil, notFound("missing dimension attribute %q", key)
		}
	}
	if !attrs.Stage.Valid() {
		return nil, notFound("unknown stage %q", attrs.Stage)
	}

	rows, err := a.repository.LoadDimensions(ctx, entity.ResourceKey(), entity.ResourceID())
	if err != nil {
		return nil, &ContentError{
			ResourceKey: entity.ResourceKey(),
			ResourceID:  entity.ResourceID(),
			Op:          "load_dimensions",
			Err:         err,
		}
	}
	if len(rows) == 0 {
		return nil, notFound("no dimensions stored")
	}

	selected := a.policy.Select(attrs, rows)
	if len(selected) == 0 {
		return nil, notFound("no dimension matches locale=%q stage=%q", attrs.Locale, attrs.Stage)
	}

	merged := mergeDimensions(entity, selected)
	merged.Stage = attrs.Stage
	merged.AvailableLocales = availableLocales(rows, attrs.Stage)

	if attrs.Locale != "" {
		if merged.ResolvedLocale == "" {
			return nil, notFound("no dimension for locale %q", attrs.Locale)
		}
		if merged.ResolvedLocale != attrs.Locale {
			a.logger.Debug("dimension locale fallback",
				"resource_key", entity.ResourceKey(),
				"resource_id", entity.ResourceID(),
				"requested_locale", attrs.Locale,
				"resolved_locale", merged.ResolvedLocale)
		}
		merged.Locale = attrs.Locale
	}

	merged.merged = true
	return merged, nil
}

func requiredAttributes(entity Entity) []string {
	if p, ok := entity.(RequiredAttributesProvider); ok {
		return p.RequiredAttributes()
	}
	return []string{AttributeLocale}
}

// mergeDimensions combines rows field by field, later rows winning.
func mergeDimensions(entity Entity, rows []*DimensionContent) *DimensionContent {
	merged := &DimensionContent{
		ResourceKey: entity.ResourceKey(),
		ResourceID:  entity.ResourceID(),
		Data:        map[string]any{},
	}

	for _, row := range rows {
		merged.ID = row.ID
		if row.TemplateKey != "" {
			merged.TemplateKey = row.TemplateKey
		}
		if row.IsLocalized() {
			merged.ResolvedLocale = row.Locale
		}
		if merged.CreatedAt.IsZero() || (!row.CreatedAt.IsZero() && row.CreatedAt.Before(merged.CreatedAt)) {
			merged.CreatedAt = row.CreatedAt
		}
		if row.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = row.UpdatedAt
		}

		for field, value := range row.Data {
			merged.Data[field] = cloneValue(value)
		}
		for name, data := range row.Extensions {
			if merged.Extensions == nil {
				merged.Extensions = map[string]map[string]any{}
			}
			ext := merged.Extensions[name]
			if ext == nil {
				ext = map[string]any{}
				merged.Extensions[name] = ext
			}
			for field, value := range data {
				ext[field] = cloneValue(value)
			}
		}
	}

	return merged
}

func availableLocales(rows []*DimensionContent, stage Stage) []string {
	seen := map[string]bool{}
	var locales []string
	for _, row := range rows {
		if row == nil || !row.IsLocalized() || row.Stage != stage || seen[row.Locale] {
			continue
		}
		seen[row.Locale] = true
		locales = append(locales, row.Locale)
	}
	sort.Strings(locales)
	return locales
}
