package dimension

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the workflow state of a dimension.
type Stage string

// Stage constants.
const (
	StageDraft Stage = "draft"
	StageLive  Stage = "live"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s == StageDraft || s == StageLive
}

// Attribute keys used for RequiredAttributes.
const (
	AttributeLocale = "locale"
	AttributeStage  = "stage"
)

// Attributes select a dimension of a content entity.
//
// An empty Locale means no locale was requested. An empty Stage defaults to
// StageDraft.
type Attributes struct {
	Locale string `json:"locale,omitempty"`
	Stage  Stage  `json:"stage,omitempty"`
}

// WithDefaults returns a copy of the attributes with the stage defaulted.
func (a Attributes) WithDefaults() Attributes {
	if a.Stage == "" {
		a.Stage = StageDraft
	}
	return a
}

// Has reports whether the attribute with the given key is set.
func (a Attributes) Has(key string) bool {
	switch key {
	case AttributeLocale:
		return a.Locale != ""
	case AttributeStage:
		return a.Stage != ""
	default:
		return false
	}
}

// Entity is a content-bearing entity which owns dimension rows.
type Entity interface {
	ResourceKey() string
	ResourceID() string
}

// RequiredAttributesProvider is implemented by entities which require a
// different set of dimension attributes than the default (locale only).
type RequiredAttributesProvider interface {
	RequiredAttributes() []string
}

// Reference is a plain Entity identified by resource key and id.
type Reference struct {
	Key string `json:"resource_key"`
	ID  string `json:"resource_id"`
}

// NewReference creates a reference to the given resource.
func NewReference(resourceKey, resourceID string) Reference {
	return Reference{Key: resourceKey, ID: resourceID}
}

func (r Reference) ResourceKey() string { return r.Key }
func (r Reference) ResourceID() string  { return r.ID }

// DimensionContent is one stored variant of a content entity, or the merged
// result of several variants.
//
// Locale is empty for locale independent rows. Data holds the raw template
// fields, Extensions the raw data of additional forms such as excerpt or seo.
type DimensionContent struct {
	ID          uuid.UUID                 `json:"id"`
	ResourceKey string                    `json:"resource_key"`
	ResourceID  string                    `json:"resource_id"`
	Locale      string                    `json:"locale,omitempty"`
	Stage       Stage                     `json:"stage"`
	TemplateKey string                    `json:"template_key,omitempty"`
	Data        map[string]any            `json:"data"`
	Extensions  map[string]map[string]any `json:"extensions,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`

	// Set by the Aggregator only.
	ResolvedLocale   string   `json:"resolved_locale,omitempty"`
	AvailableLocales []string `json:"available_locales,omitempty"`
	merged           bool
}

// IsMerged reports whether the value was produced by the Aggregator.
func (d *DimensionContent) IsMerged() bool {
	return d != nil && d.merged
}

// MarkMerged flags the content as merged. Repositories never call it; it exists
// for callers which assemble effective content by other means, such as tests.
func (d *DimensionContent) MarkMerged() {
	d.merged = true
}

// IsLocalized reports whether the row belongs to a specific locale.
func (d *DimensionContent) IsLocalized() bool {
	return d.Locale != ""
}

// Attributes returns the dimension attributes of the row.
func (d *DimensionContent) Attributes() Attributes {
	return Attributes{Locale: d.Locale, Stage: d.Stage}
}

// Clone returns a deep copy of the content. Nested maps and slices in the
// field data are copied as well.
func (d *DimensionContent) Clone() *DimensionContent {
	if d == nil {
		return nil
	}
	c := *d
	c.Data = cloneMap(d.Data)
	if d.Extensions != nil {
		c.Extensions = make(map[string]map[string]any, len(d.Extensions))
		for name, data := range d.Extensions {
			c.Extensions[name] = cloneMap(data)
		}
	}
	if d.AvailableLocales != nil {
		c.AvailableLocales = append([]string(nil), d.AvailableLocales...)
	}
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
