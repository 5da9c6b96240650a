// Package metadata describes the forms which declare the fields of a template,
// a block type or a content extension.
package metadata

import (
	"context"
	"errors"
)

// ErrFormNotFound indicates no form is registered under the requested key.
var ErrFormNotFound = errors.New("form metadata not found")

// TypeSection groups nested fields without adding a level to the data.
const TypeSection = "section"

// Resolver supplies form metadata by form key.
type Resolver interface {
	GetFormMetadata(ctx context.Context, key string) (*FormMetadata, error)
}

// FormMetadata is an ordered list of field definitions.
type FormMetadata struct {
	Key   string          `json:"key" yaml:"key"`
	Title string          `json:"title,omitempty" yaml:"title,omitempty"`
	Items []FieldMetadata `json:"items" yaml:"items"`
}

// FieldMetadata defines one field of a form.
type FieldMetadata struct {
	Name        string          `json:"name" yaml:"name"`
	Type        string          `json:"type" yaml:"type"`
	MinOccurs   *int            `json:"min_occurs,omitempty" yaml:"minOccurs,omitempty"`
	MaxOccurs   *int            `json:"max_occurs,omitempty" yaml:"maxOccurs,omitempty"`
	Params      map[string]any  `json:"params,omitempty" yaml:"params,omitempty"`
	DefaultType string          `json:"default_type,omitempty" yaml:"defaultType,omitempty"`
	Types       []*FormMetadata `json:"types,omitempty" yaml:"types,omitempty"`
	Items       []FieldMetadata `json:"items,omitempty" yaml:"items,omitempty"`
}

// IsSingle reports whether the field holds exactly one entry, which makes a
// block field behave like one structured object instead of a list.
func (f *FieldMetadata) IsSingle() bool {
	return f.MinOccurs != nil && f.MaxOccurs != nil && *f.MinOccurs == 1 && *f.MaxOccurs == 1
}

// GetType returns the nested form declared for the given block type, or nil.
func (f *FieldMetadata) GetType(name string) *FormMetadata {
	for _, t := range f.Types {
		if t != nil && t.Key == name {
			return t
		}
	}
	return nil
}

// Fields returns the fields of the form with sections flattened, in
// declaration order.
func (m *FormMetadata) Fields() []FieldMetadata {
	if m == nil {
		return nil
	}
	return flatten(m.Items)
}

// GetField returns the field with the given name, looking into sections.
func (m *FormMetadata) GetField(name string) *FieldMetadata {
	for _, f := range m.Fields() {
		if f.Name == name {
			field := f
			return &field
		}
	}
	return nil
}

func flatten(items []FieldMetadata) []FieldMetadata {
	var out []FieldMetadata
	for _, item := range items {
		if item.Type == TypeSection {
			out = append(out, flatten(item.Items)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// Occurs returns a pointer to n, for building cardinality constraints.
func Occurs(n int) *int {
	return &n
}
