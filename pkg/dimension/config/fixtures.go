package config

import (
	"context"
	"fmt"
	"os"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
	"gopkg.in/yaml.v3"
)

// Fixtures are dimension rows and static resources loaded from a YAML file.
// They seed the memory repository and back the static loaders.
type Fixtures struct {
	Dimensions []FixtureDimension `yaml:"dimensions"`

	// Resources maps loader key to id to resource; Localized adds locale
	// specific entries per loader key.
	Resources map[string]map[string]any            `yaml:"resources"`
	Localized map[string]map[string]map[string]any `yaml:"localized"`

	// Links holds link targets per provider, Teasers teasers per resource type.
	Links   map[string][]*loader.LinkItem `yaml:"links"`
	Teasers map[string][]*loader.Teaser   `yaml:"teasers"`
}

// FixtureDimension is one stored dimension row.
type FixtureDimension struct {
	ResourceKey string                    `yaml:"resource_key"`
	ResourceID  string                    `yaml:"resource_id"`
	Locale      string                    `yaml:"locale"`
	Stage       dimension.Stage           `yaml:"stage"`
	TemplateKey string                    `yaml:"template_key"`
	Data        map[string]any            `yaml:"data"`
	Extensions  map[string]map[string]any `yaml:"extensions"`
}

// LoadFixtures reads fixtures from path.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures decodes fixtures from YAML.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	for i, d := range f.Dimensions {
		if d.ResourceKey == "" || d.ResourceID == "" {
			return nil, fmt.Errorf("fixture dimension %d has no resource", i)
		}
		if d.Stage == "" {
			f.Dimensions[i].Stage = dimension.StageDraft
		}
	}
	return &f, nil
}

// Seed saves every fixture dimension.
func (f *Fixtures) Seed(ctx context.Context, w dimension.DimensionWriter) error {
	for _, d := range f.Dimensions {
		dc := &dimension.DimensionContent{
			ResourceKey: d.ResourceKey,
			ResourceID:  d.ResourceID,
			Locale:      d.Locale,
			Stage:       d.Stage,
			TemplateKey: d.TemplateKey,
			Data:        d.Data,
			Extensions:  d.Extensions,
		}
		if err := w.SaveDimension(ctx, dc); err != nil {
			return fmt.Errorf("failed to seed %s %s: %w", d.ResourceKey, d.ResourceID, err)
		}
	}
	return nil
}

// StaticLoader returns the static loader for loaderKey.
func (f *Fixtures) StaticLoader(loaderKey string) *loader.StaticLoader {
	l := loader.NewStaticLoader(f.Resources[loaderKey])
	for locale, resources := range f.Localized[loaderKey] {
		for id, res := range resources {
			l.Set(locale, id, res)
		}
	}
	return l
}

// LinkProvider serves the link targets of provider.
func (f *Fixtures) LinkProvider(provider string) loader.LinkProvider {
	byID := map[string]*loader.LinkItem{}
	for _, item := range f.Links[provider] {
		if item != nil {
			byID[item.ID] = item
		}
	}
	return loader.LinkProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.LinkItem, error) {
		items := make([]*loader.LinkItem, 0, len(ids))
		for _, id := range ids {
			if item, ok := byID[id]; ok {
				items = append(items, item)
			}
		}
		return items, nil
	})
}

// TeaserProvider serves the teasers of resourceType. Teasers without a locale
// match every locale.
func (f *Fixtures) TeaserProvider(resourceType string) loader.TeaserProvider {
	teasers := f.Teasers[resourceType]
	return loader.TeaserProviderFunc(func(ctx context.Context, ids []string, locale string) ([]*loader.Teaser, error) {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		var out []*loader.Teaser
		for _, t := range teasers {
			if t != nil && wanted[t.ID] && (t.Locale == "" || t.Locale == locale) {
				out = append(out, t)
			}
		}
		return out, nil
	})
}
