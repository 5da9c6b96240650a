package property_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/property"
)

var textBlock = &metadata.FormMetadata{
	Key: "text_block",
	Items: []metadata.FieldMetadata{
		{Name: "title", Type: "text_line"},
		{Name: "description", Type: "text_area"},
	},
}

func blockParams(field metadata.FieldMetadata) dimension.Params {
	return dimension.Params{dimension.ParamMetadata: &field}
}

func TestBlockResolverSingleBlock(t *testing.T) {
	provider := property.NewStandardProvider(metadata.NewRegistry())
	field := metadata.FieldMetadata{
		Name:      "block",
		Type:      property.TypeBlock,
		MinOccurs: metadata.Occurs(1),
		MaxOccurs: metadata.Occurs(1),
		Types:     []*metadata.FormMetadata{textBlock},
	}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{
		map[string]any{"type": "text_block", "title": "Sulu", "description": "Sulu is awesome"},
	}, "en", blockParams(field))

	assert.Equal(t, map[string]any{
		"type":        "text_block",
		"title":       dimension.NewContentView("Sulu", map[string]any{}),
		"description": dimension.NewContentView("Sulu is awesome", map[string]any{}),
	}, cv.Content())
	assert.Empty(t, cv.View())
}

func TestBlockResolverList(t *testing.T) {
	provider := property.NewStandardProvider(metadata.NewRegistry())
	field := metadata.FieldMetadata{
		Name:  "block",
		Type:  property.TypeBlock,
		Types: []*metadata.FormMetadata{textBlock},
	}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{
		map[string]any{"type": "text_block", "title": "Sulu", "description": "Sulu is awesome", "leaked": "x"},
	}, "en", blockParams(field))

	assert.Equal(t, []any{
		map[string]any{
			"type":        "text_block",
			"title":       dimension.NewContentView("Sulu", map[string]any{}),
			"description": dimension.NewContentView("Sulu is awesome", map[string]any{}),
		},
	}, cv.Content())
}

func TestBlockResolverNested(t *testing.T) {
	editor := &metadata.FormMetadata{
		Key:   "editor",
		Items: []metadata.FieldMetadata{{Name: "text", Type: "text_editor"}},
	}
	media := &metadata.FormMetadata{
		Key:   "media",
		Items: []metadata.FieldMetadata{{Name: "media", Type: property.TypeSingleMediaSelection}},
	}
	nested := &metadata.FormMetadata{
		Key: "block",
		Items: []metadata.FieldMetadata{
			{Name: "blocks", Type: property.TypeBlock, Types: []*metadata.FormMetadata{editor, media}},
		},
	}
	provider := property.NewStandardProvider(metadata.NewRegistry())
	field := metadata.FieldMetadata{Name: "blocks", Type: property.TypeBlock, Types: []*metadata.FormMetadata{nested}}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{
		map[string]any{
			"type": "block",
			"blocks": []any{
				map[string]any{"type": "editor", "text": "<p>Hello</p>"},
				map[string]any{"type": "media", "media": map[string]any{"id": float64(3)}},
			},
		},
	}, "en", blockParams(field))

	outer := cv.Content().([]any)
	require.Len(t, outer, 1)
	depth0 := outer[0].(map[string]any)
	assert.Equal(t, "block", depth0["type"])

	inner := depth0["blocks"].(dimension.ContentView).Content().([]any)
	require.Len(t, inner, 2)

	first := inner[0].(map[string]any)
	assert.Equal(t, "editor", first["type"])
	assert.Equal(t, "<p>Hello</p>", first["text"].(dimension.ContentView).Content())

	second := inner[1].(map[string]any)
	assert.Equal(t, "media", second["type"])
	res := second["media"].(dimension.ContentView).Content().(*dimension.ResolvableResource)
	assert.Equal(t, "3", res.ID)
}

func TestBlockResolverSkipsInvalidEntries(t *testing.T) {
	provider := property.NewStandardProvider(metadata.NewRegistry(textBlock))
	field := metadata.FieldMetadata{Name: "block", Type: property.TypeBlock}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{
		"not a block",
		map[string]any{"title": "no type"},
		map[string]any{"type": "unknown"},
		map[string]any{"type": "text_block", "title": "kept"},
	}, "en", blockParams(field))

	blocks := cv.Content().([]any)
	require.Len(t, blocks, 1)
	assert.Equal(t, "kept", blocks[0].(map[string]any)["title"].(dimension.ContentView).Content())
}

func TestBlockResolverDeclaredTypesRestrict(t *testing.T) {
	other := &metadata.FormMetadata{Key: "other", Items: []metadata.FieldMetadata{{Name: "x", Type: "text_line"}}}
	provider := property.NewStandardProvider(metadata.NewRegistry(textBlock))
	field := metadata.FieldMetadata{Name: "block", Type: property.TypeBlock, Types: []*metadata.FormMetadata{other}}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{
		map[string]any{"type": "text_block", "title": "registered but not allowed"},
	}, "en", blockParams(field))
	assert.Equal(t, []any{}, cv.Content())
}

func TestBlockResolverSingleWithoutBlocks(t *testing.T) {
	provider := property.NewStandardProvider(metadata.NewRegistry())
	field := metadata.FieldMetadata{
		Name:      "block",
		Type:      property.TypeBlock,
		MinOccurs: metadata.Occurs(1),
		MaxOccurs: metadata.Occurs(1),
		Types:     []*metadata.FormMetadata{textBlock},
	}

	cv := provider.Resolve(context.Background(), property.TypeBlock, []any{}, "en", blockParams(field))
	assert.Nil(t, cv.Content())
}

func TestBlockResolverDepthLimit(t *testing.T) {
	recursive := &metadata.FormMetadata{Key: "nest"}
	recursive.Items = []metadata.FieldMetadata{
		{Name: "children", Type: property.TypeBlock, Types: []*metadata.FormMetadata{recursive}},
	}
	provider := property.NewStandardProvider(metadata.NewRegistry(), property.WithMaxBlockDepth(2))
	field := metadata.FieldMetadata{Name: "children", Type: property.TypeBlock, Types: []*metadata.FormMetadata{recursive}}

	data := []any{map[string]any{"type": "nest", "children": []any{
		map[string]any{"type": "nest", "children": []any{
			map[string]any{"type": "nest"},
		}},
	}}}

	cv := provider.Resolve(context.Background(), property.TypeBlock, data, "en", blockParams(field))
	level0 := cv.Content().([]any)[0].(map[string]any)
	level1 := level0["children"].(dimension.ContentView).Content().([]any)
	require.Len(t, level1, 1)
	level2 := level1[0].(map[string]any)["children"].(dimension.ContentView).Content()
	assert.Equal(t, []any{}, level2)
}
