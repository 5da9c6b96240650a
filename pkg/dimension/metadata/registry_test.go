package metadata_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
)

const formsYAML = `
forms:
  - key: default
    title: Default page
    items:
      - name: title
        type: text_line
      - name: content
        type: section
        items:
          - name: blocks
            type: block
            minOccurs: 1
            maxOccurs: 1
            types:
              - key: text_block
                items:
                  - name: text
                    type: text_editor
      - name: link
        type: link
        params:
          resourceLoader: link
`

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/pages.yaml": &fstest.MapFile{Data: []byte(formsYAML)},
		"forms/seo.yaml":   &fstest.MapFile{Data: []byte("forms:\n  - key: seo\n    items:\n      - name: title\n        type: text_line\n")},
		"forms/README.md":  &fstest.MapFile{Data: []byte("not a form")},
	}

	r := metadata.NewRegistry()
	require.NoError(t, r.LoadYAML(fsys, "forms/*.yaml"))
	assert.Equal(t, []string{"default", "seo"}, r.Keys())

	form, err := r.GetFormMetadata(context.Background(), "default")
	require.NoError(t, err)

	fields := form.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"title", "blocks", "link"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})

	blocks := form.GetField("blocks")
	require.NotNil(t, blocks)
	assert.True(t, blocks.IsSingle())
	require.NotNil(t, blocks.GetType("text_block"))
	assert.Nil(t, blocks.GetType("missing"))
	assert.Equal(t, "link", form.GetField("link").Params["resourceLoader"])
}

func TestParseYAMLRequiresKey(t *testing.T) {
	_, err := metadata.ParseYAML([]byte("forms:\n  - title: nameless\n"))
	assert.Error(t, err)

	_, err = metadata.ParseYAML([]byte("forms: [\n"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := metadata.NewRegistry(&metadata.FormMetadata{Key: "a"})

	_, err := r.GetFormMetadata(context.Background(), "b")
	assert.ErrorIs(t, err, metadata.ErrFormNotFound)

	r.Register(&metadata.FormMetadata{Key: "b"})
	_, err = r.GetFormMetadata(context.Background(), "b")
	assert.NoError(t, err)

	r.Load([]*metadata.FormMetadata{{Key: "c"}})
	assert.Equal(t, []string{"c"}, r.Keys())
}

func TestIsSingle(t *testing.T) {
	assert.False(t, (&metadata.FieldMetadata{}).IsSingle())
	assert.False(t, (&metadata.FieldMetadata{MinOccurs: metadata.Occurs(1)}).IsSingle())
	assert.False(t, (&metadata.FieldMetadata{MinOccurs: metadata.Occurs(0), MaxOccurs: metadata.Occurs(1)}).IsSingle())
	assert.True(t, (&metadata.FieldMetadata{MinOccurs: metadata.Occurs(1), MaxOccurs: metadata.Occurs(1)}).IsSingle())
}
