package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testForms = `
forms:
  - key: article
    items:
      - name: title
        type: text_line
      - name: categories
        type: category_selection
`

const testFixtures = `
dimensions:
  - resource_key: articles
    resource_id: "1"
    template_key: article
    data:
      categories: ["c1", "c2"]
  - resource_key: articles
    resource_id: "1"
    locale: en
    template_key: article
    data:
      title: Hello
resources:
  category:
    c1:
      name: News
`

func setupFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "article.yaml"), []byte(testForms), 0o644))
	fixtures := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte(testFixtures), 0o644))
	return dir, fixtures
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	forms, fixtures := setupFiles(t)

	out, err := run(t, "resolve", "articles", "1", "--forms", forms, "--fixtures", fixtures, "--locale", "en")
	require.NoError(t, err)

	var resolved map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	content := resolved["content"].(map[string]any)
	assert.Equal(t, "Hello", content["title"])
	// c2 has no fixture
	assert.Equal(t, []any{map[string]any{"name": "News"}, nil}, content["categories"])
}

func TestResolveCommandErrors(t *testing.T) {
	forms, fixtures := setupFiles(t)

	_, err := run(t, "resolve", "articles", "2", "--forms", forms, "--fixtures", fixtures, "--locale", "en")
	assert.Error(t, err)

	_, err = run(t, "resolve", "articles", "1", "--forms", forms, "--locale", "en", "--stage", "preview")
	assert.ErrorContains(t, err, "invalid stage")

	_, err = run(t, "resolve", "articles")
	assert.Error(t, err)
}

func TestIndexCommand(t *testing.T) {
	forms, fixtures := setupFiles(t)
	t.Setenv("SEARCH_INDEXES", "articles_draft:articles:draft")

	out, err := run(t, "index", "articles", "1", "--forms", forms, "--fixtures", fixtures, "--locale", "en")
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_id":"articles-1-en","indexes":["articles_draft"]}`, out)
}

func TestFormsCommand(t *testing.T) {
	forms, _ := setupFiles(t)

	out, err := run(t, "forms", "--forms", forms)
	require.NoError(t, err)
	assert.Equal(t, "article\n", out)
}

func TestEnvCommand(t *testing.T) {
	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "FORMS_DIR")
}
