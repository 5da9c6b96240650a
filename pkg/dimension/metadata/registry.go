package metadata

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry is an in-memory Resolver.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*FormMetadata
}

// NewRegistry creates a registry holding the given forms.
func NewRegistry(forms ...*FormMetadata) *Registry {
	r := &Registry{forms: make(map[string]*FormMetadata, len(forms))}
	for _, f := range forms {
		if f != nil {
			r.forms[f.Key] = f
		}
	}
	return r
}

// GetFormMetadata returns the form registered under key.
func (r *Registry) GetFormMetadata(ctx context.Context, key string) (*FormMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	form, ok := r.forms[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, key)
	}
	return form, nil
}

// Register adds or replaces forms.
func (r *Registry) Register(forms ...*FormMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range forms {
		if f != nil {
			r.forms[f.Key] = f
		}
	}
}

// Load replaces all forms in the registry.
func (r *Registry) Load(forms []*FormMetadata) {
	next := make(map[string]*FormMetadata, len(forms))
	for _, f := range forms {
		if f != nil {
			next[f.Key] = f
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = next
}

// Keys returns the registered form keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.forms))
	for k := range r.forms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formsFile is the on-disk layout: one or more forms per YAML file.
type formsFile struct {
	Forms []*FormMetadata `yaml:"forms"`
}

// LoadYAML reads every file of fsys matching pattern and registers the forms
// it declares.
func (r *Registry) LoadYAML(fsys fs.FS, pattern string) error {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("invalid form pattern %q: %w", pattern, err)
	}

	var forms []*FormMetadata
	for _, path := range paths {
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read forms %s: %w", path, err)
		}
		parsed, err := ParseYAML(raw)
		if err != nil {
			return fmt.Errorf("failed to parse forms %s: %w", path, err)
		}
		forms = append(forms, parsed...)
	}

	r.Register(forms...)
	return nil
}

// ParseYAML decodes forms from YAML.
func ParseYAML(raw []byte) ([]*FormMetadata, error) {
	var file formsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	for i, f := range file.Forms {
		if f == nil || f.Key == "" {
			return nil, fmt.Errorf("form %d has no key", i)
		}
	}
	return file.Forms, nil
}
