package presets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/config"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/search"
	"gopkg.in/yaml.v3"
)

// Configuration Presets
//
// This package assembles the services for common setups so callers do not
// repeat the configuration boilerplate.

// NewDevelopment creates services for local development.
//
// Features:
//   - In-memory repository seeded from ./fixtures.yaml when present
//   - Forms read from ./forms
//   - Debug logging
//   - Draft and live indexes for every key passed to WithDevIndexes
func NewDevelopment(ctx context.Context, opts ...DevelopmentOption) (*config.Services, *config.ServerConfig, error) {
	cfg := &devConfig{
		formsDir: "./forms",
		fixtures: "./fixtures.yaml",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	options := []config.Option{
		config.WithDatabase("memory", ""),
		config.WithForms(cfg.formsDir, "*.yaml"),
		config.WithDebug(true),
	}
	if _, err := os.Stat(cfg.fixtures); err == nil {
		options = append(options, config.WithFixtures(cfg.fixtures))
	}
	for _, key := range cfg.indexKeys {
		options = append(options, config.WithSearchIndexes(
			search.IndexDefinition{Name: key + "_draft", ResourceKey: key, Stage: dimension.StageDraft},
			search.IndexDefinition{Name: key + "_live", ResourceKey: key, Stage: dimension.StageLive},
		))
	}

	serverConfig, err := config.Load(options...)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	services, err := serverConfig.BuildServices(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	return services, serverConfig, nil
}

// NewTesting creates in-memory services for tests. Forms and fixtures are
// written to a temporary directory and loaded through the regular
// configuration path. The services are closed when the test completes.
func NewTesting(t testing.TB, opts ...TestingOption) *config.Services {
	t.Helper()

	cfg := &testConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	dir := t.TempDir()
	options := []config.Option{config.WithDatabase("memory", "")}

	if len(cfg.forms) > 0 {
		raw, err := yaml.Marshal(map[string]any{"forms": cfg.forms})
		if err != nil {
			t.Fatalf("failed to encode test forms: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "forms.yaml"), raw, 0o644); err != nil {
			t.Fatalf("failed to write test forms: %v", err)
		}
		options = append(options, config.WithForms(dir, "forms.yaml"))
	}

	if cfg.fixtures != "" {
		path := filepath.Join(dir, "fixtures.yaml")
		if err := os.WriteFile(path, []byte(cfg.fixtures), 0o644); err != nil {
			t.Fatalf("failed to write test fixtures: %v", err)
		}
		options = append(options, config.WithFixtures(path))
	}

	if len(cfg.indexes) > 0 {
		options = append(options, config.WithSearchIndexes(cfg.indexes...))
	}
	if len(cfg.locales) > 0 {
		options = append(options, config.WithLocales(cfg.locales...))
	}

	serverConfig, err := config.Load(options...)
	if err != nil {
		t.Fatalf("failed to load test configuration: %v", err)
	}

	services, err := serverConfig.BuildServices(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create test services: %v", err)
	}
	t.Cleanup(services.Close)

	return services
}

// NewProduction creates services from the environment.
//
// Required Environment Variables:
//   - DATABASE_TYPE: "postgres"
//   - DATABASE_URL: PostgreSQL connection string
//   - FORMS_DIR: directory of form metadata
//
// Options are applied after the environment.
func NewProduction(ctx context.Context, logger *slog.Logger, opts ...config.Option) (*config.Services, error) {
	serverConfig, err := config.Load(append([]config.Option{config.WithEnv()}, opts...)...)
	if err != nil {
		return nil, err
	}

	if serverConfig.DatabaseType != "postgres" {
		return nil, fmt.Errorf("production preset requires DATABASE_TYPE=postgres, got %q", serverConfig.DatabaseType)
	}
	if serverConfig.FormsDir == "" {
		return nil, errors.New("FORMS_DIR is required for production")
	}
	if serverConfig.FixturesFile != "" {
		return nil, errors.New("fixtures are not allowed in production")
	}

	return serverConfig.BuildServices(ctx, logger)
}

type devConfig struct {
	formsDir  string
	fixtures  string
	indexKeys []string
}

type testConfig struct {
	forms    []*metadata.FormMetadata
	fixtures string
	indexes  []search.IndexDefinition
	locales  []string
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevForms sets the forms directory
func WithDevForms(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.formsDir = dir
	}
}

// WithDevFixtures sets the fixtures file
func WithDevFixtures(path string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.fixtures = path
	}
}

// WithDevIndexes adds draft and live indexes for the resource keys
func WithDevIndexes(resourceKeys ...string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.indexKeys = append(cfg.indexKeys, resourceKeys...)
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestForms registers forms
func WithTestForms(forms ...*metadata.FormMetadata) TestingOption {
	return func(cfg *testConfig) {
		cfg.forms = append(cfg.forms, forms...)
	}
}

// WithTestFixtures seeds the repository and loaders from fixtures YAML
func WithTestFixtures(raw string) TestingOption {
	return func(cfg *testConfig) {
		cfg.fixtures = raw
	}
}

// WithTestIndexes configures search indexes
func WithTestIndexes(defs ...search.IndexDefinition) TestingOption {
	return func(cfg *testConfig) {
		cfg.indexes = append(cfg.indexes, defs...)
	}
}

// WithTestLocales sets the locales known to the indexer
func WithTestLocales(locales ...string) TestingOption {
	return func(cfg *testConfig) {
		cfg.locales = locales
	}
}
