package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/loader"
	"github.com/tendant/content-dimension/pkg/dimension/loader/s3media"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/property"
	"github.com/tendant/content-dimension/pkg/dimension/repo/memory"
	repopg "github.com/tendant/content-dimension/pkg/dimension/repo/postgres"
	"github.com/tendant/content-dimension/pkg/dimension/search"
	searchmemory "github.com/tendant/content-dimension/pkg/dimension/search/memory"
	searchredis "github.com/tendant/content-dimension/pkg/dimension/search/redis"
)

// Repository reads and writes dimension rows.
type Repository interface {
	dimension.DimensionRepository
	dimension.DimensionWriter
}

// Services are the assembled components of the service.
type Services struct {
	Repository Repository
	Forms      *metadata.Registry
	Provider   *property.Provider
	Aggregator *dimension.Aggregator
	Resolver   *dimension.Resolver
	Engine     search.Engine
	Indexer    *search.Indexer
	Fixtures   *Fixtures

	closers []func()
}

// Close releases database and redis connections.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// BuildServices creates every component from the server configuration
func (c *ServerConfig) BuildServices(ctx context.Context, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Services{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	fixtures := &Fixtures{}
	if c.FixturesFile != "" {
		loaded, err := LoadFixtures(c.FixturesFile)
		if err != nil {
			return nil, err
		}
		fixtures = loaded
	}
	s.Fixtures = fixtures

	repo, err := c.buildRepository(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	s.Repository = repo
	if err := fixtures.Seed(ctx, repo); err != nil {
		return nil, err
	}

	s.Forms = metadata.NewRegistry()
	if c.FormsDir != "" {
		if err := s.Forms.LoadYAML(os.DirFS(c.FormsDir), c.FormsPattern); err != nil {
			return nil, fmt.Errorf("failed to load forms: %w", err)
		}
	}

	propertyOpts := []property.Option{property.WithLogger(logger), property.WithDebug(c.Debug)}
	if c.MaxBlockDepth > 0 {
		propertyOpts = append(propertyOpts, property.WithMaxBlockDepth(c.MaxBlockDepth))
	}
	s.Provider = property.NewStandardProvider(s.Forms, propertyOpts...)

	policy := dimension.DefaultPolicy{LocaleFallbacks: c.LocaleFallbacks}
	if c.LiveFallsBack {
		policy.StageFallbacks = map[dimension.Stage]dimension.Stage{dimension.StageLive: dimension.StageDraft}
	}
	s.Aggregator, err = dimension.NewAggregator(repo,
		dimension.WithSelectionPolicy(policy),
		dimension.WithAggregatorLogger(logger))
	if err != nil {
		return nil, err
	}

	resolverOpts, err := c.resolverOptions(fixtures, s.Forms, logger)
	if err != nil {
		return nil, err
	}
	s.Resolver, err = dimension.NewResolver(s.Provider, s.Forms, resolverOpts...)
	if err != nil {
		return nil, err
	}

	s.Engine, err = c.buildSearchEngine(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to build search engine: %w", err)
	}
	s.Indexer, err = search.NewIndexer(s.Aggregator, s.Resolver, s.Engine,
		search.WithIndexes(c.Indexes...),
		search.WithLocales(c.Locales...),
		search.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ok = true
	return s, nil
}

func (c *ServerConfig) resolverOptions(fixtures *Fixtures, forms *metadata.Registry, logger *slog.Logger) ([]dimension.ResolverOption, error) {
	opts := []dimension.ResolverOption{
		dimension.WithResolverLogger(logger),
		dimension.WithMaxParallelLoads(c.MaxParallelLoads),
		dimension.WithResourceLoader(loader.KeyCategory, fixtures.StaticLoader(loader.KeyCategory)),
		dimension.WithResourceLoader(loader.KeyPage, fixtures.StaticLoader(loader.KeyPage)),
		dimension.WithResourceLoader(loader.KeySnippet, fixtures.StaticLoader(loader.KeySnippet)),
	}

	switch c.MediaBackend {
	case "s3":
		media, err := s3media.New(s3media.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
			PresignDuration: int(c.S3.PresignDuration / time.Second),
			KeyPrefix:       c.S3.KeyPrefix,
			VerifyExists:    c.S3.VerifyExists,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build media loader: %w", err)
		}
		opts = append(opts, dimension.WithResourceLoader(loader.KeyMedia, media))
	default:
		opts = append(opts, dimension.WithResourceLoader(loader.KeyMedia, fixtures.StaticLoader(loader.KeyMedia)))
	}

	links := loader.NewLinkLoader(logger)
	for provider := range fixtures.Links {
		links.Register(provider, fixtures.LinkProvider(provider))
	}
	teasers := loader.NewTeaserLoader(logger)
	for resourceType := range fixtures.Teasers {
		teasers.Register(resourceType, fixtures.TeaserProvider(resourceType))
	}
	opts = append(opts,
		dimension.WithResourceLoader(loader.KeyLink, links),
		dimension.WithResourceLoader(loader.KeyTeaser, teasers))

	names := make([]string, 0, len(c.Extensions))
	for name := range c.Extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		formKey := c.Extensions[name]
		if _, err := forms.GetFormMetadata(context.Background(), formKey); err != nil {
			if errors.Is(err, metadata.ErrFormNotFound) {
				logger.Warn("extension form not registered, skipping", "extension", name, "form", formKey)
				continue
			}
			return nil, err
		}
		opts = append(opts, dimension.WithExtension(name, formKey))
	}

	return opts, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, s *Services) (Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildSearchEngine(ctx context.Context, s *Services) (search.Engine, error) {
	switch c.SearchEngine {
	case "memory":
		return searchmemory.New(), nil
	case "redis":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := searchredis.Connect(pingCtx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		return searchredis.New(rdb, c.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported search engine: %s", c.SearchEngine)
	}
}
