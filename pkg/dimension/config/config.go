package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "content",
		FormsPattern: "*.yaml",
		MediaBackend: "static",
		SearchEngine: "memory",
		RedisPrefix:  "content-dimension:",
		Locales:      []string{"en"},
		Extensions:   map[string]string{"excerpt": "excerpt", "seo": "seo"},
		S3: S3Config{
			Region:          "us-east-1",
			PresignDuration: time.Hour,
			KeyPrefix:       "media/",
		},
	}
}

// ServerConfig represents the configuration of the content dimension service
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-description:"HTTP listen port"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-description:"development, production, testing"`
	Debug       bool   `yaml:"debug" env:"DEBUG" env-description:"log unknown property types and skipped blocks"`

	// Database configuration
	DatabaseType string `yaml:"database_type" env:"DATABASE_TYPE" env-description:"memory or postgres"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL" env-description:"postgres connection string"`
	DBSchema     string `yaml:"db_schema" env:"DB_SCHEMA" env-description:"postgres search_path"`
	AutoMigrate  bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE" env-description:"create the dimension table on startup"`

	// Forms and fixtures
	FormsDir     string `yaml:"forms_dir" env:"FORMS_DIR" env-description:"directory of form metadata YAML files"`
	FormsPattern string `yaml:"forms_pattern" env:"FORMS_PATTERN" env-description:"glob of form files inside FORMS_DIR"`
	FixturesFile string `yaml:"fixtures_file" env:"FIXTURES_FILE" env-description:"YAML file with dimensions and static resources"`

	// Resolution
	Locales          []string          `yaml:"locales" env:"LOCALES" env-separator:"," env-description:"known locales"`
	LocaleFallbacks  FallbackMap       `yaml:"locale_fallbacks" env:"LOCALE_FALLBACKS" env-description:"locale fallbacks, e.g. de-AT:de|en,en-GB:en"`
	LiveFallsBack    bool              `yaml:"live_falls_back" env:"LIVE_FALLS_BACK" env-description:"use the draft structure row for live content without one"`
	Extensions       map[string]string `yaml:"extensions" env:"EXTENSIONS" env-description:"extension name to form key, e.g. seo:seo"`
	MaxParallelLoads int               `yaml:"max_parallel_loads" env:"MAX_PARALLEL_LOADS" env-description:"concurrent resource loader calls, 0 for unlimited"`
	MaxBlockDepth    int               `yaml:"max_block_depth" env:"MAX_BLOCK_DEPTH" env-description:"nested block limit, 0 for the default"`

	// Media
	MediaBackend string   `yaml:"media_backend" env:"MEDIA_BACKEND" env-description:"static or s3"`
	S3           S3Config `yaml:"s3"`

	// Search
	SearchEngine  string    `yaml:"search_engine" env:"SEARCH_ENGINE" env-description:"memory or redis"`
	RedisAddr     string    `yaml:"redis_addr" env:"REDIS_ADDR" env-description:"redis address"`
	RedisPassword string    `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int       `yaml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string    `yaml:"redis_prefix" env:"REDIS_PREFIX" env-description:"key prefix of search documents"`
	Indexes       IndexList `yaml:"indexes" env:"SEARCH_INDEXES" env-description:"indexes, e.g. page:pages:draft,page_published:pages:live"`
}

// S3Config configures presigned media URLs
type S3Config struct {
	Bucket          string        `yaml:"bucket" env:"AWS_S3_BUCKET"`
	Region          string        `yaml:"region" env:"AWS_S3_REGION"`
	Endpoint        string        `yaml:"endpoint" env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string        `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool          `yaml:"use_path_style" env:"AWS_S3_USE_PATH_STYLE"`
	PresignDuration time.Duration `yaml:"presign_duration" env:"AWS_S3_PRESIGN_DURATION"`
	KeyPrefix       string        `yaml:"key_prefix" env:"AWS_S3_KEY_PREFIX"`
	VerifyExists    bool          `yaml:"verify_exists" env:"AWS_S3_VERIFY_EXISTS"`
}

// FallbackMap maps a locale to the locales tried after it.
type FallbackMap map[string][]string

// SetValue parses "de-AT:de|en,en-GB:en".
func (m *FallbackMap) SetValue(raw string) error {
	parsed := FallbackMap{}
	for _, entry := range splitList(raw) {
		locale, chain, ok := strings.Cut(entry, ":")
		if !ok || locale == "" || chain == "" {
			return fmt.Errorf("invalid locale fallback %q", entry)
		}
		parsed[locale] = strings.Split(chain, "|")
	}
	*m = parsed
	return nil
}

// IndexList is a list of search index definitions.
type IndexList []search.IndexDefinition

// SetValue parses "name:resourceKey:stage" entries separated by commas.
func (l *IndexList) SetValue(raw string) error {
	var parsed IndexList
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return fmt.Errorf("invalid index definition %q", entry)
		}
		parsed = append(parsed, search.IndexDefinition{
			Name:        parts[0],
			ResourceKey: parts[1],
			Stage:       dimension.Stage(parts[2]),
		})
	}
	*l = parsed
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// WithEnv applies environment variable overrides. Variables which are not set
// keep the current value.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithConfigFile reads a YAML, JSON or TOML file, then applies environment
// variable overrides.
func WithConfigFile(path string) Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}
}

// EnvUsage describes every supported environment variable.
func EnvUsage() string {
	cfg := defaults()
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.MediaBackend {
	case "static":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when media_backend is 's3'")
		}
	default:
		return errors.New("media_backend must be 'static' or 's3'")
	}

	switch c.SearchEngine {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required when search_engine is 'redis'")
		}
	default:
		return errors.New("search_engine must be 'memory' or 'redis'")
	}

	if len(c.Locales) == 0 {
		return errors.New("at least one locale is required")
	}
	for _, idx := range c.Indexes {
		if idx.Name == "" || idx.ResourceKey == "" || !idx.Stage.Valid() {
			return fmt.Errorf("invalid index definition %s:%s:%s", idx.Name, idx.ResourceKey, idx.Stage)
		}
	}
	if c.MaxParallelLoads < 0 || c.MaxBlockDepth < 0 {
		return errors.New("max_parallel_loads and max_block_depth cannot be negative")
	}

	return nil
}
