package config

import (
	"fmt"

	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithForms loads form metadata from the files of dir matching pattern.
func WithForms(dir, pattern string) Option {
	return func(c *ServerConfig) error {
		if dir == "" {
			return fmt.Errorf("forms directory cannot be empty")
		}
		c.FormsDir = dir
		if pattern != "" {
			c.FormsPattern = pattern
		}
		return nil
	}
}

// WithFixtures seeds the repository and static loaders from a fixtures file.
func WithFixtures(path string) Option {
	return func(c *ServerConfig) error {
		c.FixturesFile = path
		return nil
	}
}

// WithLocales sets the known locales.
func WithLocales(locales ...string) Option {
	return func(c *ServerConfig) error {
		if len(locales) == 0 {
			return fmt.Errorf("at least one locale is required")
		}
		c.Locales = locales
		return nil
	}
}

// WithLocaleFallback adds a locale fallback chain.
func WithLocaleFallback(locale string, fallbacks ...string) Option {
	return func(c *ServerConfig) error {
		if c.LocaleFallbacks == nil {
			c.LocaleFallbacks = FallbackMap{}
		}
		c.LocaleFallbacks[locale] = fallbacks
		return nil
	}
}

// WithSearchIndexes adds search index definitions.
func WithSearchIndexes(defs ...search.IndexDefinition) Option {
	return func(c *ServerConfig) error {
		c.Indexes = append(c.Indexes, defs...)
		return nil
	}
}

// WithRedisSearch stores search documents in redis.
func WithRedisSearch(addr, password string, db int) Option {
	return func(c *ServerConfig) error {
		if addr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
		c.SearchEngine = "redis"
		c.RedisAddr = addr
		c.RedisPassword = password
		c.RedisDB = db
		return nil
	}
}

// WithS3Media serves media as presigned URLs of bucket.
func WithS3Media(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		if s3.Region == "" {
			s3.Region = c.S3.Region
		}
		if s3.PresignDuration == 0 {
			s3.PresignDuration = c.S3.PresignDuration
		}
		if s3.KeyPrefix == "" {
			s3.KeyPrefix = c.S3.KeyPrefix
		}
		c.MediaBackend = "s3"
		c.S3 = s3
		return nil
	}
}

// WithDebug enables debug logging of ignored property input.
func WithDebug(debug bool) Option {
	return func(c *ServerConfig) error {
		c.Debug = debug
		return nil
	}
}
