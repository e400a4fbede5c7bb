package config

import (
	"fmt"
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

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend. url is the postgres
// connection string or the sqlite file path.
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case "memory":
		case "postgres":
			if url == "" {
				return fmt.Errorf("database URL is required for postgres")
			}
			c.DatabaseURL = url
		case "sqlite":
			if url == "" {
				return fmt.Errorf("database path is required for sqlite")
			}
			c.SQLitePath = url
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'sqlite', got: %s", dbType)
		}
		c.DatabaseType = dbType
		return nil
	}
}

// WithPublicURL sets the base URL and bucket used in public asset URLs
func WithPublicURL(baseURL, bucket string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("bucket cannot be empty")
		}
		c.Storage.BaseURL = baseURL
		c.Storage.Bucket = bucket
		return nil
	}
}

// WithMemoryStorage keeps objects in process memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage.Type = "memory"
		return nil
	}
}

// WithFilesystemStorage stores objects under baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage.Type = "fs"
		c.Storage.FSBaseDir = baseDir
		return nil
	}
}

// WithS3Storage stores objects in an S3-compatible bucket
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		c.Storage.Type = "s3"
		c.Storage.S3 = s3
		return nil
	}
}

// WithCache selects the list cache; redisURL is only used for "redis"
func WithCache(cacheType, redisURL string) Option {
	return func(c *ServerConfig) error {
		c.Cache.Type = cacheType
		c.Cache.RedisURL = redisURL
		return nil
	}
}

// WithJWTSecret enables the admin API with the given signing secret
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.Auth.JWTSecret = secret
		return nil
	}
}

// WithMetrics toggles the Prometheus collectors and /metrics endpoint
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.MetricsEnabled = enabled
		return nil
	}
}
