package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// WithEnv overlays environment variables onto the configuration. Variables
// that are unset leave the current value alone.
//
// Server:
//
//	PORT, ENVIRONMENT, LOG_FORMAT (text|json), LOG_LEVEL
//
// Database:
//
//	DATABASE_TYPE - memory (default), postgres or sqlite
//	DATABASE_URL  - postgres connection string
//	DB_SCHEMA     - postgres search_path
//	SQLITE_PATH   - sqlite database file
//
// Storage:
//
//	STORAGE_TYPE        - memory (default), fs or s3
//	STORAGE_BASE_URL    - public base URL of stored objects
//	STORAGE_BUCKET      - bucket name (default: refenti-media)
//	STORAGE_FS_BASE_DIR - directory for fs storage
//	STORAGE_S3_*        - REGION, ACCESS_KEY_ID, SECRET_ACCESS_KEY, ENDPOINT, ...
//
// Cache and auth:
//
//	CACHE_TYPE (none|memory|redis), CACHE_REDIS_URL, AUTH_JWT_SECRET
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile overlays a YAML file. ${VAR} references are expanded from the
// environment before parsing.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}
}

// LoadServerConfig loads defaults, then the optional YAML file at path, then
// the environment, which wins over both.
func LoadServerConfig(path string) (*ServerConfig, error) {
	return Load(WithFile(path), WithEnv())
}
