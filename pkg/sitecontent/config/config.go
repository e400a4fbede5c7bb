package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/jwtauth"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/listcache"
	"github.com/tendant/refenti-content/pkg/sitecontent/metrics"
	"github.com/tendant/refenti-content/pkg/sitecontent/repo/memory"
	repopg "github.com/tendant/refenti-content/pkg/sitecontent/repo/postgres"
	reposqlite "github.com/tendant/refenti-content/pkg/sitecontent/repo/sqlite"
	fsstorage "github.com/tendant/refenti-content/pkg/sitecontent/storage/fs"
	memorystorage "github.com/tendant/refenti-content/pkg/sitecontent/storage/memory"
	s3storage "github.com/tendant/refenti-content/pkg/sitecontent/storage/s3"
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
		LogFormat:    "text",
		LogLevel:     "info",
		DatabaseType: "memory",
		SQLitePath:   "./data/content.db",
		AutoMigrate:  true,
		Storage: StorageConfig{
			Type:      "memory",
			BaseURL:   "http://localhost:8080",
			Bucket:    "refenti-media",
			FSBaseDir: "./data/storage",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Cache: CacheConfig{
			Type:      "memory",
			KeyPrefix: listcache.DefaultKeyPrefix,
		},
		Auth: AuthConfig{
			Issuer: "refenti-admin",
		},
		MetricsEnabled:   true,
		MetricsNamespace: "sitecontent",
	}
}

// ServerConfig represents configuration for the site content server and admin CLI
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"` // development, production, testing
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`   // text, json
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`

	// Database configuration
	DatabaseType string `yaml:"database_type" env:"DATABASE_TYPE"` // memory, postgres, sqlite
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL"`
	DBSchema     string `yaml:"db_schema" env:"DB_SCHEMA"`
	SQLitePath   string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	AutoMigrate  bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`

	Storage StorageConfig `yaml:"storage" env-prefix:"STORAGE_"`
	Cache   CacheConfig   `yaml:"cache" env-prefix:"CACHE_"`
	Auth    AuthConfig    `yaml:"auth" env-prefix:"AUTH_"`

	MetricsEnabled   bool   `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	MetricsNamespace string `yaml:"metrics_namespace" env:"METRICS_NAMESPACE"`
}

// StorageConfig selects the blob store and how its objects are addressed publicly
type StorageConfig struct {
	Type      string   `yaml:"type" env:"TYPE"` // memory, fs, s3
	BaseURL   string   `yaml:"base_url" env:"BASE_URL"`
	Bucket    string   `yaml:"bucket" env:"BUCKET"`
	FSBaseDir string   `yaml:"fs_base_dir" env:"FS_BASE_DIR"`
	S3        S3Config `yaml:"s3" env-prefix:"S3_"`
}

// S3Config mirrors s3storage.Config. The bucket is StorageConfig.Bucket.
type S3Config struct {
	Region                 string `yaml:"region" env:"REGION"`
	AccessKeyID            string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey        string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Endpoint               string `yaml:"endpoint" env:"ENDPOINT"`
	UsePathStyle           bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`
	EnableSSE              bool   `yaml:"enable_sse" env:"ENABLE_SSE"`
	SSEAlgorithm           string `yaml:"sse_algorithm" env:"SSE_ALGORITHM"`
	SSEKMSKeyID            string `yaml:"sse_kms_key_id" env:"SSE_KMS_KEY_ID"`
	CreateBucketIfNotExist bool   `yaml:"create_bucket_if_not_exist" env:"CREATE_BUCKET"`
}

// CacheConfig selects the public list cache
type CacheConfig struct {
	Type      string `yaml:"type" env:"TYPE"` // none, memory, redis
	RedisURL  string `yaml:"redis_url" env:"REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// AuthConfig holds the admin API token settings. An empty secret disables
// the admin API.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"ISSUER"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.DatabaseType, validation.Required, validation.In("memory", "postgres", "sqlite")),
		validation.Field(&c.DatabaseURL, validation.When(c.DatabaseType == "postgres", validation.Required.Error("is required when using postgres"))),
		validation.Field(&c.SQLitePath, validation.When(c.DatabaseType == "sqlite", validation.Required.Error("is required when using sqlite"))),
		validation.Field(&c.Storage),
		validation.Field(&c.Cache),
		validation.Field(&c.Auth, validation.When(c.Environment == "production", validation.By(requireSecret))),
	)
}

func requireSecret(value interface{}) error {
	auth, _ := value.(AuthConfig)
	if auth.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required in production")
	}
	return nil
}

// Validate validates the storage configuration
func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.In("memory", "fs", "s3")),
		validation.Field(&s.Bucket, validation.Required),
		validation.Field(&s.FSBaseDir, validation.When(s.Type == "fs", validation.Required)),
	)
}

// Validate validates the cache configuration
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.In("none", "memory", "redis")),
		validation.Field(&c.RedisURL, validation.When(c.Type == "redis", validation.Required)),
	)
}

// Validate validates the auth configuration
func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.JWTSecret, validation.Length(16, 0)),
	)
}

// NewLogger returns a slog logger honouring LogFormat and LogLevel
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Runtime holds what BuildService constructed, for wiring and shutdown
type Runtime struct {
	Service    sitecontent.Service
	Repository sitecontent.Repository
	BlobStore  sitecontent.BlobStore
	closers    []func()
}

// Close releases database pools and files
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// BuildService creates a Service from the configuration. prom may be nil;
// when set, blob store calls are instrumented.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger, prom *metrics.Prom) (*Runtime, error) {
	rt := &Runtime{}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository = repo
	rt.closers = append(rt.closers, closeRepo)

	store, err := c.buildStorageBackend()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	if prom != nil {
		store = prom.InstrumentBlobStore(store)
	}
	rt.BlobStore = store

	if logger == nil {
		logger = slog.Default()
	}
	svc, err := sitecontent.New(
		sitecontent.WithRepository(repo),
		sitecontent.WithBlobStore(store),
		sitecontent.WithPublicURL(c.Storage.BaseURL, c.Storage.Bucket),
		sitecontent.WithLogger(logger),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	return rt, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (sitecontent.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		repo, err := reposqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	case "postgres":
		pool, err := c.newPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := repo.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) newPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// buildStorageBackend creates a BlobStore based on the storage configuration
func (c *ServerConfig) buildStorageBackend() (sitecontent.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.Storage.FSBaseDir})
	case "s3":
		s3c := c.Storage.S3
		return s3storage.New(s3storage.Config{
			Region:                 s3c.Region,
			Bucket:                 c.Storage.Bucket,
			AccessKeyID:            s3c.AccessKeyID,
			SecretAccessKey:        s3c.SecretAccessKey,
			Endpoint:               s3c.Endpoint,
			UsePathStyle:           s3c.UsePathStyle,
			EnableSSE:              s3c.EnableSSE,
			SSEAlgorithm:           s3c.SSEAlgorithm,
			SSEKMSKeyID:            s3c.SSEKMSKeyID,
			CreateBucketIfNotExist: s3c.CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}
}

// BuildListCache creates the public list cache
func (c *ServerConfig) BuildListCache() (listcache.Cache, func(), error) {
	switch c.Cache.Type {
	case "", "none":
		return listcache.Nop{}, func() {}, nil
	case "memory":
		return listcache.NewMemory(), func() {}, nil
	case "redis":
		cache, err := listcache.DialRedis(c.Cache.RedisURL, c.Cache.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { cache.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
}

// BuildAuth returns the admin token authority, or nil when no secret is set
func (c *ServerConfig) BuildAuth() *jwtauth.JWTAuth {
	if c.Auth.JWTSecret == "" {
		return nil
	}
	return jwtauth.New("HS256", []byte(c.Auth.JWTSecret), nil)
}
