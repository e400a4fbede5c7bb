package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/listcache"
	"github.com/tendant/refenti-content/pkg/sitecontent/metrics"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "refenti-media", cfg.Storage.Bucket)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.True(t, cfg.AutoMigrate)
	assert.Nil(t, cfg.BuildAuth())
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	_, err = Load(WithPort(""))
	assert.Error(t, err)
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", "memory", "", false},
		{"postgres valid", "postgres", "postgresql://localhost/test", false},
		{"sqlite valid", "sqlite", "/tmp/content.db", false},
		{"postgres missing url", "postgres", "", true},
		{"sqlite missing path", "sqlite", "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dbType, cfg.DatabaseType)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"empty bucket", []Option{func(c *ServerConfig) error { c.Storage.Bucket = ""; return nil }}},
		{"unknown storage", []Option{func(c *ServerConfig) error { c.Storage.Type = "gcs"; return nil }}},
		{"redis without url", []Option{WithCache("redis", "")}},
		{"unknown cache", []Option{WithCache("memcached", "")}},
		{"short secret", []Option{WithJWTSecret("short")}},
		{"production without secret", []Option{WithEnvironment("production")}},
		{"bad log format", []Option{func(c *ServerConfig) error { c.LogFormat = "xml"; return nil }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts...)
			assert.Error(t, err)
		})
	}

	_, err := Load(WithEnvironment("production"), WithJWTSecret("0123456789abcdef0123"))
	assert.NoError(t, err)
}

func TestWithEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", "/var/lib/refenti/content.db")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("STORAGE_BUCKET", "media")
	t.Setenv("STORAGE_S3_REGION", "eu-west-1")
	t.Setenv("STORAGE_S3_USE_PATH_STYLE", "true")
	t.Setenv("CACHE_TYPE", "none")
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef")

	cfg, err := Load(WithEnv())
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "/var/lib/refenti/content.db", cfg.SQLitePath)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "media", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.NotNil(t, cfg.BuildAuth())

	// unset variables keep defaults
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.MetricsEnabled)
}

func TestWithFile(t *testing.T) {
	t.Setenv("TEST_MEDIA_HOST", "https://media.example.com")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
log_format: json
storage:
  type: fs
  base_url: ${TEST_MEDIA_HOST}
  fs_base_dir: /srv/media
cache:
  type: none
`), 0o600))

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "fs", cfg.Storage.Type)
	assert.Equal(t, "https://media.example.com", cfg.Storage.BaseURL)
	assert.Equal(t, "/srv/media", cfg.Storage.FSBaseDir)
	assert.Equal(t, "refenti-media", cfg.Storage.Bucket)

	_, err = Load(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoadServerConfig_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nlog_level: debug\n"), 0o600))
	t.Setenv("PORT", "9090")

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := Load(func(c *ServerConfig) error { c.LogFormat = "json"; c.LogLevel = "warn"; return nil })
	require.NoError(t, err)

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestBuildService_Memory(t *testing.T) {
	cfg, err := Load(WithPublicURL("https://cdn.example.com", "refenti-media"))
	require.NoError(t, err)

	prom, err := metrics.NewProm("test", prometheus.NewRegistry())
	require.NoError(t, err)

	rt, err := cfg.BuildService(context.Background(), nil, prom)
	require.NoError(t, err)
	defer rt.Close()

	project, err := rt.Service.CreateProject(context.Background(), &sitecontent.Project{Name: "Test Tower"})
	require.NoError(t, err)
	assert.Equal(t, "test-tower", project.ID)
	assert.Equal(t, "refenti-media", rt.Service.Assets().Bucket())
}

func TestBuildService_SQLiteAndFS(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(
		WithDatabase("sqlite", filepath.Join(dir, "content.db")),
		WithFilesystemStorage(filepath.Join(dir, "media")),
	)
	require.NoError(t, err)

	rt, err := cfg.BuildService(context.Background(), nil, nil)
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	url, err := rt.Service.UploadAsset(ctx, sitecontent.UploadAssetRequest{
		Kind:     sitecontent.KindNews,
		EntityID: "launch",
		Slot:     sitecontent.SlotImage,
		File: sitecontent.File{
			FileInfo: sitecontent.FileInfo{Name: "a.png", MimeType: "image/png", Size: 3},
			Body:     bytes.NewReader([]byte("png")),
		},
	})
	require.NoError(t, err)
	assert.Contains(t, url, "/news/launch-")

	assets, err := rt.Service.ListAssets(ctx, sitecontent.KindNews, "launch")
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestBuildListCache(t *testing.T) {
	cfg, err := Load(WithCache("none", ""))
	require.NoError(t, err)
	cache, closeCache, err := cfg.BuildListCache()
	require.NoError(t, err)
	defer closeCache()
	assert.IsType(t, listcache.Nop{}, cache)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg, err = Load(WithCache("redis", "redis://"+mr.Addr()))
	require.NoError(t, err)
	cache, closeCache, err = cfg.BuildListCache()
	require.NoError(t, err)
	defer closeCache()
	assert.IsType(t, &listcache.Redis{}, cache)
}
