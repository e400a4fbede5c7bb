package presets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/config"
	memoryrepo "github.com/tendant/refenti-content/pkg/sitecontent/repo/memory"
	reposqlite "github.com/tendant/refenti-content/pkg/sitecontent/repo/sqlite"
	fsstorage "github.com/tendant/refenti-content/pkg/sitecontent/storage/fs"
	memorystorage "github.com/tendant/refenti-content/pkg/sitecontent/storage/memory"
)

// Configuration Presets
//
// Presets build a ready Service for the common setups without going through
// the full configuration system.

// DefaultBucket is the bucket name the presets publish assets under.
const DefaultBucket = "refenti-media"

// NewDevelopment creates a service configured for local development.
//
// Features:
//   - SQLite database at <dir>/content.db (persistent across restarts)
//   - Filesystem storage at <dir>/storage
//   - Public URLs on http://localhost:<port>
//
// The returned cleanup closes the database and removes the data directory.
//
// Example:
//
//	svc, cleanup, err := presets.NewDevelopment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(opts ...DevelopmentOption) (sitecontent.Service, func(), error) {
	cfg := &devConfig{
		dataDir: "./dev-data",
		port:    "8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	repo, err := reposqlite.Open(filepath.Join(cfg.dataDir, "content.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open development database: %w", err)
	}

	fsBackend, err := fsstorage.New(fsstorage.Config{
		BaseDir: filepath.Join(cfg.dataDir, "storage"),
	})
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("failed to create filesystem storage: %w", err)
	}

	svc, err := sitecontent.New(
		sitecontent.WithRepository(repo),
		sitecontent.WithBlobStore(fsBackend),
		sitecontent.WithPublicURL("http://localhost:"+cfg.port, DefaultBucket),
	)
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	cleanup := func() {
		repo.Close()
		os.RemoveAll(cfg.dataDir)
	}
	return svc, cleanup, nil
}

// NewTesting creates a service for unit tests: memory repository, memory
// storage and a silent logger. Every call is isolated, so tests may run in
// parallel.
func NewTesting(t testing.TB, opts ...TestingOption) sitecontent.Service {
	t.Helper()
	cfg := &testConfig{
		blobs:   memorystorage.New(),
		baseURL: "http://localhost:8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	svc, err := sitecontent.New(
		sitecontent.WithRepository(memoryrepo.New()),
		sitecontent.WithBlobStore(cfg.blobs),
		sitecontent.WithPublicURL(cfg.baseURL, DefaultBucket),
		sitecontent.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}

	if cfg.fixtures {
		if err := SeedFixtures(context.Background(), svc); err != nil {
			t.Fatalf("failed to seed fixtures: %v", err)
		}
	}
	return svc
}

// NewProduction builds the runtime from the environment and refuses
// configurations that lose data on restart: a memory database or memory
// storage. Options are applied after the environment.
func NewProduction(ctx context.Context, logger *slog.Logger, opts ...config.Option) (*config.Runtime, error) {
	cfg, err := config.Load(append([]config.Option{config.WithEnv()}, opts...)...)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseType == "memory" {
		return nil, fmt.Errorf("production preset requires DATABASE_TYPE=postgres or sqlite (memory not allowed in production)")
	}
	if cfg.Storage.Type == "memory" {
		return nil, fmt.Errorf("production preset requires persistent storage (s3 or fs, not memory)")
	}

	return cfg.BuildService(ctx, logger, nil)
}

// SeedFixtures creates one sample record of every kind.
func SeedFixtures(ctx context.Context, svc sitecontent.Service) error {
	if _, err := svc.CreateProject(ctx, &sitecontent.Project{
		Name:            "Bole Residences",
		AssetClass:      sitecontent.AssetClassResidential,
		Location:        "Bole, Addis Ababa",
		Description:     "Apartments above a landscaped podium.",
		ProjectFeatures: []string{"Rooftop garden", "Underground parking"},
		DetailSections: []sitecontent.DetailSection{
			{Title: "Living", Text: "Two to four bedroom homes."},
		},
	}); err != nil {
		return err
	}
	if _, err := svc.CreateEvent(ctx, &sitecontent.EventItem{
		Title:      "Groundbreaking Ceremony",
		Date:       "June 12, 2025",
		Location:   "Bole",
		IsFeatured: true,
	}); err != nil {
		return err
	}
	_, err := svc.CreateNews(ctx, &sitecontent.NewsItem{
		Category: "Press",
		Title:    "Bole Residences Sales Open",
		Date:     "May 2025",
		Excerpt:  "The first phase is now available.",
	})
	return err
}

// Option types for customization

// devConfig holds development preset configuration
type devConfig struct {
	dataDir string
	port    string
}

// testConfig holds testing preset configuration
type testConfig struct {
	fixtures bool
	blobs    sitecontent.BlobStore
	baseURL  string
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevDataDir sets the directory holding the database and stored assets
func WithDevDataDir(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.dataDir = dir
	}
}

// WithDevPort sets the port public asset URLs point at
func WithDevPort(port string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.port = port
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestFixtures seeds one sample project, event and news item
func WithTestFixtures() TestingOption {
	return func(cfg *testConfig) {
		cfg.fixtures = true
	}
}

// WithTestBlobStore replaces the memory storage, e.g. with a failing fake
func WithTestBlobStore(store sitecontent.BlobStore) TestingOption {
	return func(cfg *testConfig) {
		cfg.blobs = store
	}
}

// WithTestBaseURL sets the public URL base of stored assets
func WithTestBaseURL(baseURL string) TestingOption {
	return func(cfg *testConfig) {
		cfg.baseURL = baseURL
	}
}
