// Package listcache caches the public content lists per kind. Entries never
// expire; they are dropped by an explicit Invalidate.
package listcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Cache stores one encoded list per content kind.
type Cache interface {
	// Get returns the cached list and whether there was one.
	Get(ctx context.Context, kind sitecontent.AssetKind) ([]byte, bool, error)
	Set(ctx context.Context, kind sitecontent.AssetKind, data []byte) error
	// Invalidate drops the given kinds, or every kind when none is given.
	Invalidate(ctx context.Context, kinds ...sitecontent.AssetKind) error
}

// Kinds lists the cached kinds.
var Kinds = []sitecontent.AssetKind{sitecontent.KindProjects, sitecontent.KindEvents, sitecontent.KindNews}

// Load returns the cached list for kind, or calls fetch and caches its
// result. Cache failures are logged to logger and fall through to fetch.
func Load[T any](ctx context.Context, c Cache, logger *slog.Logger, kind sitecontent.AssetKind, fetch func(context.Context) ([]*T, error)) ([]*T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, ok, err := c.Get(ctx, kind)
	if err != nil {
		logger.Warn("List cache read failed", "kind", kind, "error", err)
	}
	if ok {
		var items []*T
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		logger.Warn("Discarding undecodable list cache entry", "kind", kind)
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode %s list: %w", kind, err)
	}
	if err := c.Set(ctx, kind, encoded); err != nil {
		logger.Warn("List cache write failed", "kind", kind, "error", err)
	}
	return items, nil
}

// Memory is a process-local Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[sitecontent.AssetKind][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[sitecontent.AssetKind][]byte)}
}

func (m *Memory) Get(ctx context.Context, kind sitecontent.AssetKind) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[kind]
	return data, ok, nil
}

func (m *Memory) Set(ctx context.Context, kind sitecontent.AssetKind, data []byte) error {
	m.mu.Lock()
	m.entries[kind] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(ctx context.Context, kinds ...sitecontent.AssetKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(kinds) == 0 {
		clear(m.entries)
		return nil
	}
	for _, kind := range kinds {
		delete(m.entries, kind)
	}
	return nil
}

// Nop never caches anything.
type Nop struct{}

func (Nop) Get(context.Context, sitecontent.AssetKind) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, sitecontent.AssetKind, []byte) error         { return nil }
func (Nop) Invalidate(context.Context, ...sitecontent.AssetKind) error       { return nil }
