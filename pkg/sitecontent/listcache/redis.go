package listcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// DefaultKeyPrefix namespaces the cache keys.
const DefaultKeyPrefix = "sitecontent:list:"

// Redis is a Cache shared by every site instance pointing at the same server.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// DialRedis parses url, connects and pings the server.
func DialRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(kind sitecontent.AssetKind) string {
	return r.prefix + string(kind)
}

func (r *Redis) Get(ctx context.Context, kind sitecontent.AssetKind) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", kind, err)
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, kind sitecontent.AssetKind, data []byte) error {
	if err := r.client.Set(ctx, r.key(kind), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, kinds ...sitecontent.AssetKind) error {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	keys := make([]string, len(kinds))
	for i, kind := range kinds {
		keys[i] = r.key(kind)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}
