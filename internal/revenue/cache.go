package revenue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "revenue:version"

// Cache wraps Redis based caching of revenue read models with a global
// version so every applied event invalidates all derived series at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key with the current version. When the version
// cannot be read the plain key is returned; reads and writes against it fail
// the same way, which keeps the caller on the loader path.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) string {
	plain := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return plain
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return plain
	}
	return fmt.Sprintf("%s:%d", plain, ver)
}

// FetchJSON loads a cached value or populates it using the loader. Any Redis
// failure counts as a miss: the cache is an optimization, and an outage must
// not mask data the loader can still produce.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("revenue: cache loader required")
	}
	if c != nil && c.client != nil {
		if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
			if unmarshalErr := json.Unmarshal(payload, dest); unmarshalErr == nil {
				return nil
			}
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached series by incrementing the global version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func keyRollingYear(anchor string) string {
	return strings.Join([]string{"revenue", "rolling_year", anchor}, ":")
}
