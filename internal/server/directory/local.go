package directory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache keeps directory entries in process memory. It is used when no
// Redis address is configured.
type LocalCache struct {
	c *gocache.Cache
}

// NewLocalCache returns an empty cache whose expired entries are purged every
// cleanupInterval.
func NewLocalCache(cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	return raw, ok, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.Set(key, value, ttl)
	return nil
}
