package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

const externalIDKeyPrefix = "directory:ext:"

// Cache stores encoded directory entries. Get reports a miss with ok == false
// and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedDirectory serves positive lookups from a Cache and falls through to
// the wrapped Directory on a miss. Cache failures are logged and never surface
// to callers. Negative results are not cached, so a freshly registered user is
// visible immediately.
//
// Entries are keyed by external id only. Email lookups always reach the
// wrapped Directory: an email can move to another account, and a grant
// addressed to it must never resolve to the previous owner.
type CachedDirectory struct {
	inner  Directory
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedDirectory(inner Directory, cache Cache, ttl time.Duration, logger logging.Logger) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (d *CachedDirectory) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return d.lookup(ctx, externalIDKeyPrefix+externalID, func() (*models.User, error) {
		return d.inner.FindByExternalID(ctx, externalID)
	})
}

// FindByEmail is not served from the cache; a hit warms the external id entry.
func (d *CachedDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := d.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	d.store(ctx, u)
	return u, nil
}

// ListExcept is not cached.
func (d *CachedDirectory) ListExcept(ctx context.Context, externalID string) ([]*models.User, error) {
	return d.inner.ListExcept(ctx, externalID)
}

func (d *CachedDirectory) lookup(ctx context.Context, key string, load func() (*models.User, error)) (*models.User, error) {
	raw, ok, err := d.cache.Get(ctx, key)
	switch {
	case err != nil:
		d.logger.Warn(ctx, "directory cache read failed", "key", key, "error", err)
	case ok:
		u := &models.User{}
		if err := json.Unmarshal(raw, u); err == nil {
			return u, nil
		}
		d.logger.Warn(ctx, "discarding malformed directory cache entry", "key", key)
	}

	u, err := load()
	if err != nil {
		return nil, err
	}

	d.store(ctx, u)
	return u, nil
}

// store caches u under its external id.
func (d *CachedDirectory) store(ctx context.Context, u *models.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		d.logger.Warn(ctx, "directory cache encode failed", "error", err)
		return
	}
	key := externalIDKeyPrefix + u.ExternalID
	if err := d.cache.Set(ctx, key, raw, d.ttl); err != nil {
		d.logger.Warn(ctx, "directory cache write failed", "key", key, "error", err)
	}
}
