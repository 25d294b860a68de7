package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"counterpos/internal/pkg/cache"
	"counterpos/internal/pos/domain"
)

// Cached is a read-through decorator over another Catalog. Item lookups are
// served from the cache when possible; misses and cache faults fall through
// to the inner catalog, so a cold or unreachable cache only costs latency.
type Cached struct {
	inner Catalog
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with the given cache.
func NewCached(inner Catalog, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (c *Cached) Item(ctx context.Context, id string) (domain.MenuItemRef, error) {
	key := c.cache.GenerateKey("menu_item", id)

	if raw, err := c.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
	} else if raw != "" {
		var it domain.MenuItemRef
		if err := json.Unmarshal([]byte(raw), &it); err == nil {
			return it, nil
		}
		slog.WarnContext(ctx, "catalog cache entry corrupt, refetching", "key", key)
	}

	it, err := c.inner.Item(ctx, id)
	if err != nil {
		return domain.MenuItemRef{}, err
	}

	if b, err := json.Marshal(it); err == nil {
		if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
			slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
		}
	}
	return it, nil
}

func (c *Cached) Items(ctx context.Context) ([]domain.MenuItemRef, error) {
	return c.inner.Items(ctx)
}
