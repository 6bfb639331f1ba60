package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
)

// CatalogQuerier is the slice of the catalog store the decorator wraps.
type CatalogQuerier interface {
	Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error)
}

// CachingCatalog decorates a catalog store with read-through caching.
// Catalog rows change on ingest cadence, not per run, so a short TTL is
// enough to absorb the repeated identical queries a run produces.
//
// Cache failures degrade to the underlying store; they are logged, never
// surfaced.
type CachingCatalog struct {
	inner  CatalogQuerier
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingCatalog wraps inner with the given cache. logger may be nil.
func NewCachingCatalog(inner CatalogQuerier, c Cache, ttl time.Duration, logger *zap.Logger) *CachingCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingCatalog{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *CachingCatalog) Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error) {
	serialized, err := json.Marshal(f)
	if err != nil {
		return c.inner.Query(ctx, f)
	}
	key := CatalogQueryKey(HashKey(serialized))

	if raw, hit, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("catalog cache read failed", zap.Error(err))
	} else if hit {
		var entries []models.PriceCatalogEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		c.logger.Warn("catalog cache entry corrupt, dropping", zap.String("key", key))
		_ = c.cache.Delete(ctx, key)
	}

	entries, err := c.inner.Query(ctx, f)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(entries); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}
