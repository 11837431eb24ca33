package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/petstore/pkg/pets"
)

// ErrCacheMiss is returned when a key is not cached
var ErrCacheMiss = errors.New("cache miss")

// Stats reports cache effectiveness
type Stats struct {
	Hits      int64
	Misses    int64
	ItemCount int64
	HitRate   float64
}

// MemoryCache is the in-process tier: an LRU with per-entry expiry.
// Catalogs are cloned on the way in and out because repositories mutate
// the catalog they load.
type MemoryCache struct {
	cache  *lru.LRU[string, pets.Catalog]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates a memory cache holding up to size catalogs for ttl
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 1 {
		size = 1
	}
	return &MemoryCache{
		cache: lru.NewLRU[string, pets.Catalog](size, nil, ttl),
	}
}

// Get returns a copy of the cached catalog
func (c *MemoryCache) Get(ctx context.Context, key string) (pets.Catalog, error) {
	catalog, ok := c.cache.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return catalog.Clone(), nil
}

// Set stores a copy of catalog
func (c *MemoryCache) Set(ctx context.Context, key string, catalog pets.Catalog) error {
	c.cache.Add(key, catalog.Clone())
	return nil
}

// Delete removes one key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}

// Purge drops every entry
func (c *MemoryCache) Purge() {
	c.cache.Purge()
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	stats := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: int64(c.cache.Len()),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
