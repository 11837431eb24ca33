// Package cache puts a two-tier read cache in front of a document store.
// L1 is an in-process expirable LRU, L2 an optional shared Redis.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
)

// DefaultKey is the cache key for the catalog document
const DefaultKey = "petstore:catalog"

// Store implements storage.DocumentStore. Loads read through the tiers,
// saves write through to the backend first and then refresh the tiers.
type Store struct {
	backend storage.DocumentStore
	l1      *MemoryCache
	l2      *RedisCache
	key     string
	metrics *observability.Metrics
	logger  *observability.Logger
}

// Option configures a Store
type Option func(*Store)

// WithRedis enables the shared tier
func WithRedis(l2 *RedisCache) Option {
	return func(s *Store) { s.l2 = l2 }
}

// WithMetrics records hits and misses per tier
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger used for cache tier failures
func WithLogger(l *observability.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKey overrides the cache key, e.g. to share redis between stores
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore wraps backend with the given memory tier
func NewStore(backend storage.DocumentStore, l1 *MemoryCache, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		l1:      l1,
		key:     DefaultKey,
		logger:  observability.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements storage.DocumentStore.Name
func (s *Store) Name() string {
	return s.backend.Name()
}

// Load implements storage.DocumentStore.Load
func (s *Store) Load(ctx context.Context) (pets.Catalog, error) {
	if catalog, err := s.l1.Get(ctx, s.key); err == nil {
		s.record("l1", true)
		return catalog, nil
	}
	s.record("l1", false)

	if s.l2 != nil {
		catalog, err := s.l2.Get(ctx, s.key)
		switch {
		case err == nil:
			s.record("l2", true)
			s.l1.Set(ctx, s.key, catalog)
			return catalog, nil
		case errors.Is(err, ErrCacheMiss):
			s.record("l2", false)
		default:
			s.logger.WithError(err).Warn("Redis cache read failed")
		}
	}

	catalog, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, catalog)
	return catalog, nil
}

// Save implements storage.DocumentStore.Save
func (s *Store) Save(ctx context.Context, catalog pets.Catalog) error {
	if err := s.backend.Save(ctx, catalog); err != nil {
		// the backend state is unknown now
		_ = s.Invalidate(ctx)
		return err
	}
	s.fill(ctx, catalog)
	return nil
}

// Invalidate drops the catalog from both tiers
func (s *Store) Invalidate(ctx context.Context) error {
	s.l1.Delete(ctx, s.key)
	if s.l2 != nil {
		if err := s.l2.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("failed to invalidate redis cache: %w", err)
		}
	}
	return nil
}

// Stats returns the memory tier statistics
func (s *Store) Stats() Stats {
	return s.l1.Stats()
}

func (s *Store) fill(ctx context.Context, catalog pets.Catalog) {
	s.l1.Set(ctx, s.key, catalog)
	if s.l2 != nil {
		if err := s.l2.Set(ctx, s.key, catalog); err != nil {
			s.logger.WithError(err).Warn("Redis cache write failed")
		}
	}
}

func (s *Store) record(tier string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}
