package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := storage.DefaultConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	client, err := NewRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, time.Minute), mr
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.RedisURL = "invalid://url"

	_, err := NewRedisClient(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRedisClient_ConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := storage.DefaultConfig()
	cfg.RedisURL = "redis://" + addr

	_, err := NewRedisClient(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(4, time.Minute)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", pets.SeedCatalog()))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, pets.SeedCatalog(), got)

	// callers may mutate what they get back
	delete(got, "1")
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, again, 3)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.ItemCount)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)

	c.Purge()
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(4, 20*time.Millisecond)
	require.NoError(t, c.Set(ctx, "k", pets.SeedCatalog()))

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "k")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	rc, mr := setupRedis(t)

	_, err := rc.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, rc.Set(ctx, DefaultKey, pets.SeedCatalog()))
	assert.True(t, mr.Exists(DefaultKey))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKey))

	got, err := rc.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, pets.SeedCatalog(), got)

	t.Run("corrupt entry is dropped", func(t *testing.T) {
		require.NoError(t, mr.Set(DefaultKey, "{not json"))
		_, err := rc.Get(ctx, DefaultKey)
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.False(t, mr.Exists(DefaultKey))
	})
}

func TestStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	s := NewStore(backend, NewMemoryCache(4, time.Minute), WithMetrics(metrics))
	assert.Equal(t, storage.TypeMemory, s.Name())

	for i := 0; i < 3; i++ {
		catalog, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, 3)
	}

	loads, _ := backend.Counts()
	assert.Equal(t, 1, loads)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("l1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("l1")))
}

func TestStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	l2, mr := setupRedis(t)

	s := NewStore(backend, NewMemoryCache(4, time.Minute), WithRedis(l2))
	repo := storage.NewDocumentRepository(s)

	id, err := repo.Add(ctx, pets.Pet{Name: "Yolo", Breed: "shorthair", Price: 100})
	require.NoError(t, err)
	assert.Equal(t, "4", id)

	stored, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
	assert.True(t, mr.Exists(DefaultKey))

	// served from cache, backend untouched
	before, _ := backend.Counts()
	pet, err := repo.Get(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "Yolo", pet.Name)
	after, _ := backend.Counts()
	assert.Equal(t, before, after)
}

func TestStore_RedisTierFillsMemory(t *testing.T) {
	ctx := context.Background()
	l2, _ := setupRedis(t)
	require.NoError(t, l2.Set(ctx, DefaultKey, pets.Catalog{"9": {Name: "rex", Breed: "pug", Price: 1}}))

	backend := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	s := NewStore(backend, NewMemoryCache(4, time.Minute), WithRedis(l2))

	catalog, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, catalog, "9")

	loads, _ := backend.Counts()
	assert.Zero(t, loads)
	assert.Equal(t, int64(1), s.Stats().ItemCount)
}

func TestStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	l2, mr := setupRedis(t)
	s := NewStore(backend, NewMemoryCache(4, time.Minute), WithRedis(l2), WithKey("custom"))

	_, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("custom"))

	// edit behind the cache's back
	require.NoError(t, backend.Save(ctx, pets.Catalog{"1": {Name: "only", Breed: "one", Price: 1}}))

	require.NoError(t, s.Invalidate(ctx))
	assert.False(t, mr.Exists("custom"))

	catalog, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
}

func TestStore_RedisDownFallsBackToBackend(t *testing.T) {
	ctx := context.Background()
	l2, mr := setupRedis(t)
	mr.Close()

	backend := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	s := NewStore(backend, NewMemoryCache(4, time.Minute), WithRedis(l2))

	catalog, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 3)
}
