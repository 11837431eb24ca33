package main

import (
	"context"
	"fmt"

	"github.com/platinummonkey/petstore/pkg/async"
	"github.com/platinummonkey/petstore/pkg/backup"
	"github.com/platinummonkey/petstore/pkg/config"
	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/platinummonkey/petstore/pkg/storage/cache"
	"github.com/platinummonkey/petstore/pkg/storage/s3store"
	"github.com/platinummonkey/petstore/pkg/storage/sqlstore"
)

// backend is the assembled persistence layer
type backend struct {
	repo     pets.Repository
	name     string
	sink     backup.Sink
	cleanups []observability.ShutdownFunc
}

func (b *backend) onShutdown(fn observability.ShutdownFunc) {
	b.cleanups = append(b.cleanups, fn)
}

// buildBackend opens the configured store, wraps it in the cache and
// registers readiness checks. The returned repository is not yet instrumented.
func buildBackend(ctx context.Context, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics, health *observability.HealthChecker) (*backend, error) {
	sc := cfg.Storage
	b := &backend{name: sc.Type}

	switch sc.Type {
	case storage.TypePostgres, storage.TypeSQLite:
		repo, err := sqlstore.Open(ctx, sc)
		if err != nil {
			return nil, err
		}
		b.onShutdown(func(context.Context) error { return repo.Close() })

		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		if cfg.SeedOnStart {
			if err := repo.Seed(ctx); err != nil {
				return nil, err
			}
		}

		health.AddCheck("database", true, observability.DatabaseCheck(repo.DB()))
		b.repo = repo
		b.sink = backup.NewDirSink(cfg.Backup.Dir)
		return b, nil

	case storage.TypeFile, storage.TypeS3:
		doc, err := openDocumentStore(ctx, cfg, health, b)
		if err != nil {
			return nil, err
		}
		if cfg.SeedOnStart {
			if err := doc.Save(ctx, pets.SeedCatalog()); err != nil {
				return nil, fmt.Errorf("failed to seed store: %w", err)
			}
		}

		if sc.CacheEnabled {
			doc, err = wrapCache(ctx, cfg, doc, logger, metrics, health, b)
			if err != nil {
				return nil, err
			}
		}

		b.repo = storage.NewDocumentRepository(doc)
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", sc.Type)
	}
}

func openDocumentStore(ctx context.Context, cfg *config.Config, health *observability.HealthChecker, b *backend) (storage.DocumentStore, error) {
	sc := cfg.Storage

	if sc.Type == storage.TypeS3 {
		store, err := s3store.New(ctx, sc)
		if err != nil {
			return nil, err
		}
		health.AddCheck("s3", true, store.HealthCheck)
		b.sink = backup.NewS3Sink(store, cfg.Backup.Prefix)
		return store, nil
	}

	store, err := storage.NewFileDocumentStore(sc.FilePath, sc.CreateIfMissing)
	if err != nil {
		return nil, err
	}
	b.sink = backup.NewDirSink(cfg.Backup.Dir)
	return store, nil
}

func wrapCache(ctx context.Context, cfg *config.Config, doc storage.DocumentStore, logger *observability.Logger, metrics *observability.Metrics, health *observability.HealthChecker, b *backend) (*cache.Store, error) {
	sc := cfg.Storage
	opts := []cache.Option{cache.WithLogger(logger), cache.WithMetrics(metrics)}

	if sc.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, sc)
		if err != nil {
			return nil, err
		}
		l2 := cache.NewRedisCache(client, sc.CacheTTL)
		b.onShutdown(func(context.Context) error { return l2.Close() })
		health.AddCheck("redis", false, observability.RedisCheck(client))
		opts = append(opts, cache.WithRedis(l2))
	}

	cached := cache.NewStore(doc, cache.NewMemoryCache(sc.L1CacheSize, sc.CacheTTL), opts...)

	// Edits made to the file by other processes must not be masked by the cache
	if sc.Type == storage.TypeFile && sc.WatchFile {
		watcher, err := storage.NewWatcher(sc.FilePath, func(ctx context.Context) {
			if err := cached.Invalidate(ctx); err != nil {
				logger.WithError(err).Warn("Failed to invalidate pet cache")
			}
		}, logger)
		if err != nil {
			return nil, err
		}
		async.SafeGo(context.Background(), logger, 0, "document watcher", func(ctx context.Context) error {
			watcher.Run(ctx)
			return nil
		})
		b.onShutdown(func(context.Context) error { return watcher.Close() })
	}

	return cached, nil
}
