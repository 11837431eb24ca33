package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinummonkey/petstore/pkg/api"
	"github.com/platinummonkey/petstore/pkg/backup"
	"github.com/platinummonkey/petstore/pkg/config"
	"github.com/platinummonkey/petstore/pkg/events"
	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petstore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "petstore").
		WithField("version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return err
	}

	health := observability.NewHealthChecker(version)

	b, err := buildBackend(ctx, cfg, logger, metrics, health)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	repo := storage.NewInstrumentedRepository(b.repo, b.name, metrics, logger)
	repo.RefreshPetsTotal(ctx)
	logger.WithFields(map[string]interface{}{
		"storage": b.name,
		"cache":   cfg.Storage.CacheEnabled,
	}).Info("Storage initialized")

	hub := events.NewHub(logger,
		events.WithMetrics(metrics),
		events.WithAllowedOrigins(cfg.Server.CORSOrigins),
	)

	apiServer := api.NewServer(repo,
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithEvents(hub),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		api.WithTracing(cfg.Observability.OTelEnabled),
	)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, httpServer, opsServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return hub.Close() })
	for _, fn := range b.cleanups {
		shutdown.RegisterShutdownFunc(fn)
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	if cfg.Backup.Enabled() {
		scheduler, err := backup.NewScheduler(cfg.Backup.Schedule, repo, b.sink, logger, metrics)
		if err != nil {
			return err
		}
		scheduler.Start()
		shutdown.RegisterShutdownFunc(scheduler.Stop)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("Starting pet store API server")
		return serve(httpServer)
	})
	g.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("Starting health and metrics server")
		return serve(opsServer)
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s failed: %w", srv.Addr, err)
	}
	return nil
}
