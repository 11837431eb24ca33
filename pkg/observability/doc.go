// Package observability provides structured logging, Prometheus metrics,
// health probes, graceful shutdown and OpenTelemetry setup for the pet store.
//
// # Logging
//
// Logs are JSON lines produced by logrus:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("pet_id", "4").Info("Pet added")
//
// # Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// # Health
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("store", true, storeProbe)
//	checker.AddCheck("redis", false, observability.RedisCheck(client))
//	observability.RegisterHealthRoutes(opsMux, checker)
//
// # Tracing
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{...}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
