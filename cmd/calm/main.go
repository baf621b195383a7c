package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"calm/internal/amqp"
	"calm/internal/backend"
	"calm/internal/cache"
	"calm/internal/cli"
	"calm/internal/config"
	apphttp "calm/internal/http"
	"calm/internal/log"
	"calm/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	tasksBackend, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize task backend", log.FieldError, err, log.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	// Duration events are optional; the API works without a broker.
	var publisher services.DurationPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without duration events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	cacheManager := cache.NewManager()
	defer cacheManager.Stop()

	deps := apphttp.Deps{
		Logger:             logger,
		ChartSecrets:       backendCfg.ChartSecrets(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if tasksBackend.Reader != nil {
		charts := services.NewChartService(tasksBackend.Reader, services.ChartOptions{
			CacheSize: cfg.ChartCacheSize,
			CacheTTL:  cfg.ChartCacheTTL,
		})
		cacheManager.Register(charts.Cache())
		deps.Charts = charts
	}
	if tasksBackend.Store != nil {
		deps.TimeLog = services.NewTimeLogService(tasksBackend.Store, publisher)
	}
	cacheManager.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting calm server",
		"port", cfg.Port,
		log.FieldBackend, backendCfg.Type,
		"charts_enabled", deps.Charts != nil,
		"write_back_enabled", deps.TimeLog != nil,
		"events_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
