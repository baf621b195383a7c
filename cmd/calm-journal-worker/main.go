package main

import (
	"context"
	"os"
	"time"

	"calm/internal/amqp"
	"calm/internal/cli"
	"calm/internal/config"
	"calm/internal/log"
	"calm/internal/storage"
	"calm/internal/worker"
)

const reportInterval = time.Hour

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting calm-journal-worker")

	repo, err := storage.NewJournalRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize journal repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("Journal ready", "path", cfg.SQLiteDBPath, "schema_version", repo.SchemaVersion())

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	parent, fail := context.WithCancelCause(context.Background())
	defer fail(nil)
	ctx, done := cli.GracefulShutdown(parent, logger, 10*time.Second, nil)

	journal := worker.NewJournalWorker(repo, client)
	if err := journal.ReportTotals(ctx); err != nil {
		logger.Error("Failed to read journal", log.FieldError, err)
	}

	go func() {
		if err := journal.Run(ctx); err != nil {
			logger.Error("Message consumption failed", log.FieldError, err)
			fail(err)
		}
	}()

	go func() {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := journal.ReportTotals(ctx); err != nil {
					logger.Error("Periodic journal report failed", log.FieldError, err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if err := context.Cause(parent); err != nil && err != context.Canceled {
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
