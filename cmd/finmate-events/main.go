package main

import (
	"context"
	"errors"
	"os"

	"finmate/internal/amqp"
	"finmate/internal/backend"
	"finmate/internal/cli"
	"finmate/internal/config"
	"finmate/internal/log"
	"finmate/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentEvents)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required to consume expense events")
		os.Exit(1)
	}

	logger.Info("Starting finmate-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	// The memory backend lives in the API process; only a shared database can be read here.
	var reader worker.ExpenseReader
	if cfg.DataBackend != config.BackendMemory {
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			logger.Error("Invalid backend configuration", log.FieldError, err)
			os.Exit(1)
		}
		// This process only consumes; it must not publish or cache.
		backendCfg.AMQPURL = ""
		backendCfg.SummaryCacheTTL = 0

		result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
		if err != nil {
			logger.Warn("Storage unavailable, events are logged without expense details", log.FieldError, err)
		} else {
			defer cli.Cleanup(logger, "backend", result.Cleanup)
			reader = result.Store
		}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer cli.Cleanup(logger, "amqp", client.Close)

	eventWorker := worker.NewEventWorker(reader, logger)

	err = client.ConsumeExpenseEvents(ctx, eventWorker.HandleExpenseEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	stats := eventWorker.Stats()
	logger.Info("Event consumer stopped",
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"stale", stats.Stale)
}
