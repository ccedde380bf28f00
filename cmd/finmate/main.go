package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"finmate/internal/backend"
	"finmate/internal/cli"
	apphttp "finmate/internal/http"
	"finmate/internal/log"
	"finmate/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer cli.Cleanup(logger, "backend", result.Cleanup)

	expenseService := services.NewExpenseService(result.Store)

	srv := apphttp.NewServer(cfg.HTTPAddr, expenseService, apphttp.Options{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		Logger:            logger,
		RequestsPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:    cfg.RequestTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finmate server",
			"addr", cfg.HTTPAddr,
			"backend", cfg.DataBackend,
			"events", result.EventsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.HTTPAddr)
		cli.Cleanup(logger, "backend", result.Cleanup)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
