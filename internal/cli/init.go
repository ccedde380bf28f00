// Package cli provides common CLI initialization utilities shared by
// cmd/finmate and cmd/finmate-events.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finmate/internal/config"
	"finmate/internal/log"
)

// SetupLogger builds the process logger from the configured level and format
// and installs it as the slog default. Unknown values fall back to info/text;
// Config.Validate reports them.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	format := cfg.LogFormat
	if !log.ValidFormat(format) {
		format = log.FormatText
	}

	logger := log.New(log.Config{
		Level:     level,
		Format:    format,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment, sets up logging and validates the result.
func LoadConfig(out io.Writer) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	logger := SetupLogger(cfg, out)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *log.Logger) {
	cfg, logger, err := LoadConfig(os.Stdout)
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel(fmt.Errorf("%w: %s", ErrSignal, sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// ErrSignal is the cancellation cause set when a shutdown signal arrives.
var ErrSignal = errors.New("shutdown signal")

// Cleanup runs fn and logs a failure instead of returning it.
func Cleanup(logger *log.Logger, what string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Error("Cleanup failed", "resource", what, log.FieldError, err)
	}
}
