// Package cli provides the bootstrap steps of cmd/finledger: environment
// loading, logging, configuration, store initialization and signal-driven
// cleanup.
package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"finledger/internal/config"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// LoadEnvFile loads the .env file if there is one.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger for the configured level and
// sets it as the slog default. An unknown level falls back to warn.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	if lvl, err := applog.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration, builds the logger at the
// configured level and validates the rest.
// Exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	logger = logger.WithComponent(applog.ComponentStorage)
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("Database connected", "path", dbPath, applog.FieldOperation, applog.OpStartup)
	return repo
}

// OnShutdown runs cleanup once when SIGINT or SIGTERM arrives and then
// exits with status 130. The returned stop function detaches the handler;
// call it on the normal exit path.
func OnShutdown(logger *applog.Logger, cleanup func()) (stop func()) {
	return onSignal(logger, cleanup, func() { os.Exit(130) }, syscall.SIGINT, syscall.SIGTERM)
}

func onSignal(logger *applog.Logger, cleanup, exit func(), sigs ...os.Signal) func() {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)
			if cleanup != nil {
				cleanup()
			}
			exit()
		case <-ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigChan)
		cancel()
		wg.Wait()
	}
}
