// Package cli provides the initialization shared by the fintrack commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/api"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Output = os.Stderr
	if cfg != nil {
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		lc.Format = strings.ToLower(cfg.LogFormat)
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Session bundles the session store with the storage it persists to.
type Session struct {
	Store   *session.Store
	Storage *backend.StorageResult
}

// Close releases the underlying storage.
func (s *Session) Close() error {
	return s.Storage.Close()
}

// OpenSession creates the configured token storage and a store on top of it.
// The store is not initialized.
func OpenSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateStorage(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create session storage: %w", err)
	}
	store := session.NewStore(result.Storage, session.WithLogger(logger))
	return &Session{Store: store, Storage: result}, nil
}

// NewAPIClient returns a finance API client that authenticates with the
// token held by ts.
func NewAPIClient(cfg *config.Config, ts api.TokenSource, logger *log.Logger) *api.Client {
	return api.New(api.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		RetryMaxElapsed: cfg.APIRetryMaxElapsed,
	}, api.WithTokenSource(ts), api.WithLogger(logger))
}

// GracefulShutdown returns a context cancelled on SIGINT, SIGTERM or when
// parent is done. Cleanup then runs with a context bounded by timeout, and
// done is closed once it returns.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (ctx context.Context, done <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	finished := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-parent.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(finished)
	}()

	return ctx, finished
}
