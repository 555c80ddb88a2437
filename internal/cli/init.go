// Package cli provides the initialization shared by cmd/ledger and
// cmd/ledger-server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cache"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration from the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as
// the slog default. Logs go to stderr so stdout stays free for output.
func SetupLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// Session is an opened ledger service with the resources it was built from.
type Session struct {
	Service *services.LedgerService
	Reports *cache.ReportCache
	Stats   services.Stats
}

// OpenSession creates the configured store, connects the optional event
// publisher and loads the ledger. The caller owns Session.Service and must
// Close it.
func OpenSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	reports := cache.NewReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithReportCache(reports),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
		}, logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			// Notifications are optional; the ledger works without them.
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err.Error())
		} else {
			opts = append(opts, services.WithPublisher(client))
		}
	}

	svc := services.NewLedgerService(result.Store, opts...)
	stats, err := svc.Open(ctx)
	if err != nil {
		if cerr := svc.Close(); cerr != nil {
			logger.Error("Failed to close ledger service", log.FieldError, cerr.Error())
		}
		return nil, err
	}
	return &Session{Service: svc, Reports: reports, Stats: stats}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, fmt.Sprint(err))
	os.Exit(1)
}
