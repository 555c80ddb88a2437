// Command ledger-server serves the ledger JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/cache"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg)

	session, err := cli.OpenSession(context.Background(), cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open ledger", err)
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(session.Reports)
	caches.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, session.Service, logger, apphttp.Options{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:    cfg.TrustedProxyList(),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if err := session.Service.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		log.FieldBackend, cfg.Backend,
		log.FieldCount, session.Stats.Transactions)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
