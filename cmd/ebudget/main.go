package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ebudget/internal/amqp"
	"ebudget/internal/backend"
	"ebudget/internal/cache"
	"ebudget/internal/cli"
	"ebudget/internal/format"
	apphttp "ebudget/internal/http"
	"ebudget/internal/log"
	"ebudget/internal/projection"
	"ebudget/internal/services"
)

// pinger is implemented by the relational stores.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	snapshots := cache.NewLRU[*projection.Snapshot](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithSnapshotCache(snapshots),
	}

	// Change events are optional; without a broker nothing is exported.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(result.Store, opts...)

	janitor := cache.NewManager(logger)
	janitor.Register(snapshots)
	janitor.Start(context.Background(), time.Minute)

	var ready func(context.Context) error
	if p, ok := result.Store.(pinger); ok {
		ready = p.Ping
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		Logger:       logger,
		Format:       format.Options{Locale: cfg.Locale, Currency: cfg.Currency},
		JWTSecret:    cfg.JWTSecret,
		RateLimitRPM: cfg.RateLimitRPM,
		Ready:        ready,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		janitor.Stop()
		// Closes the store and the publisher.
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to release ledger resources", log.FieldError, err)
		}
	})

	logger.Info("Starting ebudget server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"budgets", ledger.SupportsBudgets(),
		"jwt", cfg.JWTSecret != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
