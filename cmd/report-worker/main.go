package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"ebudget/internal/amqp"
	"ebudget/internal/backend"
	"ebudget/internal/cache"
	"ebudget/internal/cli"
	"ebudget/internal/log"
	"ebudget/internal/projection"
	"ebudget/internal/report"
	"ebudget/internal/services"
	"ebudget/internal/sheets"
	"ebudget/internal/sheets/gcs"
	gsheet "ebudget/internal/sheets/google"
	"ebudget/internal/sheets/memory"
	"ebudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting report-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the report worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The memory store would be empty here; the API's writes live in its
	// own process.
	if err := backend.RequireShared(backendCfg); err != nil {
		logger.Error("The report worker needs DATA_BACKEND=sqlite or mysql", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	// The worker only reads; it keeps its own snapshot cache and drops a
	// user's entry on every change event.
	snapshots := cache.NewLRU[*projection.Snapshot](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	ledger := services.NewLedgerService(result.Store,
		services.WithLogger(logger),
		services.WithSnapshotCache(snapshots))
	defer ledger.Close()

	var (
		writers []sheets.ReportWriter
		closers []io.Closer
	)
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetBase:       cfg.ReportSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writers = append(writers, sheetsClient)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	if cfg.GCSBucket != "" {
		archive, err := gcs.New(context.Background(), cfg.GCSBucket, cfg.GCSPrefix, logger)
		if err != nil {
			logger.Error("Failed to initialize Cloud Storage client", log.FieldError, err)
			os.Exit(1)
		}
		writers = append(writers, archive)
		closers = append(closers, archive)
		logger.Info("Cloud Storage archive enabled", "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
	}
	if len(writers) == 0 {
		// Keeps the pipeline observable in development.
		writers = append(writers, memory.New())
		logger.Warn("No report destination configured, exporting to memory only")
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error("Failed to close report writer", log.FieldError, err)
			}
		}
	}()

	reportWorker := worker.NewReportWorker(ledger, report.ParseGranularity(cfg.ReportGrouping), logger, writers...)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	janitor := cache.NewManager(logger)
	janitor.Register(snapshots)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		janitor.Stop()
	})
	janitor.Start(ctx, time.Minute)

	// Events published while the worker was down are lost; re-export the
	// known users once.
	reportWorker.StartupExport(ctx, cfg.ReportUsers)

	if err := amqpClient.ConsumeLedgerChanges(ctx, reportWorker.HandleLedgerChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
