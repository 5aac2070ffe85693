package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/nan5895/church-budget-app/internal/amqp"
	"github.com/nan5895/church-budget-app/internal/cli"
	"github.com/nan5895/church-budget-app/internal/log"
	gsheet "github.com/nan5895/church-budget-app/internal/sheets/google"
	"github.com/nan5895/church-budget-app/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker exists to push local records into the spreadsheet; without
	// a spreadsheet there is nothing for it to do.
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for budget-worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	remote, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := remote.EnsureWorksheets(context.Background()); err != nil {
		logger.Error("Failed to prepare spreadsheet worksheets", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(repo, remote, worker.Config{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	// AMQP wake-ups shorten the latency between a local write and its sync;
	// the poll ticker alone still drains the queue, so a missing broker
	// degrades the worker instead of stopping it.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, running on poll interval only", log.FieldError, err)
		amqpClient = nil
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()

		if err := syncWorker.Stop(stopCtx); err != nil {
			logger.Error("Sync worker stop failed", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close failed", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("SQLite close failed", log.FieldError, err)
		}
	})

	if err := syncWorker.Start(ctx); err != nil {
		logger.Error("Failed to start sync worker", log.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRecordEvents(ctx, func(event *amqp.RecordEvent) error {
				logger.Debug("Record event received",
					"record_type", event.RecordType,
					log.FieldRecordID, event.RecordID,
					"action", event.Action)
				syncWorker.Wake()
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Record event consumption stopped, polling continues", log.FieldError, err)
			}
		}()
	}

	logger.Info("Worker running",
		"poll_interval", cfg.SyncInterval,
		"batch_size", cfg.SyncBatchSize,
		"amqp", amqpClient != nil)

	cli.WaitForShutdown(ctx, done)
}
