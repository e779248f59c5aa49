package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/config"
	"budgetbook/internal/export/google"
	applog "budgetbook/internal/log"
	"budgetbook/internal/storage"
	"budgetbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting budgetbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Snapshot sink is optional; without it the worker only drains events.
	sheetsClient, err := google.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if sheetsClient == nil {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	} else {
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var exportWorker *worker.ExportWorker
	if sheetsClient != nil {
		exportWorker = worker.NewExportWorker(sqliteRepo, sheetsClient)

		// On startup, sweep all accounts so missed events are caught up.
		logger.Info("Performing startup export sweep...")
		if err := exportWorker.ExportAll(ctx); err != nil {
			logger.Error("Startup export sweep failed", "error", err)
			// Don't exit - continue with normal operation
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if exportWorker != nil {
		g.Go(func() error {
			return amqpClient.ConsumeBudgetEvents(gctx, exportWorker.HandleBudgetEvent)
		})

		g.Go(func() error {
			ticker := time.NewTicker(cfg.ExportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					if err := exportWorker.ExportAll(gctx); err != nil {
						logger.Error("Periodic export sweep failed", "error", err)
					}
				}
			}
		})
	} else {
		// Drain and ack events so the queue doesn't grow unbounded.
		g.Go(func() error {
			return amqpClient.ConsumeBudgetEvents(gctx, func(context.Context, *amqp.BudgetEventMessage) error {
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
