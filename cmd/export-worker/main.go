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

	"moneymap/internal/amqp"
	"moneymap/internal/config"
	"moneymap/internal/export"
	applog "moneymap/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	rootLogger := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(rootLogger)
	logger := rootLogger.WithComponent(applog.ComponentExport)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required, the export worker consumes statement events")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := export.NewSheetsClient(ctx, cfg.GoogleSpreadsheetID, cfg.StatementsSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.StatementsSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	worker := export.NewWorker(sheetsClient)

	go func() {
		err := amqpClient.ConsumeStatementCreated(ctx, func(msg *amqp.StatementCreatedMessage) error {
			return worker.HandleStatementCreated(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Statement event consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down export-worker...")
	cancel()

	// Give the in-flight delivery a moment to ack before the channel
	// closes.
	time.Sleep(2 * time.Second)
	logger.Info("Export-worker shutdown complete")
}
