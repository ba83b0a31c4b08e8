package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneymap/internal/amqp"
	"moneymap/internal/config"
	applog "moneymap/internal/log"
	"moneymap/internal/scheduler"
	"moneymap/internal/services"
	"moneymap/internal/storage"
	"moneymap/internal/store"
	"moneymap/internal/store/memory"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	rootLogger := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(rootLogger)
	logger := rootLogger.WithComponent(applog.ComponentWorker)

	logger.Info("Starting statement-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	// Pick the data backend
	var st store.Store
	switch cfg.Backend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository",
				applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		st = repo
		logger.Info("SQLite backend initialized", "path", cfg.SQLiteDBPath)
	case "memory":
		st = memory.New()
		logger.Warn("In-memory backend selected, statements will not survive a restart")
	}

	// AMQP is optional: without it statements are still generated, they
	// just are not announced to the export worker.
	var publisher services.StatementPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, statement events disabled",
				applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized, statement events enabled")
		}
	} else {
		logger.Info("AMQP disabled, statement events will not be published")
	}

	generator := services.NewStatementGenerator(st, publisher)
	sweep := services.NewSweepProcessor(st, generator, cfg.SweepParallelism)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(cfg.StatementCron, sweep)
	if err := sched.Start(ctx); err != nil {
		logger.Error("Failed to start statement scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Statement scheduler running",
		"cron", cfg.StatementCron,
		"parallelism", cfg.SweepParallelism,
		"backend", cfg.Backend)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", applog.FieldError, err)
	}
	cancel()
	logger.Info("Statement-worker shutdown complete")
}
