package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Livshiz/finance-bot/internal/amqp"
	"github.com/Livshiz/finance-bot/internal/config"
	"github.com/Livshiz/finance-bot/internal/log"
	"github.com/Livshiz/finance-bot/internal/report"
	"github.com/Livshiz/finance-bot/internal/scheduler"
	"github.com/Livshiz/finance-bot/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentScheduler)

	logger.Info("Starting report-scheduler")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if len(cfg.RecipientIDs) == 0 {
		logger.Error("No recipients configured, set RECIPIENT_IDS")
		os.Exit(1)
	}

	loc, err := cfg.Timezone()
	if err != nil {
		logger.Error("Failed to load family timezone", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.Categories)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPDeliveryQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reports := report.NewBuilder(repo, loc)
	sched := scheduler.New(reports, amqpClient, cfg.RecipientIDs, loc, cfg.ReportWeekday, cfg.ReportHour)

	logger.Info("Weekly report schedule configured",
		"weekday", cfg.ReportWeekday.String(),
		"hour", cfg.ReportHour,
		"timezone", cfg.FamilyTimezone,
		"recipients", len(cfg.RecipientIDs))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Scheduler stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Scheduler shutdown complete")
}
