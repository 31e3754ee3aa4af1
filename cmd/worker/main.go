// The worker runs periodic detect-and-reconcile cycles for every user on a
// cron schedule. The same engine the server exposes on demand, just driven
// by the clock.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/subtrackapp/subtrack-backend/internal/catalog"
	"github.com/subtrackapp/subtrack-backend/internal/config"
	"github.com/subtrackapp/subtrack-backend/internal/database"
	"github.com/subtrackapp/subtrack-backend/internal/detector"
	"github.com/subtrackapp/subtrack-backend/internal/generator"
	"github.com/subtrackapp/subtrack-backend/internal/logging"
	"github.com/subtrackapp/subtrack-backend/internal/matcher"
	"github.com/subtrackapp/subtrack-backend/internal/services"
)

func main() {
	logging.Setup()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := catalog.Seed(database.DB); err != nil {
		slog.Error("catalog seed failed", "error", err)
		os.Exit(1)
	}

	catalogStore, err := catalog.NewStore(database.DB, cfg.CatalogCacheTTL)
	if err != nil {
		slog.Error("catalog store init failed", "error", err)
		os.Exit(1)
	}

	merchantMatcher := matcher.New(catalogStore, matcher.DefaultConfig())
	patternDetector := detector.New(detector.DefaultConfig(), merchantMatcher)
	transactionService := services.NewTransactionService(database.DB)
	subscriptionService := services.NewSubscriptionService(database.DB)
	subscriptionGenerator := generator.New(subscriptionService)
	syncService := services.NewSyncService(database.DB, cfg, transactionService, patternDetector, subscriptionGenerator)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.WorkerSchedule, syncService.RunAll); err != nil {
		slog.Error("invalid worker schedule", "schedule", cfg.WorkerSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	slog.Info("sync worker started", "schedule", cfg.WorkerSchedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("stopping sync worker...")
	ctx := scheduler.Stop()
	<-ctx.Done()

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("sync worker stopped")
}
