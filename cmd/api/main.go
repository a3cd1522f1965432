package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/storesync/reconciliation-backend/internal/api/rest"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/cache"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/config"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/database"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/mailer"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/repository"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/telemetry"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/woocommerce"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/zoho"
	"github.com/storesync/reconciliation-backend/internal/metrics"
	reconservice "github.com/storesync/reconciliation-backend/internal/service/reconciliation"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)

	// Infrastructure components log through zap
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, &cfg.Database, zapLogger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runLock, err := cache.NewRunLock(&cfg.Redis, cfg.StaleRunThreshold, zapLogger)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer runLock.Close()

	reports := repository.NewReportRepository(pool)
	orders := woocommerce.NewClient(&cfg.WooCommerce)
	invoices := zoho.NewClient(&cfg.Zoho)

	sender := mailer.NewSMTPSender(cfg.SMTP)
	notifier := reconservice.NewEmailNotifier(sender, logger)

	settings := reconservice.StaticSettings{Settings: cfg.Reconciliation}

	service, err := reconservice.NewService(
		reports, orders, invoices, settings,
		runLock, notifier, metrics.NewCollector(),
		logger, cfg.StaleRunThreshold,
	)
	if err != nil {
		logger.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	runner := reconservice.NewRunner(service, settings, logger)
	go runner.Start(ctx)

	handler := rest.NewHandler(service, logger)
	server := rest.NewServer(cfg.Server, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
