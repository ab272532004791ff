package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/database"
	"github.com/gigmile/receivables-service/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Load configuration
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ledger store", zap.Error(err))
	}
	defer res.Close()

	if res.Redis == nil {
		logger.Fatal("worker needs Redis streams, set LEDGER_STORE=mysql")
	}

	eventPublisher := messaging.NewRedisEventPublisher(res.Redis, logger, messaging.WithStreamMaxLen(cfg.Ledger.StreamMaxLen))
	notificationService := service.NewNotificationService(res.Store.Customers(), logger)
	reconcileService := service.NewReconcileService(res.Store, eventPublisher, logger)

	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	eventSubscriber := messaging.NewRedisEventSubscriber(res.Redis, logger, cfg.Worker.Group, consumerName,
		messaging.WithReclaim(cfg.Worker.ReclaimIdle, int64(cfg.Worker.MaxDeliveries)),
	)

	subscriptions := []struct {
		eventType string
		handler   domain.EventHandler
	}{
		{domain.EventTypeCreditSaleIssued, notificationService.HandleCreditSaleIssued},
		{domain.EventTypeCreditSaleIssued, reconcileService.HandleLedgerEvent},
		{domain.EventTypePaymentApplied, notificationService.HandlePaymentApplied},
		{domain.EventTypePaymentApplied, reconcileService.HandleLedgerEvent},
		{domain.EventTypeLedgerCorrected, notificationService.HandleLedgerCorrected},
	}
	for _, sub := range subscriptions {
		if err := eventSubscriber.Subscribe(ctx, sub.eventType, sub.handler); err != nil {
			logger.Fatal("failed to subscribe to events", zap.Error(err), zap.String("event_type", sub.eventType))
		}
	}

	if cfg.Ledger.ReconcileInterval > 0 {
		go runReconcileSweeps(ctx, reconcileService, cfg.Ledger, logger)
	}

	logger.Info("worker started",
		zap.String("consumer", consumerName),
		zap.String("group", cfg.Worker.Group),
		zap.Duration("reconcile_interval", cfg.Ledger.ReconcileInterval),
	)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down worker...")
		cancel()
	}()

	// Start processing events
	if err := eventSubscriber.Start(ctx); err != nil {
		logger.Info("worker stopped", zap.Error(err))
	}

	logger.Info("worker exited")
}

// runReconcileSweeps walks every customer on each tick until ctx ends.
func runReconcileSweeps(ctx context.Context, svc *service.ReconcileService, cfg config.LedgerConfig, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ReconcileAll(ctx, cfg.ReconcileBatch); err != nil && ctx.Err() == nil {
				logger.Error("reconciliation sweep finished with errors", zap.Error(err))
			}
		}
	}
}
