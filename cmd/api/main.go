package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/database"
	"github.com/gigmile/receivables-service/internal/infrastructure/messaging"
	"github.com/gigmile/receivables-service/internal/interface/http/handler"
	"github.com/gigmile/receivables-service/internal/interface/http/router"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx := context.Background()
	res, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ledger store", zap.Error(err), zap.String("store", cfg.Ledger.Store))
	}
	defer res.Close()

	var eventPublisher domain.EventPublisher
	if res.Redis != nil {
		eventPublisher = messaging.NewRedisEventPublisher(res.Redis, logger, messaging.WithStreamMaxLen(cfg.Ledger.StreamMaxLen))
		logger.Info("event publishing enabled")
	} else {
		logger.Warn("event publishing disabled, no Redis connection")
	}

	handlers := handler.NewHandlers(res.Store, res.Guard(), eventPublisher, cfg.Ledger, logger)
	r := router.NewRouter(handlers, logger)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", zap.String("address", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
