package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/app"
	httpDelivery "github.com/allerscan/backend/internal/delivery/http"
	"github.com/allerscan/backend/internal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.LogLevel, cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting AllerScan Backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.String("database", cfg.Database.Driver),
	)

	// Catalogs are required; the server does not start without them
	application, err := app.New(cfg, zlog, app.Options{})
	if err != nil {
		zlog.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	handler := httpDelivery.NewHandler(application.Allergens, application.Cases, application.Progress, zlog.Named("http"))
	router := httpDelivery.SetupRouter(cfg, handler, zlog.Named("http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Graceful shutdown failed", zap.Error(err))
	}
}
