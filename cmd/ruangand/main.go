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

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"ruangan-admin-backend/config"
	"ruangan-admin-backend/internal/api"
	"ruangan-admin-backend/internal/logger"
	"ruangan-admin-backend/internal/notification"
	"ruangan-admin-backend/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zl.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		zl.Warn("VAPID keys are not configured, push subscriptions cannot be created")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open backends", zap.Error(err))
	}
	defer b.Close()

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, b.store, &webpushOptions, zl)
	workerPool.Start(ctx)

	svc := service.New(b.store, b.blob, workerPool, zl)
	handler := api.NewHandler(svc, &webpushOptions, cfg.Server.MaxUploadMB<<20, zl)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg, zl),
	}

	go func() {
		zl.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	zl.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server Shutdown", zap.Error(err))
	}
	cancel()

	zl.Info("server gracefully stopped")
}
