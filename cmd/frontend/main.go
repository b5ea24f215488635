package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/frontend"
	"github.com/maximilianw-google/av-assistant/internal/frontend/client"
	"github.com/maximilianw-google/av-assistant/internal/otel"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := otel.Init(ctx, "av-assistant-frontend", logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	backend := client.New(cfg.Frontend, logger)
	app := frontend.New(backend, logger, "./views")

	addr := ":" + cfg.Port

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("frontend started",
		zap.String("addr", addr),
		zap.String("backend_url", cfg.Frontend.BackendURL))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
