package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/agent"
	"github.com/maximilianw-google/av-assistant/internal/analytics"
	"github.com/maximilianw-google/av-assistant/internal/config"
	handlers "github.com/maximilianw-google/av-assistant/internal/http/handler"
	"github.com/maximilianw-google/av-assistant/internal/http/middleware"
	"github.com/maximilianw-google/av-assistant/internal/otel"
	"github.com/maximilianw-google/av-assistant/internal/service"
	"github.com/maximilianw-google/av-assistant/internal/staging"
	"github.com/maximilianw-google/av-assistant/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, "av-assistant-backend", logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Object storage backs both document sessions and analysis staging. In
	// inline staging mode the app runs without a bucket and the document
	// endpoints are disabled.
	var objStore storage.Storage
	if cfg.Staging.Mode == config.StagingModeObject {
		objStore, err = storage.NewMinIO(cfg.MinIO, cfg.Staging.TTLDays)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
	}

	stager, err := staging.New(cfg.Staging, objStore)
	if err != nil {
		logger.Fatal("failed to initialize staging", zap.Error(err))
	}

	llm, err := agent.NewOpenAI(cfg.Agent)
	if err != nil {
		logger.Fatal("failed to initialize agent", zap.Error(err))
	}

	tracker := analytics.New(cfg.Analytics, logger)

	analysisSvc := service.NewAnalysisService(stager, llm, tracker, logger,
		time.Duration(cfg.Agent.TimeoutSec)*time.Second)

	var docSvc service.DocumentService
	if objStore != nil {
		docSvc = service.NewDocumentService(objStore)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    64 * 1024 * 1024, // multipart uploads carry full documents
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.SessionID())
	app.Use(middleware.Logger(logger))
	app.Use(promMW.Handler())
	app.Use(otelfiber.Middleware())

	handlers.RegisterRoutes(app, objStore, analysisSvc, docSvc, registry)

	addr := ":" + cfg.Port

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
