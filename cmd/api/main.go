package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mgoiri/geolens/internal/adapters/http"
	"github.com/mgoiri/geolens/internal/adapters/insights"
	"github.com/mgoiri/geolens/internal/adapters/localfs"
	natsadapter "github.com/mgoiri/geolens/internal/adapters/nats"
	"github.com/mgoiri/geolens/internal/adapters/postgres"
	"github.com/mgoiri/geolens/internal/adapters/valkey"
	"github.com/mgoiri/geolens/internal/core/usecases"
	"github.com/mgoiri/geolens/internal/pkg/auth"
	"github.com/mgoiri/geolens/internal/pkg/config"
	"github.com/mgoiri/geolens/internal/pkg/logging"
	"github.com/mgoiri/geolens/internal/pkg/metrics"
	"github.com/mgoiri/geolens/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geolens-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.SetupService("api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Upload storage
	fileStore, err := localfs.New(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatalf("upload storage: %v", err)
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	datasetRepo := postgres.NewDatasetRepo(db)
	runRepo := postgres.NewAnalysisRunRepo(db)
	placeRepo := postgres.NewPlaceRepo(db)
	usageRepo := postgres.NewInsightUsageRepo(db)

	// Use cases
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	authSvc := usecases.NewAuthService(userRepo, tokens)
	datasetSvc := usecases.NewDatasetService(datasetRepo, fileStore, publisher)
	analysisSvc := usecases.NewAnalysisService(datasetSvc, runRepo, cache, publisher)
	placeSvc := usecases.NewPlaceService(placeRepo, cache)
	insightSvc := usecases.NewInsightService(analysisSvc, usageRepo, insights.NewProxyClient(cfg.AI.InsightsURL))

	deps := &http.Dependencies{
		Auth:           authSvc,
		Datasets:       datasetSvc,
		Analyses:       analysisSvc,
		Places:         placeSvc,
		Insights:       insightSvc,
		NATS:           natsConn,
		DB:             db,
		Cache:          cache,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) * 1024 * 1024,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.MaxUploadMB * 1024 * 1024,
		AppName:      "GeoLens API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
