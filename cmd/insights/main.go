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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mgoiri/geolens/internal/adapters/gemini"
	"github.com/mgoiri/geolens/internal/adapters/insights"
	"github.com/mgoiri/geolens/internal/pkg/config"
	"github.com/mgoiri/geolens/internal/pkg/logging"
)

// The insights service is the only process holding the Gemini key. The main
// API proxies generation requests here, so model access can be scaled and
// rate-limited independently.
func main() {
	cfg, err := config.Load("geolens-insights")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.SetupService("insights", logLevel, "json")

	if cfg.AI.GeminiAPIKey == "" {
		log.Fatal("GEOLENS_AI_GEMINI_API_KEY is required")
	}

	client := gemini.New(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		AppName:      "GeoLens Insights",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "model": cfg.AI.GeminiModel})
	})

	app.Post("/v1/generate", func(c *fiber.Ctx) error {
		var req insights.GenerateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Result == nil {
			return c.Status(400).JSON(fiber.Map{"error": "result is required"})
		}
		if req.Context.CityName == "" {
			req.Context.CityName = cfg.AI.CityName
		}

		insight, err := client.Generate(c.UserContext(), req.Result, req.Context)
		if err != nil {
			slog.Error("generation failed", "error", err)
			return c.Status(502).JSON(fiber.Map{"error": "model call failed"})
		}
		return c.JSON(insight)
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("insights service starting", "addr", addr, "model", cfg.AI.GeminiModel)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("insights service stopped")
}
