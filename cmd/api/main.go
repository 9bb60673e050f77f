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

	"github.com/nivharel/waymark/internal/adapters/gpx"
	"github.com/nivharel/waymark/internal/adapters/http"
	"github.com/nivharel/waymark/internal/adapters/memory"
	natsadapter "github.com/nivharel/waymark/internal/adapters/nats"
	"github.com/nivharel/waymark/internal/adapters/osrm"
	"github.com/nivharel/waymark/internal/adapters/overpass"
	"github.com/nivharel/waymark/internal/adapters/valhalla"
	"github.com/nivharel/waymark/internal/adapters/valkey"
	"github.com/nivharel/waymark/internal/core/ports"
	"github.com/nivharel/waymark/internal/core/usecases"
	"github.com/nivharel/waymark/internal/pkg/config"
	"github.com/nivharel/waymark/internal/pkg/logging"
	"github.com/nivharel/waymark/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("waymark-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			cacheSvc = cache
		}
	}

	// NATS
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	// Providers
	router := osrm.NewRouter(cfg.Router.URL, cfg.Router.Profile,
		time.Duration(cfg.Router.TimeoutSeconds)*time.Second)
	directions := valhalla.NewDirections(cfg.Directions.URL, cfg.Directions.Costing,
		time.Duration(cfg.Directions.TimeoutSeconds)*time.Second)
	trailIndex := overpass.NewClient(cfg.TrailIndex.URL,
		time.Duration(cfg.TrailIndex.TimeoutSeconds)*time.Second)
	importer := gpx.NewImporter(time.Duration(cfg.Router.TimeoutSeconds) * time.Second)

	// Use cases
	waypointRepo := memory.NewWaypointRepo()
	waypointSvc := usecases.NewWaypointService(waypointRepo)
	metricsSvc := usecases.NewRouteMetricsService()
	trailSvc := usecases.NewTrailService(trailIndex, cacheSvc)
	trackSvc := usecases.NewTrackService(importer, metricsSvc)
	composerSvc := usecases.NewCompositionService(waypointSvc, router, events)

	deps := &http.Dependencies{
		Waypoints:  waypointSvc,
		Composer:   composerSvc,
		Trails:     trailSvc,
		Tracks:     trackSvc,
		Metrics:    metricsSvc,
		Directions: directions,
		Cache:      cache,
	}

	// Raw NATS connection for WebSocket relay
	if cfg.NATS.Enabled && events != nil {
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			deps.NATS = natsConn
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    16 * 1024 * 1024, // track uploads can be large
		AppName:      "Waymark API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
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
