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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/constructtrack/platform/internal/adapters/http"
	natsadapter "github.com/constructtrack/platform/internal/adapters/nats"
	"github.com/constructtrack/platform/internal/adapters/postgres"
	supabaseadapter "github.com/constructtrack/platform/internal/adapters/supabase"
	"github.com/constructtrack/platform/internal/adapters/valkey"
	"github.com/constructtrack/platform/internal/core/ports"
	"github.com/constructtrack/platform/internal/core/usecases"
	"github.com/constructtrack/platform/internal/pkg/config"
	"github.com/constructtrack/platform/internal/pkg/logging"
	"github.com/constructtrack/platform/internal/pkg/telemetry"
	"github.com/constructtrack/platform/internal/reporting"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("constructtrack-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, os.Getenv("LOG_FORMAT"))

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

	// Error reporting
	release := cfg.Sentry.Release
	if release == "" {
		release = "constructtrack-api@" + version
	}
	reporter, err := reporting.New(reporting.Options{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          release,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	})
	if err != nil {
		log.Fatalf("sentry: %v", err)
	}
	defer reporter.Flush(2 * time.Second)
	if !reporter.Enabled() {
		slog.Info("sentry DSN not set, events are dropped")
	}

	// Storage
	var (
		repo ports.ProjectRepository
		db   *postgres.DB
	)
	switch cfg.Storage.Backend {
	case "postgres":
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		repo = postgres.NewProjectRepo(db.Pool)
	default:
		client, err := supabaseadapter.New(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Schema)
		if err != nil {
			log.Fatalf("supabase: %v", err)
		}
		repo = supabaseadapter.NewProjectRepo(client)

		// The pool is optional here; it only feeds readiness and pool metrics.
		if db, err = postgres.New(ctx, cfg.Database.DSN()); err != nil {
			slog.Warn("database unavailable", "error", err)
		} else {
			defer db.Close()
			go db.ReportPoolStats(ctx, 15*time.Second)
		}
	}
	slog.Info("storage backend selected", "backend", cfg.Storage.Backend)

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "constructtrack")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Projects:            usecases.NewProjectService(repo, cacheSvc, events),
		Reporter:            reporter,
		Events:              events,
		Versioning:          http.VersionConfigFrom(cfg.Versioning),
		NotionWebhookSecret: cfg.Notion.WebhookSecret,
		StorageBackend:      cfg.Storage.Backend,
		NATS:                natsConn,
		DB:                  db,
		Cache:               cache,
		BuildVersion:        version,
	}
	if deps.NotionWebhookSecret == "" {
		slog.Warn("NOTION_WEBHOOK_SECRET not set, webhook intake disabled")
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "ConstructTrack API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Version, X-Notion-Signature",
		ExposeHeaders:    "X-API-Version, X-API-Supported-Versions, Deprecation, Sunset, Link, Warning",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
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
