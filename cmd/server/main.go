package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/cache"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/database"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/logging"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/routes"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/storage"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/templates"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Template catalog, reloaded when the override file changes
	catalog, err := templates.LoadFromFile(cfg.TemplatesPath)
	if err != nil {
		slog.Error("failed to load template catalog", "path", cfg.TemplatesPath, "error", err)
		os.Exit(1)
	}
	slog.Info("template catalog loaded", "templates", len(catalog.All()))
	if cfg.TemplatesPath != "" {
		if err := catalog.Watch(ctx, cfg.TemplatesPath); err != nil {
			slog.Warn("template hot reload disabled", "path", cfg.TemplatesPath, "error", err)
		}
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Services
	subscriptionService := services.NewSubscriptionService(database.DB)
	activityWebhook := services.NewActivityWebhook(cfg.ParentAppURL, cfg.ActivityWebhookSecret, cfg.ActivityTimeout)
	var notifier portfolio.ActivityNotifier
	if activityWebhook.Enabled() {
		notifier = activityWebhook
	} else {
		slog.Warn("activity webhook disabled: PARENT_APP_URL or ACTIVITY_WEBHOOK_SECRET not set")
	}
	dispatcher := portfolio.NewActivityDispatcher(database.DB, notifier, cfg.ActivityTimeout, cfg.ActivityMaxInFlight)

	deps := portfolio.Deps{
		Catalog:      catalog,
		Activity:     dispatcher,
		Entitlements: subscriptionService,
	}

	var docs *cache.Documents
	if cfg.RedisURL != "" {
		docs, err = cache.NewDocuments(cfg.RedisURL, cfg.PublicCacheTTL)
		if err != nil {
			slog.Warn("public document cache disabled", "error", err)
		} else {
			deps.Cache = docs
			subscriptionService.OnLapse(func(ctx context.Context, userID string) {
				if err := portfolio.InvalidateOwner(ctx, database.DB, docs, userID); err != nil {
					slog.Warn("public cache invalidation after lapse failed", "user_id", userID, "error", err)
				}
			})
		}
	}

	if cfg.PhotosEnabled() {
		store, err := storage.NewObjectStore(ctx, storage.ObjectStoreConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			slog.Warn("profile photo uploads disabled", "error", err)
		} else {
			deps.Photos = store
		}
	}

	plugins := []apps.Plugin{
		portfolio.New(deps),
	}

	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Handlers
	var cachePinger handlers.Pinger
	if docs != nil {
		cachePinger = docs
	}
	healthHandler := handlers.NewHealthHandler(catalog, cachePinger)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg.RevenueCatWebhookAuth)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; the body limit leaves room for a 5 MiB photo plus form overhead
	app := fiber.New(fiber.Config{
		BodyLimit:    portfolio.MaxPhotoBytes + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, database.DB, healthHandler, webhookHandler, subscriptionService, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stop()
	dispatcher.Wait()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if docs != nil {
		if err := docs.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
