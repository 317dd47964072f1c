package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	entitlements middleware.Entitlements,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Webhooks authenticate with a shared Authorization value (no JWT)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/revenuecat", webhookHandler.HandleRevenueCat)

	// Public read path, stricter per-IP limit
	public := api.Group("/public")
	public.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Plugin routes: JWT plus identity resolution, applied to this group only
	protected := api.Group("/p", middleware.JWTProtected(cfg), middleware.Identity(entitlements))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
		if pp, ok := p.(apps.PublicPlugin); ok {
			pp.RegisterPublicRoutes(public, db, cfg)
		}
	}
}
