package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/database"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/templates"
	"github.com/gofiber/fiber/v2"
)

// Pinger is an optional dependency the health check reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	catalog *templates.Catalog
	cache   Pinger
	dbPing  func() error
}

func NewHealthHandler(catalog *templates.Catalog, cache Pinger) *HealthHandler {
	return &HealthHandler{catalog: catalog, cache: cache, dbPing: database.Ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.dbPing(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	resp := dto.HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		DB:            dbStatus,
		TemplateCount: len(h.catalog.All()),
	}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			resp.Cache = "unhealthy: " + err.Error()
		}
	}
	return c.JSON(resp)
}
