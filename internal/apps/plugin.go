package apps

import (
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin defines the interface every app must implement.
type Plugin interface {
	// ID returns the unique app identifier reported to the parent app.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts app-specific routes on the given Fiber group.
	// The group is prefixed with /api/p, requires a JWT and carries the
	// resolved identity.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// PublicPlugin extends Plugin with routes that need no authentication.
type PublicPlugin interface {
	Plugin

	// RegisterPublicRoutes mounts routes on the /api/public group.
	RegisterPublicRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
