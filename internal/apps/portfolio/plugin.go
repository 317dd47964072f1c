package portfolio

import (
	"sync"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the collaborators the plugin wires into its service. Only Catalog
// is required.
type Deps struct {
	Catalog      TemplateCatalog
	Activity     ActivitySink
	Cache        DocumentCache
	Photos       PhotoStore
	Entitlements Entitlements
}

type PortfolioPlugin struct {
	deps    Deps
	once    sync.Once
	handler *PortfolioHandler
}

func New(deps Deps) *PortfolioPlugin {
	return &PortfolioPlugin{deps: deps}
}

func (p *PortfolioPlugin) ID() string { return AppID }

func (p *PortfolioPlugin) Models() []interface{} {
	return []interface{}{
		&Project{},
		&Section{},
		&Item{},
	}
}

// handlerFor builds the service once; both route groups share it.
func (p *PortfolioPlugin) handlerFor(db *gorm.DB) *PortfolioHandler {
	p.once.Do(func() {
		svc := NewService(db, p.deps.Catalog, p.deps.Activity)
		if p.deps.Cache != nil {
			svc.WithCache(p.deps.Cache)
		}
		if p.deps.Photos != nil {
			svc.WithPhotos(p.deps.Photos)
		}
		if p.deps.Entitlements != nil {
			svc.WithEntitlements(p.deps.Entitlements)
		}
		p.handler = NewPortfolioHandler(svc)
	})
	return p.handler
}

func (p *PortfolioPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := p.handlerFor(db)

	router.Get("/portfolios", handler.List)
	router.Post("/portfolios", handler.Create)
	router.Get("/portfolios/summary", handler.Summary)
	router.Get("/portfolios/:id", handler.Get)
	router.Patch("/portfolios/:id", handler.Update)
	router.Delete("/portfolios/:id", handler.Delete)
	router.Post("/portfolios/:id/publish", handler.Publish)
	router.Put("/portfolios/:id/visibility", handler.SetVisibility)
	router.Get("/portfolios/:id/preview", handler.Preview)
	router.Put("/portfolios/:id/sections/order", handler.ReorderSections)
	router.Put("/portfolios/:id/photo", handler.UploadPhoto)
	router.Delete("/portfolios/:id/photo", handler.DeletePhoto)

	router.Patch("/sections/:sectionId", handler.ToggleSection)
	router.Post("/sections/:sectionId/items", handler.CreateItem)
	router.Put("/sections/:sectionId/items/order", handler.ReorderItems)
	router.Put("/sections/:sectionId/items/:itemId", handler.UpdateItem)
	router.Delete("/sections/:sectionId/items/:itemId", handler.DeleteItem)
}

// RegisterPublicRoutes mounts the unauthenticated read path.
func (p *PortfolioPlugin) RegisterPublicRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := p.handlerFor(db)
	router.Get("/portfolios/:slug", handler.Public)
}
