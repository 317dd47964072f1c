package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/templates"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateCatalog resolves template keys and their tiers.
type TemplateCatalog interface {
	Lookup(key string) (templates.Template, bool)
	IsPro(key string) bool
}

// ActivitySink receives activity after a mutation has been committed. It
// must return immediately.
type ActivitySink interface {
	Dispatch(userID, event string, entityID uuid.UUID, note *services.Notification)
}

// DocumentCache stores rendered public documents by slug.
type DocumentCache interface {
	Get(ctx context.Context, slug string) ([]byte, bool, error)
	Set(ctx context.Context, slug string, doc []byte) error
	Invalidate(ctx context.Context, slugs ...string) error
}

// Entitlements answers whether a user currently holds a paid plan.
type Entitlements interface {
	IsPaid(ctx context.Context, userID string) (bool, error)
}

type noopSink struct{}

func (noopSink) Dispatch(string, string, uuid.UUID, *services.Notification) {}

// Service is the owner-scoped registry over projects, sections and items.
type Service struct {
	db           *gorm.DB
	catalog      TemplateCatalog
	activity     ActivitySink
	cache        DocumentCache
	photos       PhotoStore
	entitlements Entitlements
	now          func() time.Time
}

func NewService(db *gorm.DB, catalog TemplateCatalog, activity ActivitySink) *Service {
	if activity == nil {
		activity = noopSink{}
	}
	return &Service{
		db:       db,
		catalog:  catalog,
		activity: activity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithCache(cache DocumentCache) *Service {
	s.cache = cache
	return s
}

func (s *Service) WithPhotos(photos PhotoStore) *Service {
	s.photos = photos
	return s
}

func (s *Service) WithEntitlements(e Entitlements) *Service {
	s.entitlements = e
	return s
}

func requireIdentity(id *identity.Identity) error {
	if id == nil || id.ID == "" {
		return unauthorized()
	}
	return nil
}

func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", badRequest("Title is required")
	}
	if utf8.RuneCountInString(title) > content.MaxProjectTitle {
		return "", badRequest("Title must be %d characters or fewer", content.MaxProjectTitle)
	}
	return title, nil
}

// checkTemplateChoice validates a template a caller is about to set.
func (s *Service) checkTemplateChoice(id *identity.Identity, key string) error {
	tmpl, ok := s.catalog.Lookup(key)
	if !ok {
		return badRequest("Unknown template %q", key)
	}
	if tmpl.Tier == templates.TierPro && !id.IsPaid {
		return paymentRequired()
	}
	return nil
}

// checkTemplateAccess gates content of a project whose template is pro.
func (s *Service) checkTemplateAccess(id *identity.Identity, p *Project) error {
	if s.catalog.IsPro(p.ThemeKey) && !id.IsPaid {
		return paymentRequired()
	}
	return nil
}

func (s *Service) ownedProject(ctx context.Context, id *identity.Identity, projectID uuid.UUID) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).Scopes(ForOwner(id.ID)).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Portfolio")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Service) accessProject(ctx context.Context, id *identity.Identity, projectID uuid.UUID) (*Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	project, err := s.ownedProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTemplateAccess(id, project); err != nil {
		return nil, err
	}
	return project, nil
}

// accessSection resolves a section through its project; a section of
// another owner is reported as missing.
func (s *Service) accessSection(ctx context.Context, id *identity.Identity, sectionID uuid.UUID) (*Section, *Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, nil, err
	}
	var section Section
	err := s.db.WithContext(ctx).First(&section, "id = ?", sectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, notFound("Section")
	}
	if err != nil {
		return nil, nil, err
	}
	project, err := s.ownedProject(ctx, id, section.ProjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, notFound("Section")
	}
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkTemplateAccess(id, project); err != nil {
		return nil, nil, err
	}
	return &section, project, nil
}

func touchProject(tx *gorm.DB, projectID uuid.UUID, now time.Time) error {
	return tx.Model(&Project{}).Where("id = ?", projectID).Update("updated_at", now).Error
}

func (s *Service) loadProject(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).
		Preload("Sections", orderedSections).
		Preload("Sections.Items", orderedItems).
		First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Portfolio")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// invalidate drops cached public documents; failures only cost freshness.
func (s *Service) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, slugs...); err != nil {
		slog.Warn("public cache invalidation failed", "slugs", slugs, "error", err)
	}
}

// seedProject writes a project with its fixed sections and the empty payloads
// of its singleton sections. Callers run it inside a transaction.
func seedProject(tx *gorm.DB, project *Project) error {
	if err := tx.Omit("Sections").Create(project).Error; err != nil {
		return err
	}

	defs := content.Sections()
	sections := make([]Section, 0, len(defs))
	for _, def := range defs {
		sections = append(sections, Section{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Key:       string(def.Key),
			Label:     def.Label,
			Order:     def.Order,
			IsEnabled: true,
		})
	}
	if err := tx.Omit("Items").Create(&sections).Error; err != nil {
		return err
	}

	items := make([]Item, 0, 4)
	for _, section := range sections {
		payload := content.DefaultPayload(sectionKey(&section))
		if payload == nil {
			continue
		}
		data, err := content.Encode(payload)
		if err != nil {
			return fmt.Errorf("encode default %s payload: %w", section.Key, err)
		}
		items = append(items, Item{SectionID: section.ID, Order: 1, Data: datatypes.JSON(data)})
	}
	return tx.Create(&items).Error
}

// CreateProject creates a private draft with the full section set.
func (s *Service) CreateProject(ctx context.Context, id *identity.Identity, req CreateProjectRequest) (*Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}
	themeKey := strings.TrimSpace(req.ThemeKey)
	if themeKey == "" {
		themeKey = templates.DefaultKey
	}
	if err := s.checkTemplateChoice(id, themeKey); err != nil {
		return nil, err
	}

	var project Project
	_, err = withUniqueSlug(ctx, s.db, title, uuid.Nil, func(slug string) error {
		project = Project{
			ID:         uuid.New(),
			UserID:     id.ID,
			Title:      title,
			Slug:       slug,
			Visibility: VisibilityPrivate,
			ThemeKey:   themeKey,
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return seedProject(tx, &project)
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("portfolio created", "user_id", id.ID, "project_id", project.ID.String(), "slug", project.Slug)
	s.activity.Dispatch(id.ID, EventPortfolioCreated, project.ID, &services.Notification{
		Title:   "Portfolio created",
		Message: fmt.Sprintf("%q is ready to edit.", project.Title),
		Level:   services.LevelInfo,
	})
	return s.loadProject(ctx, project.ID)
}

// ListProjects returns the caller's projects, most recently updated first.
func (s *Service) ListProjects(ctx context.Context, id *identity.Identity) ([]Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	projects := []Project{}
	err := s.db.WithContext(ctx).Scopes(ForOwner(id.ID)).
		Order("updated_at DESC").
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// GetProject returns the project with its sections and items in order.
func (s *Service) GetProject(ctx context.Context, id *identity.Identity, projectID uuid.UUID) (*Project, error) {
	if _, err := s.accessProject(ctx, id, projectID); err != nil {
		return nil, err
	}
	return s.loadProject(ctx, projectID)
}

// UpdateProject changes any of title, slug, visibility and template.
// Ownership and the current template are checked before the fields.
func (s *Service) UpdateProject(ctx context.Context, id *identity.Identity, projectID uuid.UUID, req UpdateProjectRequest) (*Project, error) {
	project, err := s.accessProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	if req.empty() {
		return nil, badRequest("Provide at least one field to update")
	}

	updates := map[string]interface{}{}
	title := project.Title
	if req.Title != nil {
		if title, err = cleanTitle(*req.Title); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	visibilityChanged := false
	if req.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Visibility))
		if !validVisibility(v) {
			return nil, badRequest("Visibility must be public, unlisted or private")
		}
		updates["visibility"] = v
		visibilityChanged = v != project.Visibility
	}
	if req.ThemeKey != nil {
		key := strings.TrimSpace(*req.ThemeKey)
		if err := s.checkTemplateChoice(id, key); err != nil {
			return nil, err
		}
		updates["theme_key"] = key
	}
	slugBase := ""
	if req.Slug != nil {
		if slugBase = strings.TrimSpace(*req.Slug); slugBase == "" {
			return nil, badRequest("Slug is required")
		}
	}

	newSlug := project.Slug
	write := func(slug string) error {
		if slug != "" {
			updates["slug"] = slug
			newSlug = slug
		}
		updates["updated_at"] = s.now()
		return s.db.WithContext(ctx).Model(&Project{}).Where("id = ?", project.ID).Updates(updates).Error
	}
	if slugBase != "" {
		_, err = withUniqueSlug(ctx, s.db, slugBase, project.ID, write)
	} else {
		err = write("")
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, project.Slug, newSlug)
	event := EventPortfolioUpdated
	if visibilityChanged {
		event = EventVisibilityChanged
	}
	s.activity.Dispatch(id.ID, event, project.ID, &services.Notification{
		Title:   "Portfolio updated",
		Message: fmt.Sprintf("%q was updated.", title),
		Level:   services.LevelInfo,
	})
	return s.loadProject(ctx, project.ID)
}

// SetVisibility changes only the visibility of a project.
func (s *Service) SetVisibility(ctx context.Context, id *identity.Identity, projectID uuid.UUID, visibility string) (*Project, error) {
	return s.UpdateProject(ctx, id, projectID, UpdateProjectRequest{Visibility: &visibility})
}

// DeleteProject removes items, then sections, then the project. It is never
// gated by template tier.
func (s *Service) DeleteProject(ctx context.Context, id *identity.Identity, projectID uuid.UUID) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	project, err := s.ownedProject(ctx, id, projectID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uuid.UUID
		if err := tx.Model(&Section{}).Where("project_id = ?", project.ID).Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&Item{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Project{}, "id = ?", project.ID).Error
	})
	if err != nil {
		return err
	}

	s.removePhoto(ctx, project.ProfilePhotoKey)
	s.invalidate(ctx, project.Slug)
	slog.Info("portfolio deleted", "user_id", id.ID, "project_id", project.ID.String())
	s.activity.Dispatch(id.ID, EventPortfolioDeleted, project.ID, nil)
	return nil
}

// ToggleSection enables or disables a section.
func (s *Service) ToggleSection(ctx context.Context, id *identity.Identity, sectionID uuid.UUID, enabled bool) (*Section, error) {
	section, project, err := s.accessSection(ctx, id, sectionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Section{}).Where("id = ?", section.ID).
			Updates(map[string]interface{}{"is_enabled": enabled, "updated_at": now}).Error; err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return nil, err
	}
	section.IsEnabled = enabled
	section.UpdatedAt = now

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventSectionToggled, section.ID, nil)
	return section, nil
}

// ReorderSections sets section order to the position of each id in ordered.
func (s *Service) ReorderSections(ctx context.Context, id *identity.Identity, projectID uuid.UUID, ordered []uuid.UUID) (*Project, error) {
	project, err := s.accessProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&Section{}).Where("project_id = ?", project.ID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := checkPermutation(existing, ordered); err != nil {
			return err
		}
		now := s.now()
		if err := applyOrder(tx, &Section{}, ordered, now); err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventSectionsReordered, project.ID, nil)
	return s.loadProject(ctx, project.ID)
}
