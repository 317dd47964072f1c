package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/templates"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// publicTemplate picks the template key a document is rendered with.
func (s *Service) publicTemplate(key string, entitled bool) string {
	tmpl, ok := s.catalog.Lookup(key)
	if !ok || (tmpl.Tier == templates.TierPro && !entitled) {
		return templates.DefaultKey
	}
	return tmpl.Key
}

func buildDocument(project *Project, templateKey string) (content.PublicDocument, error) {
	sections := make([]content.SectionContent, 0, len(project.Sections))
	for i := range project.Sections {
		section := &project.Sections[i]
		sc := content.SectionContent{
			Key:       sectionKey(section),
			Order:     section.Order,
			IsEnabled: section.IsEnabled,
		}
		for _, item := range section.Items {
			payload, err := content.Decode(sc.Key, item.Data)
			if err != nil {
				return content.PublicDocument{}, fmt.Errorf("item %s: %w", item.ID, err)
			}
			sc.Items = append(sc.Items, payload)
		}
		sections = append(sections, sc)
	}

	updatedAt := project.UpdatedAt
	meta := content.ProjectMeta{
		Title:       project.Title,
		Slug:        project.Slug,
		Visibility:  project.Visibility,
		TemplateKey: templateKey,
		PublishedAt: project.PublishedAt,
		UpdatedAt:   &updatedAt,
	}
	return content.ToPublicDocument(meta, sections), nil
}

// Preview renders the public document of a project in any publish state.
func (s *Service) Preview(ctx context.Context, id *identity.Identity, projectID uuid.UUID) (*content.PublicDocument, error) {
	if _, err := s.accessProject(ctx, id, projectID); err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	doc, err := buildDocument(project, s.publicTemplate(project.ThemeKey, true))
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// PublicDocument returns the encoded public document of a published, non
// private project. Documents are served from the cache when present.
func (s *Service) PublicDocument(ctx context.Context, slug string) ([]byte, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, notFound("Portfolio")
	}
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, slug)
		if err != nil {
			slog.Warn("public cache read failed", "slug", slug, "error", err)
		} else if ok {
			return data, nil
		}
	}

	var project Project
	err := s.db.WithContext(ctx).Scopes(Publicly).
		Preload("Sections", orderedSections).
		Preload("Sections.Items", orderedItems).
		First(&project, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Portfolio")
	}
	if err != nil {
		return nil, err
	}

	doc, err := buildDocument(&project, s.publicTemplate(project.ThemeKey, s.ownerEntitled(ctx, &project)))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, slug, data); err != nil {
			slog.Warn("public cache write failed", "slug", slug, "error", err)
		}
	}
	return data, nil
}

// ownerEntitled reports whether the owner may still show a pro template.
// Without an entitlement source nothing is downgraded.
func (s *Service) ownerEntitled(ctx context.Context, project *Project) bool {
	if s.entitlements == nil || !s.catalog.IsPro(project.ThemeKey) {
		return true
	}
	paid, err := s.entitlements.IsPaid(ctx, project.UserID)
	if err != nil {
		slog.Error("entitlement lookup failed", "user_id", project.UserID, "project_id", project.ID.String(), "error", err)
		return false
	}
	return paid
}

// InvalidateOwner drops the cached public documents of every project userID
// owns. It runs when an entitlement lapses so pro templates stop being served
// from cache.
func InvalidateOwner(ctx context.Context, db *gorm.DB, cache DocumentCache, userID string) error {
	if cache == nil || userID == "" {
		return nil
	}
	var slugs []string
	if err := db.WithContext(ctx).Model(&Project{}).Scopes(ForOwner(userID)).Pluck("slug", &slugs).Error; err != nil {
		return fmt.Errorf("list owner slugs: %w", err)
	}
	if len(slugs) == 0 {
		return nil
	}
	return cache.Invalidate(ctx, slugs...)
}
