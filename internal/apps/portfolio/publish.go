package portfolio

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/google/uuid"
)

// SetPublish moves a project between draft and published. publishedAt is set
// when a draft becomes published and cleared when it is unpublished;
// publishing an already published project keeps its original timestamp.
func (s *Service) SetPublish(ctx context.Context, id *identity.Identity, projectID uuid.UUID, publish bool) (*Project, error) {
	project, err := s.accessProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{"is_published": publish, "updated_at": now}
	switch {
	case publish && !project.IsPublished:
		updates["published_at"] = now
	case !publish:
		updates["published_at"] = nil
	}
	if err := s.db.WithContext(ctx).Model(&Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx, project.Slug)
	event, note := EventPortfolioUnpublished, &services.Notification{
		Title:   "Portfolio unpublished",
		Message: fmt.Sprintf("%q is no longer public.", project.Title),
		Level:   services.LevelInfo,
	}
	if publish {
		event, note = EventPortfolioPublished, &services.Notification{
			Title:   "Portfolio published",
			Message: fmt.Sprintf("%q is live at /%s.", project.Title, project.Slug),
			Level:   services.LevelSuccess,
		}
	}
	s.activity.Dispatch(id.ID, event, project.ID, note)
	return s.loadProject(ctx, project.ID)
}
