package portfolio

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// sanitizeItem runs the section's rules over raw and returns the stored form.
func sanitizeItem(key content.SectionKey, raw json.RawMessage) (datatypes.JSON, error) {
	payload, err := content.Sanitize(key, raw)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			return nil, &Error{Kind: ErrBadRequest, Message: verr.Message, Err: verr}
		}
		return nil, err
	}
	data, err := content.Encode(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CreateItem adds an item to a multi section. For singleton sections the
// existing item is replaced in place instead.
func (s *Service) CreateItem(ctx context.Context, id *identity.Identity, sectionID uuid.UUID, raw json.RawMessage) (*Item, error) {
	section, project, err := s.accessSection(ctx, id, sectionID)
	if err != nil {
		return nil, err
	}
	data, err := sanitizeItem(sectionKey(section), raw)
	if err != nil {
		return nil, err
	}

	var item Item
	event := EventItemCreated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		if content.IsSingleton(sectionKey(section)) {
			err := tx.Where("section_id = ?", section.ID).Order("sort_order ASC").First(&item).Error
			if err == nil {
				item.Data = data
				item.UpdatedAt = now
				if err := tx.Model(&Item{}).Where("id = ?", item.ID).
					Updates(map[string]interface{}{"data": data, "updated_at": now}).Error; err != nil {
					return err
				}
				event = EventItemUpdated
				return touchProject(tx, project.ID, now)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		var maxOrder int
		if err := tx.Model(&Item{}).Where("section_id = ?", section.ID).
			Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		item = Item{SectionID: section.ID, Order: maxOrder + 1, Data: data}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, event, item.ID, nil)
	return &item, nil
}

func (s *Service) sectionItem(ctx context.Context, sectionID, itemID uuid.UUID) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).Where("id = ? AND section_id = ?", itemID, sectionID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces the data of an item that belongs to sectionID.
func (s *Service) UpdateItem(ctx context.Context, id *identity.Identity, sectionID, itemID uuid.UUID, raw json.RawMessage) (*Item, error) {
	section, project, err := s.accessSection(ctx, id, sectionID)
	if err != nil {
		return nil, err
	}
	item, err := s.sectionItem(ctx, section.ID, itemID)
	if err != nil {
		return nil, err
	}
	data, err := sanitizeItem(sectionKey(section), raw)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Item{}).Where("id = ?", item.ID).
			Updates(map[string]interface{}{"data": data, "updated_at": now}).Error; err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return nil, err
	}
	item.Data = data
	item.UpdatedAt = now

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventItemUpdated, item.ID, nil)
	return item, nil
}

// DeleteItem removes an item from a multi section and closes the gap in the
// remaining order.
func (s *Service) DeleteItem(ctx context.Context, id *identity.Identity, sectionID, itemID uuid.UUID) error {
	section, project, err := s.accessSection(ctx, id, sectionID)
	if err != nil {
		return err
	}
	item, err := s.sectionItem(ctx, section.ID, itemID)
	if err != nil {
		return err
	}
	if content.IsSingleton(sectionKey(section)) {
		return badRequest("The %s section keeps a single entry; update it instead", section.Label)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Item{}, "id = ?", item.ID).Error; err != nil {
			return err
		}
		var remaining []uuid.UUID
		if err := tx.Model(&Item{}).Scopes(orderedItems).Where("section_id = ?", section.ID).
			Pluck("id", &remaining).Error; err != nil {
			return err
		}
		now := s.now()
		if err := applyOrder(tx, &Item{}, remaining, now); err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventItemDeleted, item.ID, nil)
	return nil
}

// ReorderItems sets item order within a section to the position of each id.
func (s *Service) ReorderItems(ctx context.Context, id *identity.Identity, sectionID uuid.UUID, ordered []uuid.UUID) ([]Item, error) {
	section, project, err := s.accessSection(ctx, id, sectionID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&Item{}).Where("section_id = ?", section.ID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := checkPermutation(existing, ordered); err != nil {
			return err
		}
		now := s.now()
		if err := applyOrder(tx, &Item{}, ordered, now); err != nil {
			return err
		}
		if err := tx.Model(&Section{}).Where("id = ?", section.ID).Update("updated_at", now).Error; err != nil {
			return err
		}
		return touchProject(tx, project.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventItemsReordered, section.ID, nil)

	items := []Item{}
	err = s.db.WithContext(ctx).Scopes(orderedItems).Where("section_id = ?", section.ID).Find(&items).Error
	return items, err
}
