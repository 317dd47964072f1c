package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/storage"
	"github.com/google/uuid"
)

// PhotoStore keeps processed profile photos.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// MaxPhotoBytes caps the size of an uploaded profile photo.
const MaxPhotoBytes = 5 << 20

// SetProfilePhoto crops and resizes an uploaded image, stores it and points
// the project at it. The previous photo is removed afterwards.
func (s *Service) SetProfilePhoto(ctx context.Context, id *identity.Identity, projectID uuid.UUID, upload []byte) (*Project, error) {
	project, err := s.accessProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, badRequest("Photo uploads are disabled")
	}
	if len(upload) == 0 {
		return nil, badRequest("Photo is required")
	}
	if len(upload) > MaxPhotoBytes {
		return nil, badRequest("Photo must be %d MB or smaller", MaxPhotoBytes>>20)
	}

	processed, err := storage.ProcessProfilePhoto(bytes.NewReader(upload))
	if err != nil {
		return nil, &Error{Kind: ErrBadRequest, Message: "Photo could not be read as an image", Err: err}
	}

	now := s.now()
	key := fmt.Sprintf("portfolios/%s/profile-%d.jpg", project.ID, now.UnixNano())
	url, err := s.photos.Put(ctx, key, processed, storage.PhotoContentType)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&Project{}).Where("id = ?", project.ID).Updates(map[string]interface{}{
		"profile_photo_key":        key,
		"profile_photo_url":        url,
		"profile_photo_updated_at": now,
		"updated_at":               now,
	}).Error
	if err != nil {
		s.removePhoto(ctx, &key)
		return nil, err
	}

	s.removePhoto(ctx, project.ProfilePhotoKey)
	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventPhotoUpdated, project.ID, nil)
	return s.loadProject(ctx, project.ID)
}

// ClearProfilePhoto unsets the photo and removes the stored object.
func (s *Service) ClearProfilePhoto(ctx context.Context, id *identity.Identity, projectID uuid.UUID) (*Project, error) {
	project, err := s.accessProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(&Project{}).Where("id = ?", project.ID).Updates(map[string]interface{}{
		"profile_photo_key":        nil,
		"profile_photo_url":        nil,
		"profile_photo_updated_at": nil,
		"updated_at":               now,
	}).Error
	if err != nil {
		return nil, err
	}

	s.removePhoto(ctx, project.ProfilePhotoKey)
	s.invalidate(ctx, project.Slug)
	s.activity.Dispatch(id.ID, EventPhotoUpdated, project.ID, nil)
	return s.loadProject(ctx, project.ID)
}

func (s *Service) removePhoto(ctx context.Context, key *string) {
	if s.photos == nil || key == nil || *key == "" {
		return
	}
	if err := s.photos.Remove(ctx, *key); err != nil {
		slog.Warn("profile photo cleanup failed", "key", *key, "error", err)
	}
}
