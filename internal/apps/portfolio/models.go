package portfolio

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

func validVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityUnlisted || v == VisibilityPrivate
}

type Project struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                string     `gorm:"size:64;not null;index" json:"user_id"`
	Title                 string     `gorm:"size:255;not null" json:"title"`
	Slug                  string     `gorm:"size:80;not null;uniqueIndex:idx_portfolio_projects_slug" json:"slug"`
	Visibility            string     `gorm:"size:20;not null;default:'private'" json:"visibility"`
	IsPublished           bool       `gorm:"not null;default:false" json:"is_published"`
	PublishedAt           *time.Time `json:"published_at"`
	ThemeKey              string     `gorm:"size:40;not null;default:'classic'" json:"theme_key"`
	ProfilePhotoKey       *string    `gorm:"size:255" json:"profile_photo_key"`
	ProfilePhotoURL       *string    `gorm:"type:text" json:"profile_photo_url"`
	ProfilePhotoUpdatedAt *time.Time `json:"profile_photo_updated_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	Sections              []Section  `gorm:"foreignKey:ProjectID" json:"sections,omitempty"`
}

func (Project) TableName() string { return "portfolio_projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_portfolio_sections_project_key" json:"project_id"`
	Key       string    `gorm:"column:section_key;size:40;not null;uniqueIndex:idx_portfolio_sections_project_key" json:"key"`
	Label     string    `gorm:"size:60;not null" json:"label"`
	Order     int       `gorm:"column:sort_order;not null" json:"order"`
	IsEnabled bool      `gorm:"not null;default:true" json:"is_enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []Item    `gorm:"foreignKey:SectionID" json:"items"`
}

func (Section) TableName() string { return "portfolio_sections" }

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Item struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"section_id"`
	Order     int            `gorm:"column:sort_order;not null" json:"order"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Item) TableName() string { return "portfolio_items" }

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type CreateProjectRequest struct {
	Title    string `json:"title"`
	ThemeKey string `json:"theme_key"`
}

type UpdateProjectRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Visibility *string `json:"visibility"`
	ThemeKey   *string `json:"theme_key"`
}

func (r UpdateProjectRequest) empty() bool {
	return r.Title == nil && r.Slug == nil && r.Visibility == nil && r.ThemeKey == nil
}

type PublishRequest struct {
	IsPublished bool `json:"is_published"`
}

type VisibilityRequest struct {
	Visibility string `json:"visibility"`
}

type ToggleSectionRequest struct {
	IsEnabled *bool `json:"is_enabled"`
}

type ItemRequest struct {
	Data json.RawMessage `json:"data"`
}

type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type ProjectListResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

type ItemListResponse struct {
	Items []Item `json:"items"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}
