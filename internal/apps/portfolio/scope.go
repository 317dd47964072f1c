package portfolio

import (
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"gorm.io/gorm"
)

// ForOwner returns a GORM scope that filters projects by owner.
func ForOwner(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// Publicly returns a GORM scope matching projects a visitor may read.
func Publicly(db *gorm.DB) *gorm.DB {
	return db.Where("is_published = ? AND visibility IN ?", true, []string{VisibilityPublic, VisibilityUnlisted})
}

func orderedSections(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC")
}

func sectionKey(s *Section) content.SectionKey {
	return content.SectionKey(s.Key)
}
