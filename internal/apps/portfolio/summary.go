package portfolio

import (
	"context"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"gorm.io/gorm"
)

// AppID identifies this app to the parent dashboard.
const AppID = "portfolio-creator"

const summaryVersion = 1

type VisibilityBreakdown struct {
	Public   int `json:"public"`
	Unlisted int `json:"unlisted"`
	Private  int `json:"private"`
}

// Summary is the dashboard aggregate over one user's projects.
type Summary struct {
	AppID               string              `json:"appId"`
	Version             int                 `json:"version"`
	TotalPortfolios     int                 `json:"totalPortfolios"`
	PublishedCount      int                 `json:"publishedCount"`
	LastUpdatedAt       time.Time           `json:"lastUpdatedAt"`
	VisibilityBreakdown VisibilityBreakdown `json:"visibilityBreakdown"`
	CompletionHint      int                 `json:"completionHint"`
}

func summarize(projects []Project, now time.Time) *Summary {
	s := &Summary{AppID: AppID, Version: summaryVersion, TotalPortfolios: len(projects)}
	var latest time.Time
	for _, p := range projects {
		if p.IsPublished {
			s.PublishedCount++
		}
		switch p.Visibility {
		case VisibilityPublic:
			s.VisibilityBreakdown.Public++
		case VisibilityUnlisted:
			s.VisibilityBreakdown.Unlisted++
		default:
			s.VisibilityBreakdown.Private++
		}
		stamp := p.UpdatedAt
		if stamp.IsZero() {
			stamp = p.CreatedAt
		}
		if stamp.After(latest) {
			latest = stamp
		}
	}
	if latest.IsZero() {
		latest = now
	}
	s.LastUpdatedAt = latest.UTC()
	if s.TotalPortfolios > 0 {
		s.CompletionHint = int(math.Round(float64(s.PublishedCount) / float64(s.TotalPortfolios) * 100))
	}
	return s
}

// Summarize scans a user's projects into a Summary.
func Summarize(ctx context.Context, db *gorm.DB, userID string, now time.Time) (*Summary, error) {
	var projects []Project
	err := db.WithContext(ctx).Scopes(ForOwner(userID)).
		Select("id", "visibility", "is_published", "created_at", "updated_at").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return summarize(projects, now), nil
}

// Summary returns the caller's dashboard aggregate.
func (s *Service) Summary(ctx context.Context, id *identity.Identity) (*Summary, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return Summarize(ctx, s.db, id.ID, s.now())
}
