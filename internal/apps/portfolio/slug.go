package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	defaultSlug = "portfolio"

	// maxSlugAttempts bounds retries when a concurrent writer takes the
	// candidate between the check and the write.
	maxSlugAttempts = 5
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases text, joins alphanumeric runs with single dashes and
// caps the result at content.MaxSlug. Empty results become "portfolio".
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > content.MaxSlug {
		s = strings.TrimRight(s[:content.MaxSlug], "-")
	}
	if s == "" {
		return defaultSlug
	}
	return s
}

func withSuffix(root string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(root)+len(suffix) > content.MaxSlug {
		root = strings.TrimRight(root[:content.MaxSlug-len(suffix)], "-")
	}
	return root + suffix
}

// allocateSlug returns the first of root, root-2, root-3, ... that no project
// other than exclude holds. Each candidate is checked on its own because a
// suffixed candidate of a long root is cut and no longer shares its prefix.
func allocateSlug(ctx context.Context, db *gorm.DB, base string, exclude uuid.UUID) (string, error) {
	root := Slugify(base)
	candidate := root
	for n := 2; ; n++ {
		taken, err := slugTaken(ctx, db, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = withSuffix(root, n)
	}
}

func slugTaken(ctx context.Context, db *gorm.DB, slug string, exclude uuid.UUID) (bool, error) {
	q := db.WithContext(ctx).Model(&Project{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

// withUniqueSlug allocates a slug and hands it to write. The storage unique
// index is authoritative: if write loses a race on it, allocation runs again
// and picks the next free suffix.
func withUniqueSlug(ctx context.Context, db *gorm.DB, base string, exclude uuid.UUID, write func(slug string) error) (string, error) {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug, err := allocateSlug(ctx, db, base, exclude)
		if err != nil {
			return "", err
		}
		err = write(slug)
		if err == nil {
			return slug, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		slog.Warn("slug collision, retrying", "slug", slug, "attempt", attempt)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
