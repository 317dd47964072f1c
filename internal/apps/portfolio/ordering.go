package portfolio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// checkPermutation accepts ordered only if it lists every id in existing
// exactly once and nothing else.
func checkPermutation(existing, ordered []uuid.UUID) error {
	if len(ordered) != len(existing) {
		return badRequest("Order must list all %d entries exactly once", len(existing))
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	seen := make(map[uuid.UUID]bool, len(ordered))
	for _, id := range ordered {
		if !known[id] {
			return badRequest("Unknown entry %s in order", id)
		}
		if seen[id] {
			return badRequest("Entry %s is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

// applyOrder writes 1-based positions. Callers run it inside a transaction.
func applyOrder(tx *gorm.DB, model any, ordered []uuid.UUID, now time.Time) error {
	for i, id := range ordered {
		err := tx.Model(model).Where("id = ?", id).
			Updates(map[string]interface{}{"sort_order": i + 1, "updated_at": now}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
