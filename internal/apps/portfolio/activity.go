package portfolio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventPortfolioCreated     = "portfolio.created"
	EventPortfolioUpdated     = "portfolio.updated"
	EventVisibilityChanged    = "visibility.changed"
	EventPortfolioDeleted     = "portfolio.deleted"
	EventPortfolioPublished   = "portfolio.published"
	EventPortfolioUnpublished = "portfolio.unpublished"
	EventSectionToggled       = "section.toggled"
	EventSectionsReordered    = "sections.reordered"
	EventItemCreated          = "item.created"
	EventItemUpdated          = "item.updated"
	EventItemDeleted          = "item.deleted"
	EventItemsReordered       = "items.reordered"
	EventPhotoUpdated         = "photo.updated"
)

// ActivityNotifier delivers one activity event to the parent app.
type ActivityNotifier interface {
	Notify(ctx context.Context, event services.ActivityEvent) error
}

// ActivityDispatcher sends activity in the background. At most maxInFlight
// deliveries run at once; beyond that events are dropped, never queued.
type ActivityDispatcher struct {
	db       *gorm.DB
	notifier ActivityNotifier
	timeout  time.Duration
	slots    chan struct{}
	wg       sync.WaitGroup
}

func NewActivityDispatcher(db *gorm.DB, notifier ActivityNotifier, timeout time.Duration, maxInFlight int) *ActivityDispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	// A notifier that reports itself disabled is dropped so Dispatch skips the
	// summary query and the slot.
	if n, ok := notifier.(interface{ Enabled() bool }); ok && !n.Enabled() {
		notifier = nil
	}
	return &ActivityDispatcher{
		db:       db,
		notifier: notifier,
		timeout:  timeout,
		slots:    make(chan struct{}, maxInFlight),
	}
}

func (d *ActivityDispatcher) Dispatch(userID, event string, entityID uuid.UUID, note *services.Notification) {
	if d.notifier == nil {
		return
	}
	select {
	case d.slots <- struct{}{}:
	default:
		slog.Warn("activity dropped: dispatcher saturated", "user_id", userID, "event", event)
		return
	}

	occurredAt := time.Now().UTC()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.slots }()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("activity dispatch panicked", "user_id", userID, "event", event, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		summary, err := Summarize(ctx, d.db, userID, occurredAt)
		if err != nil {
			slog.Error("activity summary failed", "user_id", userID, "event", event, "error", err)
			return
		}
		ev := services.ActivityEvent{
			UserID:       userID,
			AppID:        AppID,
			Event:        event,
			OccurredAt:   occurredAt,
			Summary:      summary,
			Notification: note,
		}
		if entityID != uuid.Nil {
			ev.EntityID = entityID.String()
		}
		if err := d.notifier.Notify(ctx, ev); err != nil {
			slog.Error("activity delivery failed", "user_id", userID, "event", event, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *ActivityDispatcher) Wait() {
	d.wg.Wait()
}
