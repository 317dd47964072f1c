package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingNotifier struct {
	mu      sync.Mutex
	events  []services.ActivityEvent
	release chan struct{}
	err     error
}

func (n *capturingNotifier) Notify(ctx context.Context, event services.ActivityEvent) error {
	if n.release != nil {
		select {
		case <-n.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *capturingNotifier) captured() []services.ActivityEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.ActivityEvent(nil), n.events...)
}

func TestActivityDispatcherDelivers(t *testing.T) {
	db := setupDB(t)
	notifier := &capturingNotifier{}
	dispatcher := NewActivityDispatcher(db, notifier, time.Second, 4)
	svc := NewService(db, testCatalog(), dispatcher)

	p := mustCreate(t, svc, alice, "Alice")
	dispatcher.Wait()

	events := notifier.captured()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "alice", ev.UserID)
	assert.Equal(t, AppID, ev.AppID)
	assert.Equal(t, EventPortfolioCreated, ev.Event)
	assert.Equal(t, p.ID.String(), ev.EntityID)
	require.NotNil(t, ev.Notification)

	summary, ok := ev.Summary.(*Summary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.TotalPortfolios)
	assert.Equal(t, 0, summary.PublishedCount)
}

func TestActivityDispatcherDropsWhenSaturated(t *testing.T) {
	db := setupDB(t)
	notifier := &capturingNotifier{release: make(chan struct{})}
	dispatcher := NewActivityDispatcher(db, notifier, 5*time.Second, 1)

	dispatcher.Dispatch("alice", EventPortfolioUpdated, uuid.New(), nil)
	dispatcher.Dispatch("alice", EventPortfolioUpdated, uuid.New(), nil)

	close(notifier.release)
	dispatcher.Wait()
	assert.Len(t, notifier.captured(), 1)
}

func TestActivityDispatcherSwallowsFailures(t *testing.T) {
	db := setupDB(t)
	notifier := &capturingNotifier{err: errors.New("parent app down")}
	dispatcher := NewActivityDispatcher(db, notifier, time.Second, 2)
	svc := NewService(db, testCatalog(), dispatcher)

	p := mustCreate(t, svc, alice, "Alice")
	_, err := svc.SetPublish(context.Background(), alice, p.ID, true)
	require.NoError(t, err)
	dispatcher.Wait()

	assert.Len(t, notifier.captured(), 2)
}

func TestActivityDispatcherWithoutNotifier(t *testing.T) {
	dispatcher := NewActivityDispatcher(setupDB(t), nil, 0, 0)
	dispatcher.Dispatch("alice", EventItemCreated, uuid.Nil, nil)
	dispatcher.Wait()
}

type switchedNotifier struct {
	capturingNotifier
	enabled bool
}

func (n *switchedNotifier) Enabled() bool { return n.enabled }

func TestActivityDispatcherSkipsDisabledNotifier(t *testing.T) {
	db := setupDB(t)

	webhook := services.NewActivityWebhook("", "", time.Second)
	dispatcher := NewActivityDispatcher(db, webhook, time.Second, 1)
	dispatcher.Dispatch("alice", EventItemCreated, uuid.Nil, nil)
	assert.Empty(t, dispatcher.slots)
	dispatcher.Wait()

	off := &switchedNotifier{}
	dispatcher = NewActivityDispatcher(db, off, time.Second, 1)
	dispatcher.Dispatch("alice", EventItemCreated, uuid.Nil, nil)
	dispatcher.Wait()
	assert.Empty(t, off.captured())

	on := &switchedNotifier{enabled: true}
	dispatcher = NewActivityDispatcher(db, on, time.Second, 1)
	dispatcher.Dispatch("alice", EventItemCreated, uuid.Nil, nil)
	dispatcher.Wait()
	assert.Len(t, on.captured(), 1)
}
