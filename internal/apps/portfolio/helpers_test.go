package portfolio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/services"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/templates"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	alice     = &identity.Identity{ID: "alice"}
	alicePaid = &identity.Identity{ID: "alice", IsPaid: true}
	bob       = &identity.Identity{ID: "bob"}
)

type recordedEvent struct {
	UserID   string
	Event    string
	EntityID uuid.UUID
	Note     *services.Notification
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingSink) Dispatch(userID, event string, entityID uuid.UUID, note *services.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{UserID: userID, Event: event, EntityID: entityID, Note: note})
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func (r *recordingSink) last() recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type memoryCache struct {
	mu          sync.Mutex
	docs        map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{docs: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, slug string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[slug]
	return doc, ok, nil
}

func (m *memoryCache) Set(_ context.Context, slug string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[slug] = doc
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, slugs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slug := range slugs {
		delete(m.docs, slug)
		m.invalidated = append(m.invalidated, slug)
	}
	return nil
}

type memoryPhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	failPut bool
}

func newMemoryPhotos() *memoryPhotos {
	return &memoryPhotos{objects: map[string][]byte{}}
}

func (m *memoryPhotos) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryPhotos) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.removed = append(m.removed, key)
	return nil
}

type staticEntitlements map[string]bool

func (s staticEntitlements) IsPaid(_ context.Context, userID string) (bool, error) {
	return s[userID], nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Project{}, &Section{}, &Item{}))
	return db
}

func setupService(t *testing.T) (*Service, *recordingSink, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	sink := &recordingSink{}
	svc := NewService(db, testCatalog(), sink)
	return svc, sink, db
}

func testCatalog() *templates.Catalog {
	return templates.NewCatalog(templates.Defaults())
}

func mustCreate(t *testing.T, svc *Service, id *identity.Identity, title string) *Project {
	t.Helper()
	p, err := svc.CreateProject(context.Background(), id, CreateProjectRequest{Title: title})
	require.NoError(t, err)
	return p
}

func sectionOf(t *testing.T, p *Project, key content.SectionKey) *Section {
	t.Helper()
	for i := range p.Sections {
		if p.Sections[i].Key == string(key) {
			return &p.Sections[i]
		}
	}
	t.Fatalf("section %s missing", key)
	return nil
}

func sectionIDs(p *Project) []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Sections))
	for i, s := range p.Sections {
		ids[i] = s.ID
	}
	return ids
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
}

func raw(s string) []byte {
	return []byte(strings.TrimSpace(s))
}
