package portfolio

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/apps/portfolio/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, data []byte) content.PublicDocument {
	t.Helper()
	var doc content.PublicDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestPublicDocumentVisibility(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, alice, "Alice")

	_, err := svc.PublicDocument(ctx, p.Slug)
	requireKind(t, err, ErrNotFound)

	_, err = svc.SetPublish(ctx, alice, p.ID, true)
	require.NoError(t, err)
	_, err = svc.PublicDocument(ctx, p.Slug)
	requireKind(t, err, ErrNotFound)

	for _, v := range []string{VisibilityPublic, VisibilityUnlisted} {
		_, err = svc.SetVisibility(ctx, alice, p.ID, v)
		require.NoError(t, err)
		data, err := svc.PublicDocument(ctx, "  "+p.Slug+" ")
		require.NoError(t, err, v)
		doc := decodeDoc(t, data)
		assert.Equal(t, p.Slug, doc.Meta.Slug)
		assert.Equal(t, v, doc.Meta.Visibility)
		require.NotNil(t, doc.Meta.PublishedAt)
	}

	_, err = svc.SetPublish(ctx, alice, p.ID, false)
	require.NoError(t, err)
	_, err = svc.PublicDocument(ctx, p.Slug)
	requireKind(t, err, ErrNotFound)

	_, err = svc.PublicDocument(ctx, "")
	requireKind(t, err, ErrNotFound)
}

func TestPublicDocumentContent(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, alice, "Alice")

	profile := sectionOf(t, p, content.SectionProfile)
	_, err := svc.UpdateItem(ctx, alice, profile.ID, profile.Items[0].ID, raw(`{"fullName":"Alice Liddell","headline":"Explorer","email":"alice@example.com"}`))
	require.NoError(t, err)
	about := sectionOf(t, p, content.SectionAbout)
	_, err = svc.CreateItem(ctx, alice, about.ID, raw(`{"text":"Curious."}`))
	require.NoError(t, err)
	skills := sectionOf(t, p, content.SectionSkills)
	_, err = svc.ToggleSection(ctx, alice, skills.ID, false)
	require.NoError(t, err)

	_, err = svc.SetVisibility(ctx, alice, p.ID, VisibilityPublic)
	require.NoError(t, err)
	_, err = svc.SetPublish(ctx, alice, p.ID, true)
	require.NoError(t, err)

	data, err := svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	doc := decodeDoc(t, data)

	assert.Equal(t, content.PublicVersion, doc.Version)
	assert.Equal(t, "classic", doc.TemplateKey)
	assert.Equal(t, "Alice Liddell", doc.Owner.FullName)
	assert.Equal(t, "Explorer", doc.Owner.Headline)
	assert.Equal(t, "alice@example.com", doc.Contact.Email)
	assert.Equal(t, "Curious.", doc.Sections.About)
	assert.NotContains(t, doc.VisibleSections, content.SectionSkills)
	assert.NotContains(t, doc.VisibleSections, content.SectionProfile)
	assert.Contains(t, doc.VisibleSections, content.SectionAbout)
	assert.NotNil(t, doc.Sections.Experience)
}

func TestPublicDocumentCache(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	cache := newMemoryCache()
	svc.WithCache(cache)

	p := mustCreate(t, svc, alice, "Alice")
	_, err := svc.SetVisibility(ctx, alice, p.ID, VisibilityPublic)
	require.NoError(t, err)
	_, err = svc.SetPublish(ctx, alice, p.ID, true)
	require.NoError(t, err)

	data, err := svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	cached, ok, _ := cache.Get(ctx, p.Slug)
	require.True(t, ok)
	assert.Equal(t, data, cached)

	// A hit is served without touching the database.
	require.NoError(t, cache.Set(ctx, p.Slug, []byte(`{"cached":true}`)))
	hit, err := svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cached":true}`, string(hit))

	slug := "alice-renamed"
	_, err = svc.UpdateProject(ctx, alice, p.ID, UpdateProjectRequest{Slug: &slug})
	require.NoError(t, err)
	_, ok, _ = cache.Get(ctx, p.Slug)
	assert.False(t, ok)
	assert.Contains(t, cache.invalidated, "alice-renamed")

	_, err = svc.PublicDocument(ctx, p.Slug)
	requireKind(t, err, ErrNotFound)
	_, err = svc.PublicDocument(ctx, "alice-renamed")
	require.NoError(t, err)
}

func TestPublicDocumentFallsBackWithoutEntitlement(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	entitled := staticEntitlements{"alice": true}
	svc.WithEntitlements(entitled)

	p, err := svc.CreateProject(ctx, alicePaid, CreateProjectRequest{Title: "Pro", ThemeKey: "story"})
	require.NoError(t, err)
	_, err = svc.SetVisibility(ctx, alicePaid, p.ID, VisibilityPublic)
	require.NoError(t, err)
	_, err = svc.SetPublish(ctx, alicePaid, p.ID, true)
	require.NoError(t, err)

	data, err := svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "story", decodeDoc(t, data).TemplateKey)

	entitled["alice"] = false
	data, err = svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "classic", decodeDoc(t, data).TemplateKey)
}

func TestInvalidateOwnerAfterLapse(t *testing.T) {
	svc, _, db := setupService(t)
	ctx := context.Background()
	cache := newMemoryCache()
	svc.WithCache(cache)
	entitled := staticEntitlements{"alice": true}
	svc.WithEntitlements(entitled)

	p, err := svc.CreateProject(ctx, alicePaid, CreateProjectRequest{Title: "Pro", ThemeKey: "story"})
	require.NoError(t, err)
	_, err = svc.SetVisibility(ctx, alicePaid, p.ID, VisibilityPublic)
	require.NoError(t, err)
	_, err = svc.SetPublish(ctx, alicePaid, p.ID, true)
	require.NoError(t, err)
	theirs := mustCreate(t, svc, bob, "Bob")

	data, err := svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "story", decodeDoc(t, data).TemplateKey)

	// Until the cache entry goes, the old rendering is served.
	entitled["alice"] = false
	data, err = svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "story", decodeDoc(t, data).TemplateKey)

	cache.invalidated = nil
	require.NoError(t, InvalidateOwner(ctx, db, cache, "alice"))
	assert.Contains(t, cache.invalidated, p.Slug)
	assert.NotContains(t, cache.invalidated, theirs.Slug)

	data, err = svc.PublicDocument(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "classic", decodeDoc(t, data).TemplateKey)

	assert.NoError(t, InvalidateOwner(ctx, db, nil, "alice"))
	assert.NoError(t, InvalidateOwner(ctx, db, cache, "nobody"))
}

func TestPreview(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, alice, "Alice")

	doc, err := svc.Preview(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Slug, doc.Meta.Slug)
	assert.Nil(t, doc.Meta.PublishedAt)
	assert.Equal(t, "private", doc.Meta.Visibility)

	_, err = svc.Preview(ctx, bob, p.ID)
	requireKind(t, err, ErrNotFound)
}
