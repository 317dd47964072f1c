package portfolio

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp mounts the plugin the way routes.Setup does, with the identity
// taken from test headers instead of a JWT.
func newTestApp(t *testing.T, deps Deps) *fiber.App {
	t.Helper()
	db := setupDB(t)
	if deps.Catalog == nil {
		deps.Catalog = testCatalog()
	}
	plugin := New(deps)

	app := fiber.New()
	api := app.Group("/api")
	protected := api.Group("/p", func(c *fiber.Ctx) error {
		if user := c.Get("X-Test-User"); user != "" {
			identity.Set(c, &identity.Identity{ID: user, IsPaid: c.Get("X-Test-Paid") == "true"})
		}
		return c.Next()
	})
	plugin.RegisterRoutes(protected, db, &config.Config{})
	plugin.RegisterPublicRoutes(api.Group("/public"), db, &config.Config{})
	return app
}

type apiCall struct {
	method string
	path   string
	user   string
	paid   bool
	body   any
}

func do(t *testing.T, app *fiber.App, call apiCall, out any) int {
	t.Helper()
	var reader io.Reader
	if call.body != nil {
		b, err := json.Marshal(call.body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(call.method, call.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if call.user != "" {
		req.Header.Set("X-Test-User", call.user)
	}
	if call.paid {
		req.Header.Set("X-Test-Paid", "true")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHandlersProjectFlow(t *testing.T) {
	app := newTestApp(t, Deps{})

	var created Project
	status := do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", body: fiber.Map{"title": "Jane's Work"}}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "jane-s-work", created.Slug)
	require.Len(t, created.Sections, 9)

	var list ProjectListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios", user: "alice"}, &list))
	assert.Equal(t, 1, list.Total)

	var summary Summary
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios/summary", user: "alice"}, &summary))
	assert.Equal(t, 1, summary.TotalPortfolios)

	base := "/api/p/portfolios/" + created.ID.String()

	var updated Project
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "PUT", path: base + "/visibility", user: "alice", body: fiber.Map{"visibility": "public"}}, &updated))
	assert.Equal(t, VisibilityPublic, updated.Visibility)

	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "POST", path: base + "/publish", user: "alice", body: fiber.Map{"is_published": true}}, &updated))
	assert.True(t, updated.IsPublished)

	var doc map[string]any
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "GET", path: "/api/public/portfolios/" + created.Slug}, &doc))
	assert.Equal(t, "1.0", doc["version"])

	var preview map[string]any
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "GET", path: base + "/preview", user: "alice"}, &preview))
	assert.Equal(t, "classic", preview["templateKey"])

	var deleted DeleteResponse
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "DELETE", path: base, user: "alice"}, &deleted))
	assert.Equal(t, fiber.StatusNotFound, do(t, app, apiCall{method: "GET", path: "/api/public/portfolios/" + created.Slug}, nil))
}

func TestHandlersErrorMapping(t *testing.T) {
	app := newTestApp(t, Deps{})

	var errResp dto.ErrorResponse
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios"}, &errResp))
	assert.Equal(t, "unauthorized", errResp.Code)

	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios/not-a-uuid", user: "alice"}, nil))

	errResp = dto.ErrorResponse{}
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", body: fiber.Map{"title": ""}}, &errResp))
	assert.Equal(t, "Title is required", errResp.Message)

	errResp = dto.ErrorResponse{}
	assert.Equal(t, fiber.StatusPaymentRequired, do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", body: fiber.Map{"title": "Pro", "theme_key": "minimal"}}, &errResp))
	assert.Equal(t, "payment_required", errResp.Code)

	var created Project
	require.Equal(t, fiber.StatusCreated, do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", paid: true, body: fiber.Map{"title": "Pro", "theme_key": "minimal"}}, &created))

	assert.Equal(t, fiber.StatusNotFound, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios/" + created.ID.String(), user: "bob"}, nil))
	assert.Equal(t, fiber.StatusPaymentRequired, do(t, app, apiCall{method: "GET", path: "/api/p/portfolios/" + created.ID.String(), user: "alice"}, nil))
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "PATCH", path: "/api/p/portfolios/" + created.ID.String(), user: "alice", paid: true, body: fiber.Map{}}, nil))
}

func TestHandlersSectionsAndItems(t *testing.T) {
	app := newTestApp(t, Deps{})

	var created Project
	require.Equal(t, fiber.StatusCreated, do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", body: fiber.Map{"title": "Alice"}}, &created))
	skills := sectionOf(t, &created, "skills")
	exp := sectionOf(t, &created, "experience")

	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "PATCH", path: "/api/p/sections/" + skills.ID.String(), user: "alice", body: fiber.Map{}}, nil))

	var section Section
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "PATCH", path: "/api/p/sections/" + skills.ID.String(), user: "alice", body: fiber.Map{"is_enabled": false}}, &section))
	assert.False(t, section.IsEnabled)

	items := "/api/p/sections/" + exp.ID.String() + "/items"
	var first, second Item
	require.Equal(t, fiber.StatusCreated, do(t, app, apiCall{method: "POST", path: items, user: "alice", body: fiber.Map{"data": fiber.Map{"role": "Dev", "company": "Acme"}}}, &first))
	require.Equal(t, fiber.StatusCreated, do(t, app, apiCall{method: "POST", path: items, user: "alice", body: fiber.Map{"data": fiber.Map{"role": "Lead", "company": "Acme"}}}, &second))
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "POST", path: items, user: "alice", body: fiber.Map{"data": fiber.Map{"role": ""}}}, nil))

	var reordered ItemListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "PUT", path: items + "/order", user: "alice", body: fiber.Map{"ids": []string{second.ID.String(), first.ID.String()}}}, &reordered))
	require.Len(t, reordered.Items, 2)
	assert.Equal(t, second.ID, reordered.Items[0].ID)

	var edited Item
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "PUT", path: items + "/" + first.ID.String(), user: "alice", body: fiber.Map{"data": fiber.Map{"role": "Senior Dev", "company": "Acme"}}}, &edited))
	assert.Contains(t, string(edited.Data), "Senior Dev")

	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "DELETE", path: items + "/" + first.ID.String(), user: "alice"}, nil))

	order := make([]string, 0, len(created.Sections))
	for i := len(created.Sections) - 1; i >= 0; i-- {
		order = append(order, created.Sections[i].ID.String())
	}
	var project Project
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "PUT", path: "/api/p/portfolios/" + created.ID.String() + "/sections/order", user: "alice", body: fiber.Map{"ids": order}}, &project))
	assert.Equal(t, "contact", project.Sections[0].Key)
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "PUT", path: "/api/p/portfolios/" + created.ID.String() + "/sections/order", user: "alice", body: fiber.Map{"ids": order[:3]}}, nil))
}

func TestHandlersPhotoUpload(t *testing.T) {
	photos := newMemoryPhotos()
	app := newTestApp(t, Deps{Photos: photos})

	var created Project
	require.Equal(t, fiber.StatusCreated, do(t, app, apiCall{method: "POST", path: "/api/p/portfolios", user: "alice", body: fiber.Map{"title": "Alice"}}, &created))
	path := "/api/p/portfolios/" + created.ID.String() + "/photo"

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t, 120, 80))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Test-User", "alice")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var withPhoto Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&withPhoto))
	require.NotNil(t, withPhoto.ProfilePhotoURL)
	assert.Len(t, photos.objects, 1)

	assert.Equal(t, fiber.StatusBadRequest, do(t, app, apiCall{method: "PUT", path: path, user: "alice"}, nil))

	var cleared Project
	require.Equal(t, fiber.StatusOK, do(t, app, apiCall{method: "DELETE", path: path, user: "alice"}, &cleared))
	assert.Nil(t, cleared.ProfilePhotoURL)
	assert.Empty(t, photos.objects)
}
