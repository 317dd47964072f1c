package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeEntitlements struct {
	paid map[string]bool
	err  error
}

func (f fakeEntitlements) IsPaid(_ context.Context, userID string) (bool, error) {
	return f.paid[userID], f.err
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newApp(ent Entitlements) *fiber.App {
	app := fiber.New()
	app.Use(SecurityHeaders())
	app.Get("/me", JWTProtected(&config.Config{JWTSecret: testSecret}), Identity(ent), func(c *fiber.Ctx) error {
		id := identity.FromCtx(c)
		return c.JSON(fiber.Map{"id": id.ID, "paid": id.IsPaid})
	})
	return app
}

func call(t *testing.T, app *fiber.App, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestIdentityMiddleware(t *testing.T) {
	ent := fakeEntitlements{paid: map[string]bool{"subscriber": true}}
	app := newApp(ent)

	t.Run("missing token", func(t *testing.T) {
		status, body := call(t, app, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", body["code"])
	})

	t.Run("wrong signature", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("other"))
		require.NoError(t, err)
		status, _ := call(t, app, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("missing subject", func(t *testing.T) {
		status, _ := call(t, app, signToken(t, jwt.MapClaims{"is_paid": true}))
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("paid claim", func(t *testing.T) {
		status, body := call(t, app, signToken(t, jwt.MapClaims{"sub": "user-1", "is_paid": true}))
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "user-1", body["id"])
		assert.Equal(t, true, body["paid"])
	})

	t.Run("subscription fallback", func(t *testing.T) {
		status, body := call(t, app, signToken(t, jwt.MapClaims{"sub": "subscriber"}))
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["paid"])
	})

	t.Run("free user", func(t *testing.T) {
		_, body := call(t, app, signToken(t, jwt.MapClaims{"sub": "free"}))
		assert.Equal(t, false, body["paid"])
	})
}

func TestIdentityMiddlewareLookupFailure(t *testing.T) {
	app := newApp(fakeEntitlements{err: errors.New("db down")})
	status, body := call(t, app, signToken(t, jwt.MapClaims{"sub": "user-1"}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["paid"])
}

func TestSecurityHeaders(t *testing.T) {
	app := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
