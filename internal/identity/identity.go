// Package identity carries the authenticated caller through a request.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const localsKey = "identity"

// Identity is the authenticated caller as the portfolio service sees it.
type Identity struct {
	ID     string
	IsPaid bool
}

// FromCtx returns the identity resolved for this request, or nil.
func FromCtx(c *fiber.Ctx) *Identity {
	if id, ok := c.Locals(localsKey).(*Identity); ok {
		return id
	}
	return nil
}

// Set stores the resolved identity on the request.
func Set(c *fiber.Ctx, id *Identity) {
	c.Locals(localsKey, id)
}

// Claims extracts the subject and the is_paid claim from the JWT the auth
// middleware left in context.
func Claims(c *fiber.Ctx) (subject string, paid bool, err error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", false, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false, errors.New("missing sub claim")
	}

	paid, _ = claims["is_paid"].(bool)
	return sub, paid, nil
}
