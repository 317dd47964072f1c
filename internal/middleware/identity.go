package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/gofiber/fiber/v2"
)

// Entitlements answers whether a user holds an active paid plan.
type Entitlements interface {
	IsPaid(ctx context.Context, userID string) (bool, error)
}

// Identity resolves the caller from the verified JWT. A token without the
// is_paid claim falls back to the subscription record when entitlements is set.
func Identity(entitlements Entitlements) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, paid, err := identity.Claims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized", Code: "unauthorized",
			})
		}

		if !paid && entitlements != nil {
			paid, err = entitlements.IsPaid(c.UserContext(), sub)
			if err != nil {
				slog.Warn("entitlement lookup failed", "user_id", sub, "error", err)
				paid = false
			}
		}

		identity.Set(c, &identity.Identity{ID: sub, IsPaid: paid})
		return c.Next()
	}
}
