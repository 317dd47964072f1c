package middleware

import (
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/config"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected verifies the HS256 bearer token issued by the parent app.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
				Code:    "unauthorized",
			})
		},
	})
}
