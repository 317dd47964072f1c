package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// SubscriptionEvents applies a RevenueCat event to stored subscriptions.
type SubscriptionEvents interface {
	HandleWebhookEvent(ctx context.Context, event *dto.RevenueCatEvent) error
}

type WebhookHandler struct {
	subscriptions SubscriptionEvents
	expectedAuth  string
}

func NewWebhookHandler(subscriptions SubscriptionEvents, expectedAuth string) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions, expectedAuth: expectedAuth}
}

// HandleRevenueCat checks the shared Authorization value and records the event.
func (h *WebhookHandler) HandleRevenueCat(c *fiber.Ctx) error {
	if h.expectedAuth == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured", Code: "not_found",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.expectedAuth)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized", Code: "unauthorized",
		})
	}

	var webhook dto.RevenueCatWebhook
	if err := c.BodyParser(&webhook); err != nil || webhook.Event.AppUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload", Code: "bad_request",
		})
	}

	if err := h.subscriptions.HandleWebhookEvent(c.UserContext(), &webhook.Event); err != nil {
		slog.Error("webhook processing failed", "event_type", webhook.Event.Type, "user_id", webhook.Event.AppUserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", webhook.Event.Type, "user_id", webhook.Event.AppUserID)
	return c.JSON(dto.WebhookAck{Received: true})
}
