package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/models"
	"gorm.io/gorm"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

type SubscriptionService struct {
	db      *gorm.DB
	now     func() time.Time
	onLapse func(ctx context.Context, userID string)
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db, now: time.Now}
}

// OnLapse registers fn to run after a cancellation or expiration is stored.
func (s *SubscriptionService) OnLapse(fn func(ctx context.Context, userID string)) {
	s.onLapse = fn
}

// IsPaid reports whether userID holds an active subscription whose current
// period has not ended.
func (s *SubscriptionService) IsPaid(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND current_period_end > ?", userID, StatusActive, s.now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup subscription: %w", err)
	}
	return count > 0, nil
}

func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *dto.RevenueCatEvent) error {
	switch event.Type {
	case "INITIAL_PURCHASE":
		return s.handleInitialPurchase(ctx, event)
	case "RENEWAL":
		return s.handleRenewal(ctx, event)
	case "CANCELLATION":
		return s.setStatus(ctx, event, StatusCancelled)
	case "EXPIRATION":
		return s.setStatus(ctx, event, StatusExpired)
	default:
		return nil
	}
}

func (s *SubscriptionService) handleInitialPurchase(ctx context.Context, event *dto.RevenueCatEvent) error {
	sub := models.Subscription{
		UserID:             subscriber(event),
		RevenueCatID:       event.AppUserID,
		ProductID:          event.ProductID,
		Status:             StatusActive,
		CurrentPeriodStart: msToTime(event.PurchasedAtMs),
		CurrentPeriodEnd:   msToTime(event.ExpirationAtMs),
	}
	return s.db.WithContext(ctx).Create(&sub).Error
}

func (s *SubscriptionService) handleRenewal(ctx context.Context, event *dto.RevenueCatEvent) error {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("revenuecat_id = ?", event.AppUserID).
		Order("current_period_end DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Renewal for a purchase we never saw: record it as a new subscription.
		return s.handleInitialPurchase(ctx, event)
	}
	if err != nil {
		return fmt.Errorf("subscription not found for renewal: %w", err)
	}

	return s.db.WithContext(ctx).Model(&sub).Updates(map[string]interface{}{
		"status":               StatusActive,
		"product_id":           event.ProductID,
		"current_period_end":   msToTime(event.ExpirationAtMs),
		"current_period_start": msToTime(event.PurchasedAtMs),
	}).Error
}

func (s *SubscriptionService) setStatus(ctx context.Context, event *dto.RevenueCatEvent, status string) error {
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("revenuecat_id = ?", event.AppUserID).
		Update("status", status).Error
	if err != nil {
		return err
	}
	if s.onLapse != nil {
		s.onLapse(ctx, subscriber(event))
	}
	return nil
}

// subscriber is the portfolio user id a RevenueCat customer maps to. Apps set
// the RevenueCat app user id to the JWT subject; aliases fall back to the
// original id.
func subscriber(event *dto.RevenueCatEvent) string {
	if event.OriginalAppUserID != "" && event.AppUserID != event.OriginalAppUserID && isAnonymous(event.AppUserID) {
		return event.OriginalAppUserID
	}
	return event.AppUserID
}

func isAnonymous(id string) bool {
	return strings.HasPrefix(id, "$RCAnonymousID:")
}

func msToTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}
