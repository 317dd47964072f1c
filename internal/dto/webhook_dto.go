package dto

// RevenueCatWebhook is the envelope RevenueCat posts to /api/webhooks/revenuecat.
// Only the fields the subscription table needs are decoded.
type RevenueCatWebhook struct {
	APIVersion string          `json:"api_version"`
	Event      RevenueCatEvent `json:"event"`
}

type RevenueCatEvent struct {
	Type              string `json:"type"`
	ID                string `json:"id"`
	AppUserID         string `json:"app_user_id"`
	OriginalAppUserID string `json:"original_app_user_id"`
	ProductID         string `json:"product_id"`
	PurchasedAtMs     int64  `json:"purchased_at_ms"`
	ExpirationAtMs    int64  `json:"expiration_at_ms"`
	Environment       string `json:"environment"`
}
