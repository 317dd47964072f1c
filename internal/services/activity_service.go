package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"

	SignatureHeader = "X-Portfolio-Signature"
	activityPath    = "/api/webhooks/portfolio-creator-activity.json"
)

// Notification is an optional user-facing message shown by the parent app.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// ActivityEvent is one change to a user's portfolios plus their dashboard summary.
type ActivityEvent struct {
	UserID       string
	AppID        string
	Event        string
	EntityID     string
	OccurredAt   time.Time
	Summary      any
	Notification *Notification
}

type activityBody struct {
	UserID       string        `json:"userId"`
	AppID        string        `json:"appId"`
	Activity     activityEntry `json:"activity"`
	Summary      any           `json:"summary"`
	Notification *Notification `json:"notification,omitempty"`
}

type activityEntry struct {
	Event      string `json:"event"`
	EntityID   string `json:"entityId,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// ActivityWebhook posts signed activity events to the parent app.
type ActivityWebhook struct {
	endpoint string
	secret   []byte
	client   *http.Client
}

func NewActivityWebhook(parentURL, secret string, timeout time.Duration) *ActivityWebhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &ActivityWebhook{
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
	if base := strings.TrimRight(strings.TrimSpace(parentURL), "/"); base != "" {
		w.endpoint = base + activityPath
	}
	return w
}

// Enabled reports whether both a target URL and a signing secret are set.
func (w *ActivityWebhook) Enabled() bool {
	return w != nil && w.endpoint != "" && len(w.secret) > 0
}

func (w *ActivityWebhook) Endpoint() string {
	return w.endpoint
}

// Sign returns the signature header value for body.
func (w *ActivityWebhook) Sign(body []byte) string {
	mac := hmac.New(sha256.New, w.secret)
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (w *ActivityWebhook) Notify(ctx context.Context, event ActivityEvent) error {
	if !w.Enabled() {
		return nil
	}

	body, err := json.Marshal(activityBody{
		UserID: event.UserID,
		AppID:  event.AppID,
		Activity: activityEntry{
			Event:      event.Event,
			EntityID:   event.EntityID,
			OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339),
		},
		Summary:      event.Summary,
		Notification: event.Notification,
	})
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, w.Sign(body))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("activity webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("activity webhook returned status %d", resp.StatusCode)
	}
	return nil
}
