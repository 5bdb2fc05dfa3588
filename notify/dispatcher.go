package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notification is an overdue-return notice addressed to the person holding
// the asset.
type Notification struct {
	AssetID     string     `json:"asset_id"`
	AssetCode   string     `json:"asset_code"`
	AssetName   string     `json:"asset_name"`
	RecipientID string     `json:"recipient_id"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// Dispatcher delivers a notification to an end-user channel. Delivery is
// best-effort; the core owes no retry.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// WebhookDispatcher posts notifications as JSON to a configured endpoint.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewWebhookDispatcher wires a dispatcher. A nil client gets a sane timeout.
func NewWebhookDispatcher(url string, client *http.Client, logger *slog.Logger) *WebhookDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookDispatcher{url: url, client: client, log: logger}
}

func (d *WebhookDispatcher) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned %s", resp.Status)
	}

	d.log.Info("notification delivered",
		slog.String("asset_code", n.AssetCode),
		slog.String("recipient_id", n.RecipientID))
	return nil
}

// LogDispatcher writes notifications to the log only. Useful in development
// when no webhook endpoint is configured.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, n Notification) error {
	d.log.Info("overdue notice (log only)",
		slog.String("asset_code", n.AssetCode),
		slog.String("recipient_id", n.RecipientID))
	return nil
}
