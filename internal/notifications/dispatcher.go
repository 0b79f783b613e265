// Package notifications contains the outbound edge to the alert dispatcher.
// Delivery is fire-and-forget from the engine's perspective: alert
// persistence is the durable fact, a failed dispatch is only logged.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Notification is the structured payload handed to the external dispatcher,
// which fans it out over the requested channels.
type Notification struct {
	TenantID string                 `json:"tenant_id"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Severity string                 `json:"severity"`
	Channels []string               `json:"channels"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Dispatcher sends a notification to the delivery service.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification Notification) error
}

// WebhookDispatcher posts notifications to a configured HTTP endpoint.
type WebhookDispatcher struct {
	client     *resty.Client
	webhookURL string
}

// NewWebhookDispatcher creates a dispatcher posting to webhookURL.
func NewWebhookDispatcher(webhookURL string, timeout time.Duration) *WebhookDispatcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0) // Best-effort: the dispatcher service owns retries
	return &WebhookDispatcher{client: client, webhookURL: webhookURL}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, notification Notification) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(notification).
		Post(d.webhookURL)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification endpoint returned %s", resp.Status())
	}
	return nil
}

// LogDispatcher is used when no webhook is configured: it records the
// notification in the service log and succeeds.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, notification Notification) error {
	log.Info().
		Str("tenant_id", notification.TenantID).
		Str("severity", notification.Severity).
		Strs("channels", notification.Channels).
		Str("title", notification.Title).
		Msg("Notification (no webhook configured)")
	return nil
}
