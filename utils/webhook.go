package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"coursehub/services"
)

// WebhookNotifier posts every completion event as JSON. Receivers can dedupe
// on certificate_number.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &WebhookNotifier{client: client, url: url}
}

func (w *WebhookNotifier) CourseCompleted(ctx context.Context, event services.CompletionEvent) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("completion webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("completion webhook: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
