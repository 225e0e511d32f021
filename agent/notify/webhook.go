package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// webhookTimeout is the timeout for a webhook delivery.
const webhookTimeout = 30 * time.Second

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	TraceID string  `json:"trace_id"`
	Event   string  `json:"event"`
	Message Message `json:"message"`
}

// WebhookSink delivers messages as JSON POSTs to a configured endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for the given endpoint URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver posts the payload and treats any non-2xx response as failure.
func (s *WebhookSink) Deliver(ctx context.Context, payload *WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal webhook request to %s", s.url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct webhook request to %s", s.url)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post webhook to %s", s.url)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read webhook response from %s", s.url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("failed to post webhook %s, status code: %d, response body: %s", s.url, resp.StatusCode, b)
	}
	return nil
}
