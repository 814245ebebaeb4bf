package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/yourusername/form-signals/internal/models"
)

// WebhookPublisher POSTs opportunities as JSON to a fixed URL
type WebhookPublisher struct {
	url    string
	token  string
	client *RateLimitedHTTPClient
}

// NewWebhookPublisher creates a webhook publisher. A non-empty token is
// sent as a bearer credential.
func NewWebhookPublisher(url, token string, client *RateLimitedHTTPClient) *WebhookPublisher {
	return &WebhookPublisher{url: url, token: token, client: client}
}

// Publish sends the opportunity and expects a 2xx response
func (p *WebhookPublisher) Publish(ctx context.Context, opp models.Opportunity) error {
	payload, err := json.Marshal(NewMessage(opp))
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.url, payload)
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Opportunity-ID", opp.ID.String())
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Name returns the publisher kind.
func (p *WebhookPublisher) Name() string { return KindWebhook }

// Close releases idle connections.
func (p *WebhookPublisher) Close() error {
	return p.client.Close()
}
