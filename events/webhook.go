package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookPublisher posts every event as JSON to a single URL.
type WebhookPublisher struct {
	client *resty.Client
	url    string
}

func NewWebhookPublisher(url string) *WebhookPublisher {
	return &WebhookPublisher{
		client: resty.New().SetTimeout(10 * time.Second),
		url:    url,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, event Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Event-Type", event.Type).
		SetBody(event).
		Post(p.url)
	if err != nil {
		return fmt.Errorf("post %s: %w", event.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post %s: webhook responded %d: %s", event.Type, resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (p *WebhookPublisher) Close() error { return nil }
