// Package social delivers published posts to external platforms through a
// configured webhook, typically an automation bridge like Zapier or Make.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookPoster posts JSON payloads to a single webhook endpoint. The
// receiving automation fans out to the actual platform.
type WebhookPoster struct {
	URL    string
	Client *http.Client
}

// NewWebhookPoster creates a poster targeting the given webhook URL.
func NewWebhookPoster(url string) *WebhookPoster {
	return &WebhookPoster{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type webhookPayload struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

type webhookResponse struct {
	ID string `json:"id"`
}

// Publish sends the post to the webhook and returns the remote ID when the
// receiver reports one.
func (p *WebhookPoster) Publish(ctx context.Context, platform, content, imageURL string) (string, error) {
	body, err := json.Marshal(webhookPayload{Platform: platform, Content: content, ImageURL: imageURL})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", p.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var out webhookResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &out); err != nil || out.ID == "" {
		// Receivers that don't echo an ID still count as delivered.
		return fmt.Sprintf("webhook-%d", time.Now().UnixNano()), nil
	}
	return out.ID, nil
}

// LogPoster logs posts instead of delivering them. Used in development and
// whenever no webhook is configured.
type LogPoster struct{}

// Publish logs the post and returns a synthetic ID.
func (LogPoster) Publish(ctx context.Context, platform, content, imageURL string) (string, error) {
	slog.Info("social_post_logged", "platform", platform, "content_length", len(content), "image_url", imageURL)
	return fmt.Sprintf("log-%d", time.Now().UnixNano()), nil
}
