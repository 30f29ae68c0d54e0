// Package notifications delivers winner announcements to a chat webhook.
// Delivery is best-effort: the selection run never fails because of it.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace-backend/internal/features/giveaway/selection"
)

// WebhookNotifier posts a structured summary of a settled giveaway to a
// configured chat webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Content string            `json:"content"`
	Summary selection.Summary `json:"summary"`
}

// GiveawaySettled implements selection.Notifier.
func (n *WebhookNotifier) GiveawaySettled(ctx context.Context, summary selection.Summary) error {
	if n == nil || n.url == "" {
		return nil
	}

	payload := webhookPayload{
		Content: buildAnnouncement(summary),
		Summary: summary,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

func buildAnnouncement(summary selection.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Giveaway \"%s\" has ended!\n", summary.Title)
	for _, w := range summary.Winners {
		fmt.Fprintf(&b, "%d%s place: @%s wins %s", w.Position, placeSuffix(w.Position), w.Username, w.PrizeName)
		if w.PrizeValue != "" {
			fmt.Fprintf(&b, " (%s)", w.PrizeValue)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func placeSuffix(place int) string {
	switch place {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
