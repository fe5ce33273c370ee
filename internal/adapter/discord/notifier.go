// Package discord implements a notifier.Notifier for Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/blackboard/internal/port/notifier"
)

const (
	providerName   = "discord"
	defaultTimeout = 10 * time.Second
	embedColor     = 0x3498DB // blue
)

// Notifier posts task mandates to a Discord channel via incoming webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a Discord notifier with the given webhook URL.
func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (n *Notifier) Name() string { return providerName }

// discordWebhook is the Discord webhook payload with embeds.
type discordWebhook struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Notify posts the mandate for role as a single embed.
func (n *Notifier) Notify(ctx context.Context, role, description string) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}

	msg := discordWebhook{
		Content: "[TASK] " + role,
		Embeds: []discordEmbed{{
			Title:       description,
			Description: notifier.Mandate(role, description),
			Color:       embedColor,
			Footer:      &discordFooter{Text: "Role: " + role},
		}},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("discord marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL from trusted config
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Discord returns 204 on success
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("discord API %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		timeout, _ := time.ParseDuration(config["timeout"])
		return NewNotifier(config["webhook_url"], timeout), nil
	})
}
