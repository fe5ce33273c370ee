// Package slack implements a notifier.Notifier for Slack incoming webhooks.
package slack

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
	providerName   = "slack"
	defaultTimeout = 10 * time.Second
)

// Notifier posts task mandates to a Slack channel via incoming webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a Slack notifier with the given webhook URL.
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

// slackMessage is the Slack Block Kit message payload.
type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the mandate for role. Any non-2xx answer is a failure.
func (n *Notifier) Notify(ctx context.Context, role, description string) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}

	mandate := notifier.Mandate(role, description)
	msg := slackMessage{
		Text: mandate,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: "[TASK] " + role}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: mandate}},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL from trusted config
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("slack API %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
