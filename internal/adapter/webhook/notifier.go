// Package webhook implements a notifier.Notifier that pushes mandates to a
// generic HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/blackboard/internal/logger"
	"github.com/Strob0t/blackboard/internal/port/messagequeue"
	"github.com/Strob0t/blackboard/internal/port/notifier"
)

const (
	providerName   = "webhook"
	defaultTimeout = 10 * time.Second
	headerRole     = "X-Blackboard-Role"
)

// Notifier POSTs a JSON mandate to a worker endpoint.
// The body uses the same schema as the NATS workers.notify subject.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// NewNotifier creates a webhook notifier for url.
func NewNotifier(url string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (n *Notifier) Name() string { return providerName }

// Notify implements notifier.Notifier.
func (n *Notifier) Notify(ctx context.Context, role, description string) error {
	if n.url == "" {
		return notifier.ErrNotConfigured
	}

	body, err := json.Marshal(messagequeue.WorkerNotifyPayload{
		Role:        role,
		Description: description,
		Prompt:      notifier.Mandate(role, description),
	})
	if err != nil {
		return fmt.Errorf("webhook marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRole, role)
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := n.httpClient.Do(req) //nolint:gosec // worker URL from trusted config
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		timeout, _ := time.ParseDuration(config["timeout"])
		return NewNotifier(config["url"], timeout), nil
	})
}
