package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// WebhookNotifier posts escalation alerts to a Slack-compatible webhook.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

type webhookPayload struct {
	Text string `json:"text"`
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) (*WebhookNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook notifier requires a URL")
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("Using webhook escalation notifier")

	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Notify posts the alert for one escalated decision.
func (n *WebhookNotifier) Notify(ctx context.Context, record *core.DecisionRecord, review *core.Review) error {
	body, err := json.Marshal(webhookPayload{Text: formatAlert(record, review)})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(snippet))
	}

	n.logger.Debug("Escalation alert posted",
		zap.String("decision_id", record.ID))

	return nil
}
