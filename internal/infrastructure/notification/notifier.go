// Package notification provides the email transports behind the notifier.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	appnotification "github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New selects a transport by name: log (default), noop, webhook or smtp
func New(cfg config.NotificationConfig, logger *zap.Logger) (appnotification.Notifier, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", "log":
		return NewLogNotifier(cfg.FromAddress, logger), nil
	case "noop":
		return NoopNotifier{}, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook transport requires a url")
		}
		return NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookToken, cfg.FromAddress, cfg.Timeout), nil
	case "smtp":
		n, err := NewSMTPNotifier(cfg)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown notification transport %q", cfg.Transport)
}

// LogNotifier writes messages to the application log instead of sending them
type LogNotifier struct {
	from   string
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(from string, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{from: from, logger: logger}
}

// Send logs the message
func (n *LogNotifier) Send(_ context.Context, msg appnotification.Message) error {
	n.logger.Info("Email",
		zap.String("from", n.from),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// NoopNotifier discards every message
type NoopNotifier struct{}

// Send does nothing
func (NoopNotifier) Send(context.Context, appnotification.Message) error { return nil }

// WebhookNotifier posts each message as JSON to a mail relay
type WebhookNotifier struct {
	url    string
	token  string
	from   string
	client *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(url, token, from string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, token: token, from: from, client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Send posts the message; any non-2xx response is an error
func (n *WebhookNotifier) Send(ctx context.Context, msg appnotification.Message) error {
	body, err := json.Marshal(webhookPayload{From: n.from, To: msg.To, Subject: msg.Subject, Body: msg.Body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail relay responded %d", resp.StatusCode)
	}
	return nil
}
