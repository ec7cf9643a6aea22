// Package notify sends operational alerts to the notification service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/logger"
)

// Severity levels understood by the notification service.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notifier delivers alerts. Delivery is best effort; a failed alert is
// logged and dropped, never retried and never surfaced to the caller.
type Notifier interface {
	Alert(ctx context.Context, severity, message string)
}

// HTTPNotifier posts alerts to the notification service.
type HTTPNotifier struct {
	url        string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPNotifier creates a notifier from configuration. A disabled or
// unconfigured notifier becomes a no-op.
func NewHTTPNotifier(cfg config.NotifierConfig, log logger.Logger) Notifier {
	if !cfg.Enabled || cfg.URL == "" {
		return NopNotifier{}
	}
	return &HTTPNotifier{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type alertPayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Alert posts one alert. Fire and forget.
func (n *HTTPNotifier) Alert(ctx context.Context, severity, message string) {
	body, err := json.Marshal(alertPayload{Severity: severity, Message: message})
	if err != nil {
		n.log.Warn("failed to encode alert", logger.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.log.Warn("failed to build alert request", logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Warn("alert delivery failed",
			logger.String("severity", severity),
			logger.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		n.log.Warn("alert rejected by notifier",
			logger.String("severity", severity),
			logger.Error(fmt.Errorf("status %d", resp.StatusCode)))
	}
}

// NopNotifier drops every alert.
type NopNotifier struct{}

// Alert does nothing.
func (NopNotifier) Alert(context.Context, string, string) {}
