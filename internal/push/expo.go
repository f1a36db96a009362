// Package push sends notifications to devices through the Expo push gateway.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
)

// Message is one push notification addressed to an Expo push token.
type Message struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Sound string         `json:"sound,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers push notifications. Satisfied by the Expo client and by
// test fakes.
type Sender interface {
	Send(ctx context.Context, messages []Message) error
}

// ExpoClient talks to the Expo push HTTP API.
type ExpoClient struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewExpoClient creates an Expo push client.
func NewExpoClient(cfg config.PushConfig, logger *zap.Logger) *ExpoClient {
	return &ExpoClient{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// ValidToken reports whether the token looks like an Expo push token.
func ValidToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]")
}

// Send posts a batch of messages to the gateway. Messages without a valid
// token are dropped before the request.
func (c *ExpoClient) Send(ctx context.Context, messages []Message) error {
	batch := make([]Message, 0, len(messages))
	for _, m := range messages {
		if !ValidToken(m.To) {
			continue
		}
		if m.Sound == "" {
			m.Sound = "default"
		}
		batch = append(batch, m)
	}
	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notifications: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	c.logger.Info("push notifications sent", zap.Int("count", len(batch)))
	return nil
}
