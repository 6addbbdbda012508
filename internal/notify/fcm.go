package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmaliks/tasker-api/internal/config"
)

// FCMClient sends notifications through the Firebase Cloud Messaging HTTP
// API. It implements the Notifier interface.
type FCMClient struct {
	httpClient *http.Client
	endpoint   string
	projectID  string
	token      string
	logger     *slog.Logger
}

// NewFCMClient creates an FCM-backed Notifier from configuration.
// If logger is nil, a default logger will be used.
func NewFCMClient(cfg config.FCMConfig, logger *slog.Logger) *FCMClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &FCMClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   cfg.Endpoint,
		projectID:  cfg.ProjectID,
		token:      cfg.BearerToken,
		logger:     logger.With(slog.String("component", "fcm")),
	}
}

// Ensure FCMClient implements Notifier interface
var _ Notifier = (*FCMClient)(nil)

// fcmMessage mirrors the FCM v1 send request body.
type fcmMessage struct {
	Message struct {
		Token        string            `json:"token"`
		Notification fcmNotification   `json:"notification"`
		Data         map[string]string `json:"data,omitempty"`
	} `json:"message"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send implements Notifier.Send. A non-2xx response is an error; the caller
// (the dispatcher) logs and discards it.
func (c *FCMClient) Send(ctx context.Context, target string, n Notification) error {
	var msg fcmMessage
	msg.Message.Token = target
	msg.Message.Notification = fcmNotification{Title: n.Title, Body: n.Body}
	msg.Message.Data = map[string]string{"type": string(n.Kind)}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal fcm message: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/messages:send", c.endpoint, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	c.logger.Debug("notification delivered",
		slog.String("kind", string(n.Kind)))
	return nil
}

// NopNotifier discards every notification after logging it at debug level.
// Used when no FCM project is configured (local development, tests).
type NopNotifier struct {
	logger *slog.Logger
}

// NewNopNotifier creates a NopNotifier.
func NewNopNotifier(logger *slog.Logger) *NopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NopNotifier{logger: logger.With(slog.String("component", "nop_notifier"))}
}

// Ensure NopNotifier implements Notifier interface
var _ Notifier = (*NopNotifier)(nil)

// Send implements Notifier.Send by logging and discarding the notification.
func (n *NopNotifier) Send(_ context.Context, _ string, note Notification) error {
	n.logger.Debug("push delivery disabled, dropping notification",
		slog.String("kind", string(note.Kind)),
		slog.String("title", note.Title))
	return nil
}
