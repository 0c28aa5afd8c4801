package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 5 * time.Second
)

// Notifier sends best-effort operator notifications. Delivery failures are
// logged and swallowed; they never propagate to the caller.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// TelegramNotifier posts messages to a Telegram chat through the Bot API.
type TelegramNotifier struct {
	httpClient *http.Client
	baseURL    string
	token      string
	chatID     string
	logger     *logging.Logger
}

// Option adjusts a TelegramNotifier.
type Option func(*TelegramNotifier)

// WithBaseURL overrides the Bot API host. Tests point this at a fake server.
func WithBaseURL(baseURL string) Option {
	return func(n *TelegramNotifier) { n.baseURL = baseURL }
}

// WithTimeout overrides the per-send timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(n *TelegramNotifier) { n.httpClient.Timeout = timeout }
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token, chatID string, logger *logging.Logger, opts ...Option) *TelegramNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	n := &TelegramNotifier{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
		chatID:     chatID,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify sends one Markdown message. Errors are logged, never returned.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		n.logger.Error("telegram: marshal message", "error", err)
		return
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("telegram: build request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("telegram: send message", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		n.logger.Error("telegram: send message rejected", "status", resp.StatusCode, "body", string(body))
	}
}

// NoopNotifier is used when the bot token or chat id is not configured.
type NoopNotifier struct {
	logger *logging.Logger
}

// NewNoopNotifier creates a notifier that only logs.
func NewNoopNotifier(logger *logging.Logger) *NoopNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &NoopNotifier{logger: logger}
}

// Notify logs the message at debug level and drops it.
func (n *NoopNotifier) Notify(ctx context.Context, text string) {
	n.logger.Debug("notifications disabled, dropping message", "text", text)
}

// Ensure interface compliance
var _ Notifier = (*TelegramNotifier)(nil)
var _ Notifier = (*NoopNotifier)(nil)
