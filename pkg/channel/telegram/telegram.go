package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"botflow/pkg/botapi"
	"botflow/pkg/channel"
	"botflow/pkg/config"

	"github.com/tidwall/gjson"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter bridges Telegram updates into botflow inbound/outbound messages,
// long polling through the botapi runtime.
type Adapter struct {
	cfg       config.TelegramConfig
	polling   config.PollingConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, polling config.PollingConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		polling:   polling,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in metadata and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards message updates through the
// shared channel handler. It blocks until the context is cancelled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := botapi.New(strings.TrimSpace(a.cfg.Token),
		botapi.WithBaseURL(a.cfg.APIBaseURL),
		botapi.WithPollTimeout(time.Duration(a.polling.TimeoutSeconds)*time.Second),
		botapi.WithBackoff(time.Duration(a.polling.BackoffSeconds)*time.Second),
		botapi.WithLogger(a.log),
	)
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	bot.Register("message", func(ctx context.Context, payload gjson.Result, typeName string) error {
		return a.handleMessage(ctx, bot, handler, payload)
	})

	a.log.Info("Telegram channel started")

	if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram polling: %w", err)
	}

	return nil
}

// handleMessage converts one message payload, runs the channel handler, and
// sends the reply back to the originating chat.
func (a *Adapter) handleMessage(ctx context.Context, bot *botapi.Bot, handler channel.Handler, payload gjson.Result) error {
	content := strings.TrimSpace(payload.Get("text").String())
	if content == "" {
		// Non-text messages are ignored; the runtime expects text content.
		return nil
	}

	sender := payload.Get("from.id")
	if !sender.Exists() {
		a.log.Debug("Ignoring message without sender")
		return nil
	}

	senderID := strconv.FormatInt(sender.Int(), 10)
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return nil
	}

	chatID := strconv.FormatInt(payload.Get("chat.id").Int(), 10)
	inbound := channel.Inbound{
		Channel:  channelName,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: map[string]string{
			"message_id": payload.Get("message_id").String(),
		},
	}
	a.log.Info("Received message", "chat_id", chatID, "sender_id", senderID, "content", previewText(content))

	outbound, err := handler(ctx, inbound)
	if err != nil {
		a.log.Error("Failed to process inbound message", "error", err)
		outbound = channel.Outbound{Error: err.Error()}
	}

	responseText := strings.TrimSpace(outbound.Content)
	if responseText == "" {
		responseText = strings.TrimSpace(outbound.Error)
	}
	if responseText == "" {
		return nil
	}
	a.log.Info("Sending message", "chat_id", chatID, "content", previewText(responseText))

	if _, err := bot.Call(ctx, "sendMessage", botapi.Params{"chat_id": chatID, "text": responseText}); err != nil {
		a.log.Error("Failed to send telegram message", "error", err)
	}

	return nil
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
