// Package botapi is a generic Telegram Bot API client runtime: long polling
// with offset tracking, update-type dispatch to registered handlers, and a
// typed generic call for outbound methods (JSON or multipart).
package botapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Bot ties the client, handler registry, dispatcher, and poller into one
// instance. Register handlers first, then StartPolling; registering while the
// poller runs is undefined behavior.
type Bot struct {
	client   *Client
	registry *Registry
	poller   *Poller
}

// Option adjusts bot construction.
type Option func(*options)

type options struct {
	baseURL     string
	httpClient  *http.Client
	pollTimeout time.Duration
	backoff     time.Duration
	log         *slog.Logger
}

// WithBaseURL targets a non-default API base, for local Bot API servers and
// tests.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient supplies the transport collaborator instead of the lazily
// created default.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithPollTimeout sets the long-poll timeout passed to getUpdates.
func WithPollTimeout(timeout time.Duration) Option {
	return func(o *options) { o.pollTimeout = timeout }
}

// WithBackoff sets the wait after a failed polling cycle.
func WithBackoff(backoff time.Duration) Option {
	return func(o *options) { o.backoff = backoff }
}

// WithLogger sets the logger used by every component of the bot.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a bot for the given token.
func New(token string, opts ...Option) (*Bot, error) {
	token = strings.TrimSpace(token)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if token == "" && o.baseURL == "" {
		return nil, errors.New("bot token is required")
	}

	client := NewClient(token, o.baseURL, o.log)
	if o.httpClient != nil {
		client.SetHTTPClient(o.httpClient)
	}

	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, o.log)

	return &Bot{
		client:   client,
		registry: registry,
		poller:   NewPoller(client, registry, dispatcher, o.pollTimeout, o.backoff, o.log),
	}, nil
}

// Register binds a handler to an update type name, or to every type via
// Wildcard. Must complete before StartPolling.
func (b *Bot) Register(typeName string, handler Handler) {
	b.registry.Register(typeName, handler)
}

// Call invokes a remote API method with JSON-encoded parameters and returns
// the unwrapped result value.
func (b *Bot) Call(ctx context.Context, method string, params Params) (gjson.Result, error) {
	return b.client.Do(ctx, Call{Method: method, Params: params})
}

// CallWithAttachments invokes a remote API method as a multipart form
// carrying the given attachments.
func (b *Bot) CallWithAttachments(ctx context.Context, method string, params Params, attachments Attachments) (gjson.Result, error) {
	return b.client.Do(ctx, Call{Method: method, Params: params, Attachments: attachments})
}

// StartPolling blocks running the long-poll loop until the context is
// cancelled or Stop is called.
func (b *Bot) StartPolling(ctx context.Context) error {
	return b.poller.Run(ctx)
}

// Stop asks the polling loop to exit after its current cycle. Idempotent.
func (b *Bot) Stop() {
	b.poller.Stop()
}

// Offset exposes the poller's update cursor.
func (b *Bot) Offset() int64 {
	return b.poller.Offset()
}
