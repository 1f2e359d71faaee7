package botapi

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultPollTimeout = 30 * time.Second
	defaultBackoff     = 5 * time.Second
	methodGetUpdates   = "getUpdates"
)

// Poller runs the long-polling loop: it fetches update batches, advances the
// offset cursor, and feeds each update to the dispatcher. Updates within a
// batch are dispatched sequentially in arrival order; each handler runs to
// completion before the next update is dispatched.
type Poller struct {
	client     *Client
	registry   *Registry
	dispatcher *Dispatcher
	timeout    time.Duration
	backoff    time.Duration
	log        *slog.Logger

	offset atomic.Int64

	mu      sync.Mutex
	quit    chan struct{}
	stopped bool
}

func NewPoller(client *Client, registry *Registry, dispatcher *Dispatcher, timeout, backoff time.Duration, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &Poller{
		client:     client,
		registry:   registry,
		dispatcher: dispatcher,
		timeout:    timeout,
		backoff:    backoff,
		log:        log.With("component", "botapi.poller"),
		quit:       make(chan struct{}),
	}
}

// Offset returns the current update cursor: one past the highest update_id
// seen so far.
func (p *Poller) Offset() int64 {
	return p.offset.Load()
}

// Stop asks the loop to exit after its current cycle. An in-flight long poll
// is allowed to complete. Safe to call repeatedly and before Run.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.stopped {
		p.stopped = true
		close(p.quit)
	}
}

// Run blocks polling for updates until the context is cancelled or Stop is
// called. A failed cycle is logged and retried after a fixed backoff; the
// loop never terminates on its own. The shared transport is released
// unconditionally on exit.
func (p *Poller) Run(ctx context.Context) error {
	defer p.client.Close()

	p.log.Info("Polling started", "timeout", p.timeout, "allowed_updates", p.registry.AllowedUpdates())

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Polling cancelled")
			return ctx.Err()
		case <-p.quit:
			p.log.Info("Polling stopped")
			return nil
		default:
		}

		batch, err := p.fetchUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("Polling cancelled")
				return ctx.Err()
			}

			p.log.Error("Polling cycle failed", "error", err, "retry_in", p.backoff)
			if !p.waitBackoff(ctx) {
				return ctx.Err()
			}

			continue
		}

		for _, raw := range batch {
			update, err := NormalizeUpdate(raw, p.log)
			if err != nil {
				// Still advance past the broken update so the next
				// cycle does not refetch it forever.
				p.advance(raw.Get("update_id").Int())
				p.log.Warn("Skipping malformed update", "error", err, "raw", raw.String())

				continue
			}

			p.advance(update.ID)
			p.dispatcher.Dispatch(ctx, update)
		}
	}
}

func (p *Poller) fetchUpdates(ctx context.Context) ([]gjson.Result, error) {
	params := Params{
		"offset":  p.offset.Load(),
		"timeout": int(p.timeout.Seconds()),
	}
	if allowed := p.registry.AllowedUpdates(); allowed != nil {
		params["allowed_updates"] = allowed
	}

	result, err := p.client.Do(ctx, Call{Method: methodGetUpdates, Params: params})
	if err != nil {
		return nil, err
	}

	return result.Array(), nil
}

// advance moves the offset cursor monotonically: it never decreases, even
// when a batch arrives out of order.
func (p *Poller) advance(updateID int64) {
	if next := updateID + 1; next > p.offset.Load() {
		p.offset.Store(next)
	}
}

func (p *Poller) waitBackoff(ctx context.Context) bool {
	timer := time.NewTimer(p.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-p.quit:
		return false
	case <-timer.C:
		return true
	}
}
