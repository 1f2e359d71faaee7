package botapi

import (
	"context"
	"log/slog"
)

// Dispatcher routes normalized updates to registered handlers. Handler faults
// are isolated per update: an error or panic in one handler is logged and
// never affects sibling updates.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
}

func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		registry: registry,
		log:      log.With("component", "botapi.dispatcher"),
	}
}

// Dispatch invokes the handler for one update: exact type match first, then
// the wildcard handler, else the update is dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, update Update) {
	handler, ok := d.registry.Resolve(update.TypeName)
	if !ok {
		d.log.Debug("No handler for update", "update_id", update.ID, "type", update.TypeName)
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			d.log.Error("Handler panicked", "update_id", update.ID, "type", update.TypeName, "panic", recovered)
		}
	}()

	if err := handler(ctx, update.Payload, update.TypeName); err != nil {
		d.log.Error("Handler failed", "update_id", update.ID, "type", update.TypeName, "error", err)
	}
}
