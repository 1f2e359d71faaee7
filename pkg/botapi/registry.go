package botapi

import (
	"context"
	"sort"

	"github.com/tidwall/gjson"
)

// Wildcard registers a handler for every update type.
const Wildcard = "*"

// Handler processes one update payload. typeName is the update's payload
// field name (for example "message" or "callback_query").
type Handler func(ctx context.Context, payload gjson.Result, typeName string) error

// Registry maps update-type names to handlers. Registration must complete
// before polling starts; mutating the registry while the poller is running is
// undefined and no lock is provided for it.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to an update type, or to every type via Wildcard.
// Re-registering a type silently replaces the previous handler.
func (r *Registry) Register(typeName string, handler Handler) {
	r.handlers[typeName] = handler
}

// Resolve returns the handler for a type, falling back to the wildcard
// handler when no exact match exists.
func (r *Registry) Resolve(typeName string) (Handler, bool) {
	if handler, ok := r.handlers[typeName]; ok {
		return handler, true
	}

	handler, ok := r.handlers[Wildcard]

	return handler, ok
}

// AllowedUpdates lists the registered type names for the getUpdates filter, or
// nil when a wildcard handler is registered and every type must be delivered.
func (r *Registry) AllowedUpdates() []string {
	if _, ok := r.handlers[Wildcard]; ok {
		return nil
	}

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil
	}

	return names
}
