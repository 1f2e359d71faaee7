package channel

import "context"

// Inbound is one user message received from a transport.
type Inbound struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Outbound is the reply sent back through the same transport.
type Outbound struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Handler processes one inbound channel message and returns an outbound reply.
type Handler func(context.Context, Inbound) (Outbound, error)

// Adapter bridges one external transport (for example Telegram) into botflow.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}
