package bus

import "context"

// InboundMessage represents a message received from a WhatsApp provider webhook.
type InboundMessage struct {
	Provider string            `json:"provider"` // "twilio" or "evolution"
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"` // normalized E164 without "+"
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"` // message_sid, profile_name, ...
}

// OutboundMessage represents a reply to be sent back through a provider.
type OutboundMessage struct {
	Provider string            `json:"provider"` // empty = active provider
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MessageRouter abstracts inbound/outbound routing between webhook handlers
// and the relay runtime.
type MessageRouter interface {
	PublishInbound(msg InboundMessage)
	ConsumeInbound(ctx context.Context) (InboundMessage, bool)
	PublishOutbound(msg OutboundMessage)
	ConsumeOutbound(ctx context.Context) (OutboundMessage, bool)
}
