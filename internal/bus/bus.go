// Package bus routes messages between provider webhooks and the relay runtime.
// Webhook handlers publish inbound messages; the consumer loop drains them,
// and replies flow back through the outbound queue to the dispatcher.
package bus

import (
	"context"
	"log/slog"
)

const queueSize = 256

// MessageBus is an in-process message queue pair. Publishing never blocks:
// when a queue is full the message is dropped with a warning, keeping webhook
// handlers responsive under backpressure.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

// New creates a MessageBus with bounded queues.
func New() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, queueSize),
		outbound: make(chan OutboundMessage, queueSize),
	}
}

// PublishInbound enqueues a message received from a provider webhook.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	select {
	case b.inbound <- msg:
	default:
		slog.Warn("inbound queue full, dropping message", "chat_id", msg.ChatID, "provider", msg.Provider)
	}
}

// ConsumeInbound blocks until a message is available or ctx is cancelled.
// The second return is false when the context ended.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

// PublishOutbound enqueues a reply for delivery.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	select {
	case b.outbound <- msg:
	default:
		slog.Warn("outbound queue full, dropping message", "chat_id", msg.ChatID)
	}
}

// ConsumeOutbound blocks until a reply is available or ctx is cancelled.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case msg := <-b.outbound:
		return msg, true
	}
}
