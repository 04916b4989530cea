package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/healtfolio/healtfolio/internal/access"
	"github.com/healtfolio/healtfolio/internal/agent"
	"github.com/healtfolio/healtfolio/internal/batch"
	"github.com/healtfolio/healtfolio/internal/bus"
	"github.com/healtfolio/healtfolio/internal/channels"
)

// turnTimeout bounds one LLM round trip including tool lookups.
const turnTimeout = 90 * time.Second

// consumeInbound reads webhook messages off the bus, gates them on the
// allowed-users list, and feeds them to the coalescing scheduler. The typing
// indicator fires here on the first fragment of a new turn, not inside the
// scheduler: presence is a channel concern.
func consumeInbound(ctx context.Context, msgBus *bus.MessageBus, scheduler *batch.Scheduler, gateway *agent.Gateway, checker *access.Checker, primary channels.Channel) {
	slog.Info("inbound consumer started",
		"idle_window", scheduler.IdleWindow(),
		"max_batch", scheduler.MaxBatch(),
	)

	for {
		msg, ok := msgBus.ConsumeInbound(ctx)
		if !ok {
			slog.Info("inbound consumer stopped")
			return
		}

		if !checker.IsAllowed(ctx, msg.ChatID) {
			continue
		}

		chatID := msg.ChatID
		provider := msg.Provider

		// New turn: show composing before the model has anything to say.
		if _, pending := scheduler.Status(chatID); !pending {
			go func() {
				typingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := primary.Typing(typingCtx, chatID); err != nil {
					slog.Debug("typing indicator failed", "chat_id", chatID, "error", err)
				}
			}()
		}

		absorbed := scheduler.Submit(chatID, msg.Content, func(turn string) {
			runTurn(msgBus, gateway, provider, chatID, turn)
		})
		if !absorbed {
			slog.Info("batch cap reached, turn flushed", "chat_id", chatID)
		}
	}
}

// runTurn resolves one coalesced turn through the LLM and queues the reply.
// Called from the scheduler's dispatch goroutine after the key is released,
// so a follow-up message can start a fresh turn while this one runs.
func runTurn(msgBus *bus.MessageBus, gateway *agent.Gateway, provider, chatID, turn string) {
	turnID := uuid.NewString()[:8]
	slog.Info("turn dispatched", "turn_id", turnID, "chat_id", chatID, "chars", len(turn))

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	reply, err := gateway.Process(ctx, chatID, turn)
	if err != nil {
		slog.Error("turn failed", "turn_id", turnID, "chat_id", chatID, "error", err)
		reply = "Lo siento, tuve un problema procesando tu mensaje. ¿Puedes intentarlo de nuevo?"
	}
	if reply == "" {
		return
	}

	msgBus.PublishOutbound(bus.OutboundMessage{
		Provider: provider,
		ChatID:   chatID,
		Content:  reply,
		Metadata: map[string]string{"turn_id": turnID},
	})
}

// dispatchOutbound delivers replies through the active provider, falling back
// to the secondary when the primary send fails. A global limiter keeps the
// send rate inside WhatsApp provider quotas.
func dispatchOutbound(ctx context.Context, msgBus *bus.MessageBus, primary, fallback channels.Channel) {
	slog.Info("outbound dispatcher started", "provider", primary.Name())

	limiter := rate.NewLimiter(rate.Every(time.Second), 5)

	for {
		msg, ok := msgBus.ConsumeOutbound(ctx)
		if !ok {
			slog.Info("outbound dispatcher stopped")
			return
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := primary.Send(sendCtx, msg.ChatID, msg.Content)
		cancel()
		if err == nil {
			continue
		}

		if fallback == nil {
			slog.Error("outbound send failed", "chat_id", msg.ChatID, "provider", primary.Name(), "error", err)
			continue
		}

		slog.Warn("primary send failed, trying fallback",
			"chat_id", msg.ChatID,
			"primary", primary.Name(),
			"fallback", fallback.Name(),
			"error", err,
		)
		sendCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		if err := fallback.Send(sendCtx, msg.ChatID, msg.Content); err != nil {
			slog.Error("fallback send failed", "chat_id", msg.ChatID, "provider", fallback.Name(), "error", err)
		}
		cancel()
	}
}
