// Package evolution talks to an Evolution API instance: outbound text with a
// composing presence, the typing indicator endpoint, and parsing of
// MESSAGES_UPSERT webhook events.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/healtfolio/healtfolio/internal/channels"
	"github.com/healtfolio/healtfolio/internal/config"
)

// maxMessageLen is the per-message cap applied before sending.
const maxMessageLen = 4096

// Channel sends outbound WhatsApp messages via an Evolution API instance.
type Channel struct {
	cfg    config.EvolutionConfig
	client *http.Client
}

// New creates an Evolution channel from config.
func New(cfg config.EvolutionConfig) (*Channel, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("evolution base_url, api_key and instance_id are required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Channel{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Name returns the provider identifier.
func (c *Channel) Name() string { return "evolution" }

// Send delivers text to a chat, splitting messages over the 4096-char cap.
// Each part carries a short delay with composing presence so the recipient
// sees typing between chunks.
func (c *Channel) Send(ctx context.Context, chatID, text string) error {
	for _, part := range channels.SplitMessage(text, maxMessageLen) {
		payload := map[string]interface{}{
			"number": chatID,
			"text":   part,
			"options": map[string]interface{}{
				"delay":    1200,
				"presence": "composing",
			},
		}
		if err := c.post(ctx, "/message/sendText/", payload); err != nil {
			return err
		}
	}
	return nil
}

// Typing shows the composing indicator for a few seconds.
func (c *Channel) Typing(ctx context.Context, chatID string) error {
	payload := map[string]interface{}{
		"number":   chatID,
		"presence": "composing",
		"delay":    3000,
	}
	return c.post(ctx, "/chat/sendPresence/", payload)
}

func (c *Channel) post(ctx context.Context, pathPrefix string, payload interface{}) error {
	endpoint := c.cfg.BaseURL + pathPrefix + c.cfg.InstanceID

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal evolution payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build evolution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("evolution request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("evolution request failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Debug("evolution request ok", "endpoint", pathPrefix)
	return nil
}

// webhookEvent mirrors the MESSAGES_UPSERT payload shape.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
	} `json:"data"`
}

// Inbound is one parsed Evolution webhook message.
type Inbound struct {
	ChatID    string // bare digits from remoteJid
	Text      string
	MessageID string // WhatsApp message id, used for dedupe
	PushName  string
}

// ParseWebhook extracts the message from a MESSAGES_UPSERT event body.
// Returns nil for other event types, own messages, group chats, and
// messages without extractable text.
func ParseWebhook(body []byte) (*Inbound, error) {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("parse evolution webhook: %w", err)
	}

	// Event name arrives as "messages.upsert" or "MESSAGES_UPSERT".
	name := strings.ToUpper(strings.ReplaceAll(ev.Event, ".", "_"))
	if name != "MESSAGES_UPSERT" {
		return nil, nil
	}
	if ev.Data.Key.FromMe {
		return nil, nil
	}

	jid := ev.Data.Key.RemoteJid
	if strings.HasSuffix(jid, "@g.us") {
		return nil, nil
	}

	text := ev.Data.Message.Conversation
	if text == "" {
		text = ev.Data.Message.ExtendedTextMessage.Text
	}
	if text == "" {
		return nil, nil
	}

	chatID := jid
	if idx := strings.IndexByte(jid, '@'); idx >= 0 {
		chatID = jid[:idx]
	}

	return &Inbound{
		ChatID:    chatID,
		Text:      text,
		MessageID: ev.Data.Key.ID,
		PushName:  ev.Data.PushName,
	}, nil
}
