package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/healtfolio/healtfolio/internal/bus"
	"github.com/healtfolio/healtfolio/internal/channels/evolution"
	"github.com/healtfolio/healtfolio/internal/channels/twilio"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 256 * 1024

// handleEvolutionWebhook accepts MESSAGES_UPSERT events from Evolution API.
// The reply is always 200 with a status field: retries from the provider for
// transient processing errors would only duplicate messages.
func (s *Server) handleEvolutionWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "read body"})
		return
	}

	in, err := evolution.ParseWebhook(body)
	if err != nil {
		slog.Warn("malformed evolution webhook", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	if in == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if !s.limiter.Allow(in.ChatID) {
		slog.Warn("webhook rate limited", "chat_id", in.ChatID)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"status": "rate_limited"})
		return
	}
	if in.MessageID != "" && s.dedupe.IsDuplicate("evolution:"+in.MessageID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	s.msgBus.PublishInbound(bus.InboundMessage{
		Provider: "evolution",
		SenderID: in.ChatID,
		ChatID:   in.ChatID,
		Content:  in.Text,
		Metadata: map[string]string{
			"message_id":   in.MessageID,
			"profile_name": in.PushName,
		},
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTwilioWebhook accepts Twilio's form-encoded message webhook. The
// response is an empty TwiML document: replies go out via the REST API after
// the coalesced turn resolves, not inline.
func (s *Server) handleTwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	if s.cfg.WhatsApp.Twilio.ValidateSignature {
		sig := r.Header.Get("X-Twilio-Signature")
		reqURL := requestURL(r)
		if !twilio.ValidateSignature(s.cfg.WhatsApp.Twilio.AuthToken, reqURL, r.PostForm, sig) {
			slog.Warn("twilio signature rejected", "url", reqURL)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	in := twilio.ParseWebhook(r.PostForm)
	if in == nil {
		twilio.WriteTwiML(w, "")
		return
	}

	if !s.limiter.Allow(in.ChatID) {
		slog.Warn("webhook rate limited", "chat_id", in.ChatID)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	if in.MessageID != "" && s.dedupe.IsDuplicate("twilio:"+in.MessageID) {
		twilio.WriteTwiML(w, "")
		return
	}

	s.msgBus.PublishInbound(bus.InboundMessage{
		Provider: "twilio",
		SenderID: in.ChatID,
		ChatID:   in.ChatID,
		Content:  in.Text,
		Metadata: map[string]string{"message_id": in.MessageID},
	})

	twilio.WriteTwiML(w, "")
}

// requestURL reconstructs the public URL Twilio signed against, honoring
// reverse-proxy forwarding headers.
func requestURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
