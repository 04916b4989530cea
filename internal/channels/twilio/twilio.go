// Package twilio sends WhatsApp messages through the Twilio REST API and
// parses Twilio's form-encoded inbound webhooks.
package twilio

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/healtfolio/healtfolio/internal/channels"
	"github.com/healtfolio/healtfolio/internal/config"
)

// maxMessageLen is Twilio's per-message character cap.
const maxMessageLen = 1600

const defaultAPIBase = "https://api.twilio.com"

// Channel sends outbound WhatsApp messages via Twilio.
type Channel struct {
	cfg     config.TwilioConfig
	apiBase string
	client  *http.Client
}

// New creates a Twilio channel from config.
func New(cfg config.TwilioConfig) (*Channel, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("twilio account_sid, auth_token and from_number are required")
	}
	return &Channel{
		cfg:     cfg,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// WithAPIBase overrides the Twilio endpoint, used by tests.
func (c *Channel) WithAPIBase(base string) *Channel {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

// Name returns the provider identifier.
func (c *Channel) Name() string { return "twilio" }

// Send delivers text to a chat, splitting messages over the 1600-char cap.
func (c *Channel) Send(ctx context.Context, chatID, text string) error {
	to := chatID
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}

	for _, part := range channels.SplitMessage(text, maxMessageLen) {
		if err := c.sendOne(ctx, to, part); err != nil {
			return err
		}
	}
	return nil
}

// Typing is a no-op: the Twilio WhatsApp API has no presence endpoint.
func (c *Channel) Typing(_ context.Context, _ string) error { return nil }

func (c *Channel) sendOne(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.apiBase, c.cfg.AccountSID)

	form := url.Values{}
	form.Set("From", c.cfg.FromNumber)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio send failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Debug("twilio message sent", "to", to, "bytes", len(body))
	return nil
}

// Inbound is one parsed Twilio webhook message.
type Inbound struct {
	ChatID    string // bare digits, no "whatsapp:" prefix or "+"
	Text      string
	MessageID string // Twilio MessageSid, used for dedupe
}

// ParseWebhook extracts the message from a form-encoded Twilio webhook.
// Returns nil when the form carries no text body.
func ParseWebhook(form url.Values) *Inbound {
	body := form.Get("Body")
	if body == "" {
		return nil
	}
	return &Inbound{
		ChatID:    NormalizeNumber(form.Get("From")),
		Text:      body,
		MessageID: form.Get("MessageSid"),
	}
}

// NormalizeNumber strips the "whatsapp:" prefix and "+" from a Twilio
// From/To value, leaving bare digits.
func NormalizeNumber(number string) string {
	number = strings.TrimPrefix(number, "whatsapp:")
	return strings.ReplaceAll(number, "+", "")
}

// ValidateSignature checks the X-Twilio-Signature header: HMACSHA1 over the
// full request URL concatenated with the sorted POST parameters, keyed by the
// auth token and base64 encoded.
func ValidateSignature(authToken, requestURL string, form url.Values, signature string) bool {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// WriteTwiML writes a TwiML reply. An empty message produces an empty
// <Response/>, which acknowledges the webhook without replying inline.
func WriteTwiML(w http.ResponseWriter, message string) {
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}
	w.Header().Set("Content-Type", "application/xml")
	out, err := xml.Marshal(twimlMessage{Message: message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "%s%s", xml.Header, out)
}
