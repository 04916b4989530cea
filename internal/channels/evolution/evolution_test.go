package evolution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/healtfolio/healtfolio/internal/config"
)

func newTestChannel(t *testing.T, baseURL string) *Channel {
	t.Helper()
	ch, err := New(config.EvolutionConfig{
		BaseURL:    baseURL,
		APIKey:     "evo-key",
		InstanceID: "healtfolio",
	})
	if err != nil {
		t.Fatal(err)
	}
	return ch
}

func TestSendPostsTextWithPresence(t *testing.T) {
	var gotPath, gotKey string
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ch := newTestChannel(t, srv.URL)
	if err := ch.Send(context.Background(), "56911111111", "hola"); err != nil {
		t.Fatal(err)
	}

	if gotPath != "/message/sendText/healtfolio" {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "evo-key" {
		t.Errorf("apikey = %s", gotKey)
	}
	if payload["number"] != "56911111111" || payload["text"] != "hola" {
		t.Errorf("payload = %v", payload)
	}
	opts, _ := payload["options"].(map[string]interface{})
	if opts["presence"] != "composing" {
		t.Errorf("options = %v", opts)
	}
}

func TestTypingHitsPresenceEndpoint(t *testing.T) {
	var gotPath string
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer srv.Close()

	ch := newTestChannel(t, srv.URL)
	if err := ch.Typing(context.Background(), "56911111111"); err != nil {
		t.Fatal(err)
	}

	if gotPath != "/chat/sendPresence/healtfolio" {
		t.Errorf("path = %s", gotPath)
	}
	if payload["presence"] != "composing" {
		t.Errorf("payload = %v", payload)
	}
}

func TestSendErrorsOnRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ch := newTestChannel(t, srv.URL)
	if err := ch.Send(context.Background(), "56911111111", "hola"); err == nil {
		t.Fatal("want error on 401")
	}
}

func TestParseWebhookConversation(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "56911111111@s.whatsapp.net", "fromMe": false, "id": "ABC123"},
			"pushName": "Ana",
			"message": {"conversation": "busco dentista en santiago"}
		}
	}`)

	in, err := ParseWebhook(body)
	if err != nil {
		t.Fatal(err)
	}
	if in == nil {
		t.Fatal("want parsed message")
	}
	if in.ChatID != "56911111111" {
		t.Errorf("ChatID = %s", in.ChatID)
	}
	if in.Text != "busco dentista en santiago" {
		t.Errorf("Text = %s", in.Text)
	}
	if in.MessageID != "ABC123" || in.PushName != "Ana" {
		t.Errorf("meta = %s / %s", in.MessageID, in.PushName)
	}
}

func TestParseWebhookExtendedText(t *testing.T) {
	body := []byte(`{
		"event": "MESSAGES_UPSERT",
		"data": {
			"key": {"remoteJid": "56911111111@s.whatsapp.net"},
			"message": {"extendedTextMessage": {"text": "hola"}}
		}
	}`)

	in, err := ParseWebhook(body)
	if err != nil {
		t.Fatal(err)
	}
	if in == nil || in.Text != "hola" {
		t.Fatalf("in = %+v", in)
	}
}

func TestParseWebhookIgnores(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"other event", `{"event": "connection.update", "data": {}}`},
		{"own message", `{"event": "messages.upsert", "data": {"key": {"remoteJid": "1@s.whatsapp.net", "fromMe": true}, "message": {"conversation": "x"}}}`},
		{"group chat", `{"event": "messages.upsert", "data": {"key": {"remoteJid": "123-456@g.us"}, "message": {"conversation": "x"}}}`},
		{"no text", `{"event": "messages.upsert", "data": {"key": {"remoteJid": "1@s.whatsapp.net"}, "message": {}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := ParseWebhook([]byte(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			if in != nil {
				t.Errorf("want nil, got %+v", in)
			}
		})
	}
}

func TestParseWebhookMalformed(t *testing.T) {
	if _, err := ParseWebhook([]byte(`{not json`)); err == nil {
		t.Fatal("want error on malformed body")
	}
}
