// Package config loads the relay configuration from a JSON5 file with env
// var overlays. Secrets (API keys, tokens) are env-only and never persisted.
package config

import (
	"time"
)

// Config is the root configuration for the Healtfolio relay.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Batch     BatchConfig     `json:"batch"`
	OpenAI    OpenAIConfig    `json:"openai"`
	WhatsApp  WhatsAppConfig  `json:"whatsapp"`
	Directory DirectoryConfig `json:"directory"`
	Memory    MemoryConfig    `json:"memory"`
}

// ServerConfig configures the webhook HTTP listener.
type ServerConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	AdminToken string `json:"-"` // from env HEALTFOLIO_ADMIN_TOKEN only
}

// BatchConfig configures the message coalescing scheduler.
type BatchConfig struct {
	IdleWindowSeconds int `json:"idle_window_seconds"` // quiet period before a turn flushes (default 20)
	MaxBatch          int `json:"max_batch"`           // fragment cap per turn (default 10)
}

// IdleWindow returns the idle window as a duration.
func (b BatchConfig) IdleWindow() time.Duration {
	return time.Duration(b.IdleWindowSeconds) * time.Second
}

// OpenAIConfig configures the LLM gateway.
type OpenAIConfig struct {
	APIKey      string  `json:"-"` // from env HEALTFOLIO_OPENAI_API_KEY only
	APIBase     string  `json:"api_base,omitempty"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// WhatsAppConfig selects and configures the outbound provider.
// Provider is "twilio" or "evolution"; when Twilio sending fails the
// dispatcher falls back to Evolution if configured.
type WhatsAppConfig struct {
	Provider  string          `json:"provider"`
	Twilio    TwilioConfig    `json:"twilio"`
	Evolution EvolutionConfig `json:"evolution"`
}

// TwilioConfig holds Twilio WhatsApp credentials and sender number.
type TwilioConfig struct {
	AccountSID string `json:"-"` // env HEALTFOLIO_TWILIO_ACCOUNT_SID
	AuthToken  string `json:"-"` // env HEALTFOLIO_TWILIO_AUTH_TOKEN
	FromNumber string `json:"from_number,omitempty"` // e.g. "whatsapp:+14155238886"
	// ValidateSignature enables X-Twilio-Signature webhook checks.
	ValidateSignature bool `json:"validate_signature,omitempty"`
}

// Configured reports whether Twilio can send messages.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// EvolutionConfig holds Evolution API connection settings.
type EvolutionConfig struct {
	BaseURL    string `json:"base_url,omitempty"`
	APIKey     string `json:"-"` // env HEALTFOLIO_EVOLUTION_API_KEY
	InstanceID string `json:"instance_id,omitempty"`
}

// Configured reports whether Evolution can send messages.
func (c EvolutionConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.InstanceID != ""
}

// DirectoryConfig points at the Google Sheet backing the professional
// directory and the allowed-users tab.
type DirectoryConfig struct {
	APIKey          string `json:"-"` // env HEALTFOLIO_SHEETS_API_KEY
	SheetID         string `json:"sheet_id,omitempty"`
	Tab             string `json:"tab"`           // professionals tab (default "directory")
	AllowedUsersTab string `json:"allowed_users_tab"` // default "AllowedUsers"
	CacheSeconds    int    `json:"cache_seconds"` // sheet cache TTL (default 300)
}

// CacheTTL returns the sheet cache TTL as a duration.
func (d DirectoryConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheSeconds) * time.Second
}

// MemoryConfig configures conversation history storage.
// Empty RedisURL means in-RAM fallback.
type MemoryConfig struct {
	RedisURL string `json:"-"` // env HEALTFOLIO_REDIS_URL only
	MaxTurns int    `json:"max_turns"` // history cap in messages (default 20)
}
