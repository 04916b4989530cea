package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Batch: BatchConfig{
			IdleWindowSeconds: 20,
			MaxBatch:          10,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		WhatsApp: WhatsAppConfig{
			Provider: "twilio",
		},
		Directory: DirectoryConfig{
			Tab:             "directory",
			AllowedUsersTab: "AllowedUsers",
			CacheSeconds:    300,
		},
		Memory: MemoryConfig{
			MaxTurns: 20,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: env-only deployments are supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values. Secrets are env-only.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("HEALTFOLIO_OPENAI_API_KEY", &c.OpenAI.APIKey)
	envStr("HEALTFOLIO_OPENAI_MODEL", &c.OpenAI.Model)
	envStr("HEALTFOLIO_ADMIN_TOKEN", &c.Server.AdminToken)
	envStr("HEALTFOLIO_REDIS_URL", &c.Memory.RedisURL)

	envStr("HEALTFOLIO_TWILIO_ACCOUNT_SID", &c.WhatsApp.Twilio.AccountSID)
	envStr("HEALTFOLIO_TWILIO_AUTH_TOKEN", &c.WhatsApp.Twilio.AuthToken)
	envStr("HEALTFOLIO_TWILIO_WHATSAPP_NUMBER", &c.WhatsApp.Twilio.FromNumber)

	envStr("HEALTFOLIO_EVOLUTION_BASE_URL", &c.WhatsApp.Evolution.BaseURL)
	envStr("HEALTFOLIO_EVOLUTION_API_KEY", &c.WhatsApp.Evolution.APIKey)
	envStr("HEALTFOLIO_EVOLUTION_INSTANCE_ID", &c.WhatsApp.Evolution.InstanceID)

	envStr("HEALTFOLIO_SHEETS_API_KEY", &c.Directory.APIKey)
	envStr("HEALTFOLIO_SHEET_ID", &c.Directory.SheetID)
	envStr("HEALTFOLIO_SHEET_TAB", &c.Directory.Tab)

	envStr("HEALTFOLIO_WHATSAPP_PROVIDER", &c.WhatsApp.Provider)

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("HEALTFOLIO_IDLE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.IdleWindowSeconds = n
		}
	}
	if v := os.Getenv("HEALTFOLIO_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.MaxBatch = n
		}
	}
}

// Validate checks for configuration combinations that cannot serve traffic.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("HEALTFOLIO_OPENAI_API_KEY is required")
	}
	if !c.WhatsApp.Twilio.Configured() && !c.WhatsApp.Evolution.Configured() {
		return fmt.Errorf("no WhatsApp provider configured (twilio or evolution)")
	}
	if c.WhatsApp.Provider != "twilio" && c.WhatsApp.Provider != "evolution" {
		return fmt.Errorf("unknown whatsapp provider %q", c.WhatsApp.Provider)
	}
	return nil
}
