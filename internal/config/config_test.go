package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Batch.IdleWindowSeconds != 20 {
		t.Errorf("idle window default = %d, want 20", cfg.Batch.IdleWindowSeconds)
	}
	if cfg.Batch.MaxBatch != 10 {
		t.Errorf("max batch default = %d, want 10", cfg.Batch.MaxBatch)
	}
	if cfg.Batch.IdleWindow() != 20*time.Second {
		t.Errorf("IdleWindow() = %v, want 20s", cfg.Batch.IdleWindow())
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("model default = %q", cfg.OpenAI.Model)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
}

func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		// comments are allowed
		batch: { idle_window_seconds: 5, max_batch: 4 },
		whatsapp: { provider: "evolution" },
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.IdleWindowSeconds != 5 || cfg.Batch.MaxBatch != 4 {
		t.Errorf("batch = %+v, want 5s/4", cfg.Batch)
	}
	if cfg.WhatsApp.Provider != "evolution" {
		t.Errorf("provider = %q, want evolution", cfg.WhatsApp.Provider)
	}
	// Untouched sections keep defaults.
	if cfg.Directory.AllowedUsersTab != "AllowedUsers" {
		t.Errorf("allowed users tab = %q", cfg.Directory.AllowedUsersTab)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HEALTFOLIO_OPENAI_API_KEY", "sk-test")
	t.Setenv("HEALTFOLIO_IDLE_WINDOW_SECONDS", "7")
	t.Setenv("PORT", "9001")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Batch.IdleWindowSeconds != 7 {
		t.Errorf("idle window = %d, want 7", cfg.Batch.IdleWindowSeconds)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without OpenAI key")
	}

	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without any WhatsApp provider")
	}

	cfg.WhatsApp.Evolution = EvolutionConfig{BaseURL: "http://evo", APIKey: "k", InstanceID: "i"}
	cfg.WhatsApp.Provider = "evolution"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
