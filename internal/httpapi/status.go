package httpapi

import (
	"net/http"
	"time"
)

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleStatus reports which providers are wired, without secrets.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "healtfolio",
		"whatsapp": map[string]interface{}{
			"provider": cfg.WhatsApp.Provider,
			"twilio": map[string]interface{}{
				"configured": cfg.WhatsApp.Twilio.Configured(),
				"active":     cfg.WhatsApp.Provider == "twilio",
			},
			"evolution": map[string]interface{}{
				"configured": cfg.WhatsApp.Evolution.Configured(),
				"active":     cfg.WhatsApp.Provider == "evolution",
			},
		},
		"batch": map[string]interface{}{
			"idle_window_seconds": cfg.Batch.IdleWindowSeconds,
			"max_batch":           cfg.Batch.MaxBatch,
		},
	})
}

// handleHealth reports component readiness. Degraded config still returns
// 200 so orchestrators keep the pod alive while operators fix env vars.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg

	openaiOK := cfg.OpenAI.APIKey != ""
	sheetsOK := cfg.Directory.APIKey != "" && cfg.Directory.SheetID != ""
	whatsappOK := cfg.WhatsApp.Twilio.Configured() || cfg.WhatsApp.Evolution.Configured()

	status := "healthy"
	if !openaiOK || !sheetsOK || !whatsappOK {
		status = "degraded"
	}

	check := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "error"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"openai":    check(openaiOK),
			"directory": check(sheetsOK),
			"whatsapp":  check(whatsappOK),
		},
	})
}
