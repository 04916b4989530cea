// Package httpapi exposes the webhook endpoints the WhatsApp providers call
// and a small token-guarded admin surface over the coalescing scheduler.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/healtfolio/healtfolio/internal/batch"
	"github.com/healtfolio/healtfolio/internal/bus"
	"github.com/healtfolio/healtfolio/internal/channels"
	"github.com/healtfolio/healtfolio/internal/config"
)

// dedupe webhook deliveries by provider message id for this long.
const dedupeTTL = 10 * time.Minute

// Server hosts the webhook and admin HTTP surface. Inbound webhook messages
// are published to the bus; the consumer loop owns everything after that.
type Server struct {
	cfg        config.Config
	msgBus     *bus.MessageBus
	scheduler  *batch.Scheduler
	dedupe     *bus.DedupeCache
	limiter    *channels.WebhookRateLimiter
	mux        *http.ServeMux
	httpServer *http.Server
}

// New creates the HTTP server. The scheduler reference powers the admin
// endpoints only; message flow goes through the bus.
func New(cfg config.Config, msgBus *bus.MessageBus, scheduler *batch.Scheduler) *Server {
	return &Server{
		cfg:       cfg,
		msgBus:    msgBus,
		scheduler: scheduler,
		dedupe:    bus.NewDedupeCache(dedupeTTL, 10000),
		limiter:   channels.NewWebhookRateLimiter(),
	}
}

// BuildMux creates and caches the mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /webhook", s.handleEvolutionWebhook)
	mux.HandleFunc("POST /webhook/twilio", s.handleTwilioWebhook)

	mux.HandleFunc("GET /v1/batcher/status", s.auth(s.handleBatcherStatus))
	mux.HandleFunc("POST /v1/batcher/flush", s.auth(s.handleBatcherFlush))

	s.mux = mux
	return mux
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("http server starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Server.AdminToken
		if token == "" || extractBearerToken(r) != token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	return strings.TrimPrefix(h, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
