package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/healtfolio/healtfolio/internal/access"
	"github.com/healtfolio/healtfolio/internal/agent"
	"github.com/healtfolio/healtfolio/internal/batch"
	"github.com/healtfolio/healtfolio/internal/bus"
	"github.com/healtfolio/healtfolio/internal/channels"
	"github.com/healtfolio/healtfolio/internal/channels/evolution"
	"github.com/healtfolio/healtfolio/internal/channels/twilio"
	"github.com/healtfolio/healtfolio/internal/config"
	"github.com/healtfolio/healtfolio/internal/directory"
	"github.com/healtfolio/healtfolio/internal/httpapi"
	"github.com/healtfolio/healtfolio/internal/memory"
	"github.com/healtfolio/healtfolio/internal/providers"
)

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conversation memory: Redis when configured, RAM otherwise.
	mem := memory.New(ctx, cfg.Memory.RedisURL)
	defer mem.Close()

	// Directory over Google Sheets, cached, shared by tool lookups and the
	// allowed-users gate.
	sheets := directory.NewSheetsClient(cfg.Directory.APIKey, cfg.Directory.SheetID)
	cached := directory.NewCachedSource(sheets, cfg.Directory.CacheTTL())
	dir := directory.New(cached, cfg.Directory.Tab, cfg.Directory.AllowedUsersTab)
	checker := access.NewChecker(dir, 5*time.Minute)

	provider := providers.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.APIBase, cfg.OpenAI.Model)
	gateway := agent.New(provider, dir, mem, agent.Config{
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTurns:    cfg.Memory.MaxTurns,
	})

	scheduler := batch.NewScheduler(batch.Config{
		IdleWindow: cfg.Batch.IdleWindow(),
		MaxBatch:   cfg.Batch.MaxBatch,
	})
	defer scheduler.Stop()

	msgBus := bus.New()

	primary, fallback := buildChannels(cfg)
	if primary == nil {
		slog.Error("no whatsapp provider configured")
		os.Exit(1)
	}
	slog.Info("whatsapp providers ready",
		"primary", primary.Name(),
		"fallback", fallbackName(fallback),
	)

	server := httpapi.New(*cfg, msgBus, scheduler)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(ctx)
	})
	g.Go(func() error {
		consumeInbound(ctx, msgBus, scheduler, gateway, checker, primary)
		return nil
	})
	g.Go(func() error {
		dispatchOutbound(ctx, msgBus, primary, fallback)
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("serve terminated", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

// buildChannels returns the active provider and, when both are configured,
// the other one as a send fallback.
func buildChannels(cfg *config.Config) (primary, fallback channels.Channel) {
	var tw, evo channels.Channel

	if cfg.WhatsApp.Twilio.Configured() {
		ch, err := twilio.New(cfg.WhatsApp.Twilio)
		if err != nil {
			slog.Warn("twilio channel unavailable", "error", err)
		} else {
			tw = ch
		}
	}
	if cfg.WhatsApp.Evolution.Configured() {
		ch, err := evolution.New(cfg.WhatsApp.Evolution)
		if err != nil {
			slog.Warn("evolution channel unavailable", "error", err)
		} else {
			evo = ch
		}
	}

	if cfg.WhatsApp.Provider == "twilio" && tw != nil {
		return tw, evo
	}
	if evo != nil {
		return evo, tw
	}
	return tw, nil
}

func fallbackName(ch channels.Channel) string {
	if ch == nil {
		return "none"
	}
	return ch.Name()
}
