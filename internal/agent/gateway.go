// Package agent implements the LLM tool-calling gateway: one combined user
// turn in, one reply out, with directory lookups executed in between when the
// model asks for them.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/healtfolio/healtfolio/internal/directory"
	"github.com/healtfolio/healtfolio/internal/memory"
	"github.com/healtfolio/healtfolio/internal/providers"
)

// historyCarry is how many prior messages survive into the next turn's
// context; maxTurns caps the total stored.
const historyCarry = 8

// DirectoryLookups is the narrow directory contract the gateway needs.
type DirectoryLookups interface {
	FindProfessionals(ctx context.Context, specialty, city string) ([]directory.Row, error)
	FindByName(ctx context.Context, name string) (directory.Row, error)
}

// Config tunes the gateway.
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string // empty = built-in default
	MaxTurns     int    // stored history cap in messages (default 20)
}

// Gateway resolves a combined turn into a reply.
type Gateway struct {
	provider     providers.Provider
	dir          DirectoryLookups
	mem          memory.Store
	model        string
	temperature  float64
	systemPrompt string
	maxTurns     int
}

// New creates a Gateway.
func New(provider providers.Provider, dir DirectoryLookups, mem memory.Store, cfg Config) *Gateway {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 20
	}
	return &Gateway{
		provider:     provider,
		dir:          dir,
		mem:          mem,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
		maxTurns:     cfg.MaxTurns,
	}
}

// Process runs one turn: load history, call the LLM with the directory tools,
// execute any requested lookups, call again for the final answer, persist the
// trimmed history, and return the reply text.
func (g *Gateway) Process(ctx context.Context, chatID, userText string) (string, error) {
	history, err := g.mem.History(ctx, chatID)
	if err != nil {
		slog.Warn("history load failed, continuing without context", "chat_id", chatID, "error", err)
		history = nil
	}

	messages := g.buildMessages(history, userText)

	resp, err := g.provider.Chat(ctx, providers.ChatRequest{
		Messages:    messages,
		Tools:       []providers.ToolDefinition{findProfessionalsTool, findProfessionalByNameTool},
		Model:       g.model,
		Temperature: &g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}

	if resp.FinishReason == "tool_calls" && len(resp.ToolCalls) > 0 {
		messages = append(messages, providers.Message{
			Role:      "assistant",
			ToolCalls: resp.ToolCalls,
		})
		messages = append(messages, g.runToolCalls(ctx, resp.ToolCalls)...)

		resp, err = g.provider.Chat(ctx, providers.ChatRequest{
			Messages:    messages,
			Model:       g.model,
			Temperature: &g.temperature,
		})
		if err != nil {
			return "", fmt.Errorf("llm call after tools: %w", err)
		}
	}

	finalText := resp.Content

	g.saveHistory(ctx, chatID, history, userText, finalText)
	return finalText, nil
}

// buildMessages assembles system prompt + prior history + the new user turn.
func (g *Gateway) buildMessages(history []memory.Turn, userText string) []providers.Message {
	messages := make([]providers.Message, 0, len(history)+2)
	messages = append(messages, providers.Message{Role: "system", Content: g.systemPrompt})
	for _, t := range history {
		messages = append(messages, providers.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, providers.Message{Role: "user", Content: userText})
	return messages
}

// runToolCalls executes each requested lookup and returns the tool messages.
// A failing lookup produces an error payload for the model rather than
// aborting the turn.
func (g *Gateway) runToolCalls(ctx context.Context, calls []providers.ToolCall) []providers.Message {
	results := make([]providers.Message, 0, len(calls))
	for _, tc := range calls {
		var payload interface{}

		switch tc.Name {
		case "find_professionals":
			specialty, _ := tc.Arguments["specialty"].(string)
			city, _ := tc.Arguments["city"].(string)
			slog.Info("tool call", "name", tc.Name, "specialty", specialty, "city", city)

			rows, err := g.dir.FindProfessionals(ctx, specialty, city)
			if err != nil {
				slog.Error("find_professionals failed", "error", err)
				payload = map[string]string{"error": "directorio no disponible, inténtalo más tarde"}
			} else {
				payload = rows
			}

		case "find_professional_by_name":
			name, _ := tc.Arguments["name"].(string)
			slog.Info("tool call", "name", tc.Name, "query", name)

			row, err := g.dir.FindByName(ctx, name)
			if err != nil {
				slog.Error("find_professional_by_name failed", "error", err)
				payload = map[string]string{"error": "directorio no disponible, inténtalo más tarde"}
			} else if row == nil {
				payload = map[string]string{}
			} else {
				payload = row
			}

		default:
			slog.Warn("unknown tool requested", "name", tc.Name)
			payload = map[string]string{"error": "herramienta desconocida"}
		}

		content, _ := json.Marshal(payload)
		results = append(results, providers.Message{
			Role:       "tool",
			ToolCallID: tc.ID,
			Content:    string(content),
		})
	}
	return results
}

// saveHistory persists the last few prior messages plus the new exchange,
// capped at maxTurns. Failures are logged; memory is best-effort.
func (g *Gateway) saveHistory(ctx context.Context, chatID string, history []memory.Turn, userText, reply string) {
	carry := history
	if len(carry) > historyCarry {
		carry = carry[len(carry)-historyCarry:]
	}

	turns := make([]memory.Turn, 0, len(carry)+2)
	turns = append(turns, carry...)
	turns = append(turns,
		memory.Turn{Role: "user", Content: userText},
		memory.Turn{Role: "assistant", Content: reply},
	)
	if len(turns) > g.maxTurns {
		turns = turns[len(turns)-g.maxTurns:]
	}

	if err := g.mem.Save(ctx, chatID, turns); err != nil {
		slog.Warn("history save failed", "chat_id", chatID, "error", err)
	}
}
