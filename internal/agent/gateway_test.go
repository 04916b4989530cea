package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/healtfolio/healtfolio/internal/directory"
	"github.com/healtfolio/healtfolio/internal/memory"
	"github.com/healtfolio/healtfolio/internal/providers"
)

// scriptedProvider returns canned responses in order and records requests.
type scriptedProvider struct {
	responses []*providers.ChatResponse
	requests  []providers.ChatRequest
}

func (p *scriptedProvider) Chat(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return nil, fmt.Errorf("no scripted response left")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) DefaultModel() string { return "gpt-4o-mini" }
func (p *scriptedProvider) Name() string         { return "scripted" }

type fakeDir struct {
	rows   []directory.Row
	byName directory.Row
}

func (d *fakeDir) FindProfessionals(_ context.Context, specialty, city string) ([]directory.Row, error) {
	return d.rows, nil
}

func (d *fakeDir) FindByName(_ context.Context, name string) (directory.Row, error) {
	return d.byName, nil
}

func TestProcessDirectAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []*providers.ChatResponse{
		{Content: "¡Hola! ¿Qué especialidad buscas?", FinishReason: "stop"},
	}}
	mem := memory.NewRAMStore()
	g := New(p, &fakeDir{}, mem, Config{Model: "gpt-4o-mini"})

	reply, err := g.Process(context.Background(), "56911111111", "hola")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "¡Hola! ¿Qué especialidad buscas?" {
		t.Errorf("reply = %q", reply)
	}

	// One LLM call, with both tools offered.
	if len(p.requests) != 1 {
		t.Fatalf("llm calls = %d, want 1", len(p.requests))
	}
	if len(p.requests[0].Tools) != 2 {
		t.Errorf("tools offered = %d, want 2", len(p.requests[0].Tools))
	}
	if p.requests[0].Messages[0].Role != "system" {
		t.Error("first message must be the system prompt")
	}

	// Exchange persisted.
	turns, _ := mem.History(context.Background(), "56911111111")
	if len(turns) != 2 || turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("saved history = %v", turns)
	}
}

func TestProcessToolCallRoundTrip(t *testing.T) {
	p := &scriptedProvider{responses: []*providers.ChatResponse{
		{
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{{
				ID:        "call_1",
				Name:      "find_professionals",
				Arguments: map[string]interface{}{"specialty": "cardiología", "city": "Santiago"},
			}},
		},
		{Content: "Encontré a la Dra. Reyes en Santiago.", FinishReason: "stop"},
	}}
	dir := &fakeDir{rows: []directory.Row{{"name": "Dra. Reyes", "phone": "+56911111111"}}}
	g := New(p, dir, memory.NewRAMStore(), Config{Model: "gpt-4o-mini"})

	reply, err := g.Process(context.Background(), "chat", "busco cardiólogo en santiago")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Encontré a la Dra. Reyes en Santiago." {
		t.Errorf("reply = %q", reply)
	}

	if len(p.requests) != 2 {
		t.Fatalf("llm calls = %d, want 2", len(p.requests))
	}

	// Second call carries the assistant tool_calls message and the tool result.
	second := p.requests[1].Messages
	var sawAssistantCall, sawToolResult bool
	for _, m := range second {
		if m.Role == "assistant" && len(m.ToolCalls) == 1 {
			sawAssistantCall = true
		}
		if m.Role == "tool" && m.ToolCallID == "call_1" {
			sawToolResult = true
			if !strings.Contains(m.Content, "Dra. Reyes") {
				t.Errorf("tool result content = %q", m.Content)
			}
		}
	}
	if !sawAssistantCall || !sawToolResult {
		t.Errorf("second request missing tool exchange: assistant=%v tool=%v", sawAssistantCall, sawToolResult)
	}
	// Final call offers no tools.
	if len(p.requests[1].Tools) != 0 {
		t.Errorf("second call tools = %d, want 0", len(p.requests[1].Tools))
	}
}

func TestProcessUnknownToolDoesNotAbort(t *testing.T) {
	p := &scriptedProvider{responses: []*providers.ChatResponse{
		{
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{{
				ID:        "call_x",
				Name:      "mystery_tool",
				Arguments: map[string]interface{}{},
			}},
		},
		{Content: "disculpa, no pude hacer eso", FinishReason: "stop"},
	}}
	g := New(p, &fakeDir{}, memory.NewRAMStore(), Config{})

	reply, err := g.Process(context.Background(), "chat", "haz algo raro")
	if err != nil {
		t.Fatal(err)
	}
	if reply == "" {
		t.Error("expected a reply despite unknown tool")
	}
}

func TestHistoryTrimming(t *testing.T) {
	mem := memory.NewRAMStore()

	// Preload 14 prior messages; only the last 8 carry over, plus the new pair.
	var prior []memory.Turn
	for i := 0; i < 14; i++ {
		prior = append(prior, memory.Turn{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}
	mem.Save(context.Background(), "chat", prior)

	p := &scriptedProvider{responses: []*providers.ChatResponse{
		{Content: "ok", FinishReason: "stop"},
	}}
	g := New(p, &fakeDir{}, mem, Config{MaxTurns: 20})

	if _, err := g.Process(context.Background(), "chat", "nuevo mensaje"); err != nil {
		t.Fatal(err)
	}

	turns, _ := mem.History(context.Background(), "chat")
	if len(turns) != 10 {
		t.Fatalf("stored turns = %d, want 10 (8 carried + new pair)", len(turns))
	}
	if turns[0].Content != "m6" {
		t.Errorf("oldest carried = %q, want m6", turns[0].Content)
	}
	if turns[9].Content != "ok" {
		t.Errorf("newest = %q, want ok", turns[9].Content)
	}
}
