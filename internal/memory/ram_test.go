package memory

import (
	"context"
	"testing"
)

func TestRAMStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewRAMStore()

	got, err := s.History(ctx, "56911111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("fresh history = %v, want empty", got)
	}

	turns := []Turn{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "¡Hola! ¿En qué puedo ayudarte?"},
	}
	if err := s.Save(ctx, "56911111111", turns); err != nil {
		t.Fatal(err)
	}

	got, err = s.History(ctx, "56911111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Content != "hola" {
		t.Errorf("history = %v", got)
	}

	// Chats are isolated.
	other, _ := s.History(ctx, "56922222222")
	if len(other) != 0 {
		t.Errorf("other chat history = %v, want empty", other)
	}
}

func TestRAMStoreHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewRAMStore()
	s.Save(ctx, "chat", []Turn{{Role: "user", Content: "original"}})

	got, _ := s.History(ctx, "chat")
	got[0].Content = "mutated"

	again, _ := s.History(ctx, "chat")
	if again[0].Content != "original" {
		t.Error("History must return a copy, not internal state")
	}
}

func TestNewFallsBackWithoutRedis(t *testing.T) {
	if _, ok := New(context.Background(), "").(*RAMStore); !ok {
		t.Error("empty redis URL should yield the RAM store")
	}
	// Unreachable Redis also degrades to RAM.
	if _, ok := New(context.Background(), "redis://127.0.0.1:1/0").(*RAMStore); !ok {
		t.Error("unreachable redis should fall back to the RAM store")
	}
}
