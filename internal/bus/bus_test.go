package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundRoundTrip(t *testing.T) {
	b := New()
	b.PublishInbound(InboundMessage{Provider: "evolution", ChatID: "56911111111", Content: "hola"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("no message consumed")
	}
	if msg.ChatID != "56911111111" || msg.Content != "hola" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("consume on cancelled context must report not-ok")
	}
	if _, ok := b.ConsumeOutbound(ctx); ok {
		t.Error("consume on cancelled context must report not-ok")
	}
}

func TestDedupeCache(t *testing.T) {
	c := NewDedupeCache(time.Minute, 100)

	if c.IsDuplicate("a") {
		t.Error("first sighting flagged as duplicate")
	}
	if !c.IsDuplicate("a") {
		t.Error("second sighting not flagged")
	}
	if c.IsDuplicate("b") {
		t.Error("unrelated key flagged")
	}
}

func TestDedupeCacheExpiry(t *testing.T) {
	c := NewDedupeCache(20*time.Millisecond, 100)

	c.IsDuplicate("a")
	time.Sleep(40 * time.Millisecond)
	if c.IsDuplicate("a") {
		t.Error("expired entry still flagged as duplicate")
	}
}

func TestDedupeCacheEvictsAtCap(t *testing.T) {
	c := NewDedupeCache(time.Minute, 2)

	c.IsDuplicate("a")
	c.IsDuplicate("b")
	c.IsDuplicate("c")
	// Cap enforced: no more than maxSize entries survive the insert of "c".
	if n := c.Len(); n > 2 {
		t.Errorf("entries = %d, want <= 2", n)
	}
}
