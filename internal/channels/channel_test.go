package channels

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessageShortUnchanged(t *testing.T) {
	parts := SplitMessage("hola", 1600)
	if len(parts) != 1 || parts[0] != "hola" {
		t.Errorf("parts = %v", parts)
	}
}

func TestSplitMessageBreaksOnSpace(t *testing.T) {
	text := strings.Repeat("palabra ", 50) // 400 bytes
	parts := SplitMessage(text, 100)

	for i, p := range parts {
		if len(p) > 100 {
			t.Errorf("part %d is %d bytes, over cap", i, len(p))
		}
	}
	// No words lost.
	joined := strings.Join(parts, " ")
	if strings.Count(joined, "palabra") != 50 {
		t.Errorf("words lost in split: %q", joined)
	}
}

func TestSplitMessageHardCutWithoutBreaks(t *testing.T) {
	text := strings.Repeat("x", 250)
	parts := SplitMessage(text, 100)
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if total != 250 {
		t.Errorf("bytes after split = %d, want 250", total)
	}
}

func TestSplitMessageNeverBisectsRunes(t *testing.T) {
	// Unbroken accented text forces hard cuts; an odd byte cap lands mid-rune
	// unless the cut backs up to a rune boundary.
	text := strings.Repeat("á", 900) // 1800 bytes, no spaces
	parts := SplitMessage(text, 1601)

	var rejoined strings.Builder
	for i, p := range parts {
		if !utf8.ValidString(p) {
			t.Errorf("part %d is invalid UTF-8", i)
		}
		if len(p) > 1601 {
			t.Errorf("part %d is %d bytes, over cap", i, len(p))
		}
		rejoined.WriteString(p)
	}
	if rejoined.String() != text {
		t.Error("split dropped or altered bytes")
	}
}

func TestSplitMessageAccentedSentences(t *testing.T) {
	text := strings.Repeat("necesito un cardiólogo en Viña del Mar ", 10)
	parts := SplitMessage(text, 100)

	for i, p := range parts {
		if !utf8.ValidString(p) {
			t.Errorf("part %d is invalid UTF-8", i)
		}
		if len(p) > 100 {
			t.Errorf("part %d is %d bytes, over cap", i, len(p))
		}
	}
	if got := strings.Count(strings.Join(parts, " "), "cardiólogo"); got != 10 {
		t.Errorf("occurrences after split = %d, want 10", got)
	}
}

func TestRateLimiterAllowsWithinWindow(t *testing.T) {
	rl := NewWebhookRateLimiter()
	for i := 0; i < rateLimitMaxHits; i++ {
		if !rl.Allow("56911111111") {
			t.Fatalf("hit %d rejected, want allowed", i)
		}
	}
	if rl.Allow("56911111111") {
		t.Error("hit over cap allowed, want rejected")
	}
	// Other keys are unaffected.
	if !rl.Allow("56922222222") {
		t.Error("independent key rejected")
	}
}
