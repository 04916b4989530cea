// Package channels provides the WhatsApp transport layer. A Channel hides
// the provider wire protocol (Twilio REST or Evolution API) behind a small
// send/typing surface; inbound webhooks are parsed by the provider
// subpackages and forwarded to the message bus by the HTTP layer.
package channels

import (
	"context"
	"unicode/utf8"
)

// Channel is the outbound contract every WhatsApp provider satisfies.
type Channel interface {
	// Name returns the provider identifier ("twilio", "evolution").
	Name() string

	// Send delivers text to a chat. Implementations split messages that
	// exceed the provider's length cap.
	Send(ctx context.Context, chatID, text string) error

	// Typing shows a composing indicator in the chat. Providers without
	// presence support return nil.
	Typing(ctx context.Context, chatID string) error
}

// SplitMessage cuts text into chunks of at most maxLen bytes, breaking on
// newline or space boundaries when one falls in the tail of the chunk.
// Cuts never land inside a multi-byte rune: accented Spanish text stays
// valid UTF-8 in every chunk.
func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > maxLen {
		cut := maxLen
		// Prefer a natural break in the last quarter of the chunk.
		if idx := lastBreak(text[:maxLen]); idx > maxLen*3/4 {
			cut = idx
		} else {
			cut = runeSafeCut(text, cut)
		}
		parts = append(parts, text[:cut])
		text = trimLeadingSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// runeSafeCut backs a byte offset up to the nearest rune boundary at or
// before it, so a hard cut cannot bisect a multi-byte character.
func runeSafeCut(s string, cut int) int {
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		// Pathological maxLen smaller than one rune; emit the rune whole
		// rather than loop forever on an empty chunk.
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

func lastBreak(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' || s[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\n') {
		s = s[1:]
	}
	return s
}
