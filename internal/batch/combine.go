package batch

import "strings"

// standaloneTokens are bare greeting/closing messages that read as their own
// clause ("hola", "gracias", ...). Matched case-insensitively against the
// whole fragment after trimming trailing punctuation.
var standaloneTokens = map[string]bool{
	"hola":          true,
	"buenas":        true,
	"buenos dias":   true,
	"buenos días":   true,
	"buenas tardes": true,
	"buenas noches": true,
	"gracias":       true,
	"muchas gracias": true,
	"chao":          true,
	"adios":         true,
	"adiós":         true,
	"hello":         true,
	"hi":            true,
	"hey":           true,
	"thanks":        true,
	"thank you":     true,
	"bye":           true,
}

// continuationWords are prepositions/articles that, as the last word of a
// fragment, signal the sentence continues into the next fragment
// ("necesito una cita con" + "el cardiólogo").
var continuationWords = map[string]bool{
	"de": true, "del": true, "en": true, "a": true, "al": true,
	"la": true, "el": true, "los": true, "las": true,
	"un": true, "una": true, "unos": true, "unas": true,
	"para": true, "por": true, "con": true, "y": true, "o": true, "que": true,
	"the": true, "an": true, "of": true, "in": true, "to": true,
	"for": true, "and": true, "or": true, "with": true,
}

// Combine merges an ordered list of message fragments into one turn string.
// A single fragment is returned unchanged. Otherwise fragments are walked in
// arrival order: standalone greeting/closing tokens close any running clause
// and stand alone; a fragment ending in a continuation word keeps the
// running clause open into the next fragment. Clauses are then joined with
// single spaces, so the result is always the fragments space-joined in
// arrival order — nothing dropped, nothing deduplicated, nothing reordered.
func Combine(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	if len(fragments) == 1 {
		return fragments[0]
	}

	var clauses []string
	var run []string
	closeRun := func() {
		if len(run) > 0 {
			clauses = append(clauses, strings.Join(run, " "))
			run = run[:0]
		}
	}

	for _, frag := range fragments {
		if isStandaloneToken(frag) {
			closeRun()
			clauses = append(clauses, frag)
			continue
		}

		run = append(run, frag)
		if !continuesForward(frag) {
			closeRun()
		}
	}
	closeRun()

	return strings.Join(clauses, " ")
}

// isStandaloneToken reports whether the fragment is a bare greeting/closing.
func isStandaloneToken(frag string) bool {
	norm := strings.ToLower(strings.TrimSpace(frag))
	norm = strings.TrimRight(norm, "!?.,;")
	norm = strings.TrimSpace(norm)
	return standaloneTokens[norm]
}

// continuesForward reports whether the fragment's last word is a
// preposition/article from the closed continuation list. Fragments ending in
// punctuation never continue.
func continuesForward(frag string) bool {
	trimmed := strings.TrimSpace(frag)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ',', ';', ':':
		return false
	}
	words := strings.Fields(strings.ToLower(trimmed))
	return len(words) > 0 && continuationWords[words[len(words)-1]]
}
