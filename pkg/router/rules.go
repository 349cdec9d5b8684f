package router

import "strings"

// Rule maps a predicate over lowercased input text to a handler id. Rules are
// static configuration, evaluated top to bottom; the first match wins, so
// authors must place more specific predicates before general ones.
type Rule struct {
	Match     func(lower string) bool
	HandlerID string
}

// Contains matches when any of the words appears in the input.
func Contains(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

// All matches when every word appears in the input.
func All(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if !strings.Contains(lower, w) {
				return false
			}
		}
		return true
	}
}

// Any combines predicates with OR.
func Any(preds ...func(string) bool) func(string) bool {
	return func(lower string) bool {
		for _, p := range preds {
			if p(lower) {
				return true
			}
		}
		return false
	}
}

// Handler ids used by the default rule set.
const (
	HandlerSpreadsheet = "spreadsheet"
	HandlerVoice       = "voice"
	HandlerCalendar    = "calendar"
	HandlerFallback    = "fallback"
)

// DefaultRules is the reference keyword routing. The spreadsheet rule sits
// above the rest so "analyze this csv document" never lands elsewhere.
func DefaultRules() []Rule {
	return []Rule{
		{Match: Contains("csv"), HandlerID: HandlerSpreadsheet},
		{Match: Contains("transcribe", "audio"), HandlerID: HandlerVoice},
		{Match: Any(Contains("calendar"), All("schedule", "meeting")), HandlerID: HandlerCalendar},
	}
}
