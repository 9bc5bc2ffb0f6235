package extraction

import (
	"encoding/json"
	"strings"
	"unicode"
)

const fence = "```"

// parseCodeBlock pulls JSON out of model output. The last fenced block wins,
// with any language tag after the opening fence dropped. Without a complete
// fenced block the whole text is tried. ok is false when nothing parses.
func parseCodeBlock(text string) (json.RawMessage, bool) {
	end := strings.LastIndex(text, fence)
	start := -1
	if end > 0 {
		start = strings.LastIndex(text[:end], fence)
	}

	if start >= 0 {
		inner := stripLanguageTag(text[start+len(fence) : end])
		return validJSON(inner)
	}

	return validJSON(text)
}

// stripLanguageTag removes a word such as "json" that directly follows the
// opening fence.
func stripLanguageTag(block string) string {
	trimmed := strings.TrimLeft(block, " \t")
	tagEnd := strings.IndexFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
	if tagEnd <= 0 {
		return block
	}
	if next := rune(trimmed[tagEnd]); next == '{' || next == '[' || unicode.IsSpace(next) {
		return trimmed[tagEnd:]
	}
	return block
}

func validJSON(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}
