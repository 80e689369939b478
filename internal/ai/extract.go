package ai

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSON means the response text holds no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON returns the first balanced, valid JSON object embedded in text.
// Code fences and surrounding prose are ignored. If no balanced span parses,
// the text between the first '{' and the last '}' is tried as a last resort.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > 0 {
			candidate := text[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first, last := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}')
	if first >= 0 && last > first && gjson.Valid(text[first:last+1]) {
		return text[first : last+1], nil
	}
	return "", ErrNoJSON
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
// Braces inside string literals are skipped.
func matchBrace(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
