package ai

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be found in a response.
var ErrNoJSON = errors.New("ai: no JSON object in response")

// FirstJSONObject extracts the first balanced {...} block from text.
// Models routinely wrap JSON in prose or markdown fences, so we scan for
// the object instead of unmarshalling the whole reply.
func FirstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
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
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}
