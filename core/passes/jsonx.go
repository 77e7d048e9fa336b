package passes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first JSON object out of an LLM reply. Models are
// instructed to answer with bare JSON but routinely wrap it in markdown
// fences or lead with prose; both are handled.
func ExtractJSON(reply string) (json.RawMessage, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("extract json: empty reply")
	}

	if fenced, ok := stripFence(reply); ok {
		reply = fenced
	}

	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return nil, fmt.Errorf("extract json: no object in reply")
	}

	candidate := reply[start:]
	if end := matchBraces(candidate); end > 0 {
		candidate = candidate[:end]
	}

	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("extract json: invalid object")
	}
	return json.RawMessage(candidate), nil
}

// stripFence returns the body of the first ``` fence, tolerating a language
// tag on the opening line.
func stripFence(reply string) (string, bool) {
	open := strings.Index(reply, "```")
	if open < 0 {
		return "", false
	}
	rest := reply[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip the language tag line ("json", "JSON", or empty).
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || len(firstLine) <= 8 && !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}
	if closing := strings.Index(rest, "```"); closing >= 0 {
		rest = rest[:closing]
	}
	return strings.TrimSpace(rest), true
}

// matchBraces returns the index just past the brace that closes the object
// opening at position 0, accounting for strings and escapes. Returns -1 when
// unbalanced.
func matchBraces(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}
