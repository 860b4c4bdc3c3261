package schema

import "strings"

// Extract finds the most likely JSON object in an LLM response, trying in
// order: (1) a fenced ```json or ``` code block, (2) a balanced-brace scan
// from the first '{' that tracks string literals and escapes, (3) the raw
// text itself.
func Extract(raw string) string {
	if block, ok := extractFenced(raw); ok {
		return block
	}
	if block, ok := extractBalancedBraces(raw); ok {
		return block
	}
	return raw
}

// extractFenced pulls the content of the first ```json or ``` fenced block.
func extractFenced(raw string) (string, bool) {
	const fence = "```"
	start := strings.Index(raw, fence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(fence):]
	// Skip an optional language tag ("json") up to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "json" || tag == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	content := strings.TrimSpace(rest[:end])
	if content == "" {
		return "", false
	}
	return content, true
}

// extractBalancedBraces scans from the first '{' and returns the shortest
// substring whose braces balance, correctly skipping braces that appear
// inside string literals (including escaped quotes).
func extractBalancedBraces(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
