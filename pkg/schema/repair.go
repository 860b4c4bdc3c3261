package schema

import (
	"regexp"
	"strings"
)

// trailingCommaPattern matches a comma followed by optional whitespace and a
// closing brace or bracket.
var trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)

var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// Repair applies conservative, idempotent fixes to a JSON candidate string:
// normalizing smart quotes to ASCII, stripping enclosing backticks, removing
// trailing commas before '}' or ']', and — only when the string contains no
// double quote at all — swapping single quotes for double quotes.
//
// Repair(Repair(x)) == Repair(x) for all inputs: each step either produces no
// further change on a second pass or is gated on a precondition (the absence
// of '"') that the first pass's output already violates once applied.
func Repair(s string) string {
	s = smartQuoteReplacer.Replace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")

	if !strings.Contains(s, `"`) && strings.Contains(s, "'") {
		s = strings.ReplaceAll(s, "'", `"`)
	}

	return s
}
