package schema

import (
	"regexp"
	"strings"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const (
	maxRecommendations = 5
	maxNotesLength     = 1000
)

var sanitizedCodePattern = regexp.MustCompile(`^([A-Z]{2,4}) ([0-9]{4}[A-Z]?)$`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// Sanitize normalizes a validated ChatAdvisorResponse: course codes are
// collapsed and upcased, entries with an unparseable code are dropped,
// duplicates are removed (first occurrence wins), the list is capped at
// maxRecommendations, priorities are reassigned 1..n, and notes are
// truncated. Sanitize never fails; when every recommendation is dropped, the
// result carries an empty recommendations list.
func Sanitize(resp models.ChatAdvisorResponse) models.ChatAdvisorResponse {
	seen := make(map[models.CourseCode]bool, len(resp.Recommendations))
	var kept []models.Recommendation

	for _, rec := range resp.Recommendations {
		code := normalizeSanitizedCode(string(rec.CourseCode))
		if code == "" {
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true

		rec.CourseCode = code
		kept = append(kept, rec)
		if len(kept) == maxRecommendations {
			break
		}
	}

	for i := range kept {
		kept[i].Priority = i + 1
	}

	resp.Recommendations = kept
	if len(resp.Notes) > maxNotesLength {
		resp.Notes = resp.Notes[:maxNotesLength]
	}
	return resp
}

// normalizeSanitizedCode collapses whitespace, upcases, and enforces the
// stricter sanitize-time pattern (4-digit level only); codes that don't
// match after normalization are dropped rather than forced through.
func normalizeSanitizedCode(raw string) models.CourseCode {
	collapsed := strings.ToUpper(whitespacePattern.ReplaceAllString(strings.TrimSpace(raw), " "))
	if !sanitizedCodePattern.MatchString(collapsed) {
		return ""
	}
	return models.CourseCode(collapsed)
}
