// Package context implements the nine Context Providers: bounded
// fetch functions that turn a chat message and student profile into a
// structured ContextSource, fanned out and joined by Manager under
// per-provider deadlines.
package context

import (
	"context"
	"regexp"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// courseCodePattern extracts candidate course mentions from free text:
// subject letters optionally separated from the course number by a space.
var courseCodePattern = regexp.MustCompile(`([A-Z]{2,6}) ?([0-9]{3,4})`)

// ExtractCourseCodes returns every normalized course code mentioned in text,
// in order of first appearance, deduplicated.
func ExtractCourseCodes(text string) []models.CourseCode {
	matches := courseCodePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[models.CourseCode]bool, len(matches))
	var out []models.CourseCode
	for _, m := range matches {
		code := models.NormalizeCourseCode(m[1] + " " + m[2])
		if !code.Valid() || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// fallbackCourseCodes returns message-extracted codes, or if none were
// found, the profile's planned then current courses, capped at cap.
func fallbackCourseCodes(message string, profile models.StudentProfile, cap int) []models.CourseCode {
	codes := ExtractCourseCodes(message)
	if len(codes) == 0 {
		codes = append(codes, profile.Planned...)
		codes = append(codes, profile.Current...)
	}
	if len(codes) > cap {
		codes = codes[:cap]
	}
	return codes
}

// DefaultProviderDeadline is the per-provider wall-clock budget.
const DefaultProviderDeadline = 150 * time.Millisecond

// Provider is the shared shape every context provider implements: fetch
// produces a ContextSource or an error, and Kind names which slot in the
// prompt it fills.
type Provider interface {
	Kind() models.ContextSourceKind
	Fetch(ctx context.Context, message string, profile models.StudentProfile) (*models.ContextSource, error)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
