package context

import (
	gocontext "context"
	"fmt"
	"strings"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schedulefit"
)

const maxConflictCourses = 6

// ConflictProvider checks a mentioned course set for pairwise time overlaps,
// using the first section bundle the roster returns for each course in the
// current term; the course's other candidate sections are not considered.
type ConflictProvider struct {
	roster *schedulefit.Roster
	term   string
}

// NewConflictProvider returns a ConflictProvider over roster.
func NewConflictProvider(roster *schedulefit.Roster, term string) *ConflictProvider {
	return &ConflictProvider{roster: roster, term: term}
}

func (p *ConflictProvider) Kind() models.ContextSourceKind {
	return models.ContextKindConflictDetection
}

func (p *ConflictProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	codes := ExtractCourseCodes(message)
	if len(codes) == 0 {
		codes = profile.Current
	}
	if len(codes) > maxConflictCourses {
		codes = codes[:maxConflictCourses]
	}
	if len(codes) < 2 {
		return &models.ContextSource{
			Kind:             models.ContextKindConflictDetection,
			Data:             map[string]any{"conflicts": []string{}, "backup_plans": []string{}, "summary_text": "No overlapping courses mentioned."},
			ProcessingTimeMs: elapsedMs(start),
			SourceTag:        "conflict:v1",
		}, nil
	}

	var bundles []models.SectionBundle
	for _, code := range codes {
		sections, err := p.roster.BundlesFor(ctx, p.term, code)
		if err != nil || len(sections) == 0 {
			continue
		}
		bundles = append(bundles, sections[0])
	}

	conflicts := schedulefit.ConflictPairs(bundles)
	backupPlans := backupPlansFor(conflicts)
	summary := summarizeConflicts(conflicts)

	return &models.ContextSource{
		Kind:             models.ContextKindConflictDetection,
		Data:             map[string]any{"conflicts": conflicts, "backup_plans": backupPlans, "summary_text": summary},
		Confidence:       confidenceFromConflicts(conflicts),
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "conflict:v1",
	}, nil
}

func summarizeConflicts(conflicts []string) string {
	if len(conflicts) == 0 {
		return "No time conflicts detected among the mentioned courses."
	}
	return fmt.Sprintf("Detected %d time conflict(s): %s", len(conflicts), strings.Join(conflicts, "; "))
}

func backupPlansFor(conflicts []string) []string {
	plans := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		plans = append(plans, fmt.Sprintf("consider an alternate section for one course in %s", c))
	}
	return plans
}

func confidenceFromConflicts(conflicts []string) float64 {
	if len(conflicts) == 0 {
		return 0.9
	}
	return 1.0
}
