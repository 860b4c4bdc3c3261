package context

import (
	gocontext "context"
	"fmt"
	"strings"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/degreeprogress"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const maxUnmetSummarized = 5

// DegreeProgressProvider wraps degreeprogress.Store as a Provider, per
// the DegreeProgressContext: summarizes up to 5 unmet requirements into a
// short text block with provenance {source: graph, as_of}.
type DegreeProgressProvider struct {
	store *degreeprogress.Store
}

// NewDegreeProgressProvider returns a DegreeProgressProvider over store.
func NewDegreeProgressProvider(store *degreeprogress.Store) *DegreeProgressProvider {
	return &DegreeProgressProvider{store: store}
}

func (p *DegreeProgressProvider) Kind() models.ContextSourceKind {
	return models.ContextKindDegreeProgress
}

func (p *DegreeProgressProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	if profile.Major == "" {
		return &models.ContextSource{
			Kind:             models.ContextKindDegreeProgress,
			Data:             map[string]any{"unmet": []models.UnmetReq{}, "summary": ""},
			ProcessingTimeMs: elapsedMs(start),
			SourceTag:        "degree_progress:v1",
		}, nil
	}

	unmet, err := p.store.Get(ctx, profile.ID, profile.Major, profile.Completed)
	if err != nil {
		return nil, err
	}

	top := unmet
	if len(top) > maxUnmetSummarized {
		top = top[:maxUnmetSummarized]
	}
	summary := summarizeUnmet(top)

	return &models.ContextSource{
		Kind:             models.ContextKindDegreeProgress,
		Data:             map[string]any{"unmet": unmet, "summary": summary},
		Confidence:       0.9,
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "degree_progress:v1",
	}, nil
}

func summarizeUnmet(unmet []models.UnmetReq) string {
	if len(unmet) == 0 {
		return "All tracked degree requirements are satisfied."
	}
	parts := make([]string, 0, len(unmet))
	for _, u := range unmet {
		switch {
		case u.CreditGap > 0:
			parts = append(parts, fmt.Sprintf("%s needs %.0f more credits (e.g. %s)", u.Summary, u.CreditGap, joinCodes(u.CoursesToSatisfy)))
		case u.CountGap > 0:
			parts = append(parts, fmt.Sprintf("%s needs %d more course(s) (e.g. %s)", u.Summary, u.CountGap, joinCodes(u.CoursesToSatisfy)))
		default:
			parts = append(parts, u.Summary)
		}
	}
	return strings.Join(parts, "; ")
}

func joinCodes(codes []models.CourseCode) string {
	strs := make([]string, len(codes))
	for i, c := range codes {
		strs[i] = string(c)
	}
	return strings.Join(strs, ", ")
}
