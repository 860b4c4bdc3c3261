package context

import (
	gocontext "context"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schedulefit"
)

const defaultScheduleFitLimit = 3

// ScheduleFitProvider wraps schedulefit as a Provider's
// ScheduleFitContext: candidate codes come from the message, falling back to
// the student's planned courses.
type ScheduleFitProvider struct {
	roster *schedulefit.Roster
	term   string
	cfg    schedulefit.Config
}

// NewScheduleFitProvider returns a ScheduleFitProvider over roster, ranking
// candidates for term under cfg.
func NewScheduleFitProvider(roster *schedulefit.Roster, term string, cfg schedulefit.Config) *ScheduleFitProvider {
	return &ScheduleFitProvider{roster: roster, term: term, cfg: cfg}
}

func (p *ScheduleFitProvider) Kind() models.ContextSourceKind { return models.ContextKindScheduleFit }

func (p *ScheduleFitProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	codes := ExtractCourseCodes(message)
	if len(codes) == 0 {
		codes = profile.Planned
	}
	if len(codes) == 0 {
		return &models.ContextSource{
			Kind:             models.ContextKindScheduleFit,
			Data:             map[string]any{"schedules": []schedulefit.RankedSchedule{}},
			ProcessingTimeMs: elapsedMs(start),
			SourceTag:        "schedule_fit:v1",
		}, nil
	}

	candidates, err := p.roster.BundlesForAll(ctx, p.term, codes)
	if err != nil {
		return nil, err
	}

	prefs := schedulefit.PreferencesFromMap(profile.Preferences)
	ranked := schedulefit.RankSchedules(ctx, candidates, codes, prefs, defaultScheduleFitLimit, p.cfg)

	confidence := 0.0
	if len(ranked) > 0 {
		confidence = float64(ranked[0].FitScore) / 100.0
	}

	return &models.ContextSource{
		Kind:             models.ContextKindScheduleFit,
		Data:             map[string]any{"schedules": ranked},
		Confidence:       confidence,
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "schedule_fit:v1",
	}, nil
}
