package context

import (
	gocontext "context"
	"fmt"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tagcache"
)

const (
	maxEnrollmentCourses = 3
	enrollmentTTL        = time.Hour
)

// EnrollmentEstimate is the heuristic enrollment-demand record for one course.
type EnrollmentEstimate struct {
	CourseCode          models.CourseCode `json:"course_code"`
	Capacity            int               `json:"capacity"`
	HistoricalFillHours float64           `json:"historical_fill_hours"`
	WaitlistProbability float64           `json:"waitlist_prob"`
	RiskLevel           string            `json:"risk_level"`
	Advice              string            `json:"advice"`
}

// EnrollmentProvider derives a deterministic demand heuristic per course from
// its level (the subject is not used), cached under tag "enrollment".
type EnrollmentProvider struct {
	cache *tagcache.Cache
}

// NewEnrollmentProvider returns an EnrollmentProvider backed by cache.
func NewEnrollmentProvider(cache *tagcache.Cache) *EnrollmentProvider {
	return &EnrollmentProvider{cache: cache}
}

func (p *EnrollmentProvider) Kind() models.ContextSourceKind { return models.ContextKindEnrollmentData }

func (p *EnrollmentProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	codes := fallbackCourseCodes(message, profile, maxEnrollmentCourses)

	cacheHit := true
	estimates := make([]EnrollmentEstimate, 0, len(codes))
	for _, code := range codes {
		value, hit, err := p.cache.GetOrSet(ctx, "enrollment", map[string]any{"course_code": string(code)}, enrollmentTTL, func(ctx gocontext.Context) (any, error) {
			return estimateEnrollment(code), nil
		})
		if err != nil {
			continue
		}
		cacheHit = cacheHit && hit
		if est, ok := decodeEstimate(value); ok {
			estimates = append(estimates, est)
		}
	}

	return &models.ContextSource{
		Kind:             models.ContextKindEnrollmentData,
		Data:             map[string]any{"enrollment": estimates},
		Confidence:       0.4,
		ProcessingTimeMs: elapsedMs(start),
		CacheHit:         cacheHit && len(estimates) > 0,
		SourceTag:        "enrollment:v1",
	}, nil
}

// estimateEnrollment derives a stable demand estimate from a course's
// level alone: lower-level courses get a larger capacity, a higher waitlist
// probability, and a higher risk level.
func estimateEnrollment(code models.CourseCode) EnrollmentEstimate {
	level := code.Level()
	capacity := 120 - (level/1000)*15
	if capacity < 15 {
		capacity = 15
	}

	fillHours := 4.0 + float64(level%1000)/500.0
	waitlistProb := 0.1
	riskLevel := "low"
	switch {
	case level < 2000:
		waitlistProb = 0.55
		riskLevel = "high"
	case level < 3000:
		waitlistProb = 0.35
		riskLevel = "moderate"
	case level < 5000:
		waitlistProb = 0.15
		riskLevel = "low"
	default:
		waitlistProb = 0.05
		riskLevel = "low"
	}

	return EnrollmentEstimate{
		CourseCode:          code,
		Capacity:            capacity,
		HistoricalFillHours: fillHours,
		WaitlistProbability: waitlistProb,
		RiskLevel:           riskLevel,
		Advice:              fmt.Sprintf("register promptly; historically fills within %.1fh", fillHours),
	}
}

func decodeEstimate(value any) (EnrollmentEstimate, bool) {
	if est, ok := value.(EnrollmentEstimate); ok {
		return est, true
	}
	m, ok := value.(map[string]any)
	if !ok {
		return EnrollmentEstimate{}, false
	}
	est := EnrollmentEstimate{}
	if v, ok := m["course_code"].(string); ok {
		est.CourseCode = models.CourseCode(v)
	}
	if v, ok := m["capacity"].(float64); ok {
		est.Capacity = int(v)
	}
	if v, ok := m["historical_fill_hours"].(float64); ok {
		est.HistoricalFillHours = v
	}
	if v, ok := m["waitlist_prob"].(float64); ok {
		est.WaitlistProbability = v
	}
	if v, ok := m["risk_level"].(string); ok {
		est.RiskLevel = v
	}
	if v, ok := m["advice"].(string); ok {
		est.Advice = v
	}
	return est, true
}
