package context

import (
	gocontext "context"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/gradesdata"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const maxDifficultyCourses = 3

// DifficultyRecord is one course's difficulty estimate, backed by real grade
// data when available or a level-based heuristic otherwise.
type DifficultyRecord struct {
	CourseCode models.CourseCode `json:"course_code"`
	Score      float64           `json:"score"` // 0-100, higher is harder
	Basis      string            `json:"basis"` // "grades" | "heuristic"
}

// DifficultyProvider wraps gradesdata.Store as a Provider, falling back to a
// deterministic heuristic from the course level when no real grade data
// exists; the heuristic does not use the subject.
type DifficultyProvider struct {
	store *gradesdata.Store
}

// NewDifficultyProvider returns a DifficultyProvider over store.
func NewDifficultyProvider(store *gradesdata.Store) *DifficultyProvider {
	return &DifficultyProvider{store: store}
}

func (p *DifficultyProvider) Kind() models.ContextSourceKind { return models.ContextKindDifficultyData }

func (p *DifficultyProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	codes := fallbackCourseCodes(message, profile, maxDifficultyCourses)

	records := make([]DifficultyRecord, 0, len(codes))
	for _, code := range codes {
		if stats, err := p.store.Get(ctx, code); err == nil {
			records = append(records, DifficultyRecord{
				CourseCode: code,
				Score:      stats.DifficultyPercentile,
				Basis:      "grades",
			})
			continue
		}
		records = append(records, heuristicDifficulty(code))
	}

	return &models.ContextSource{
		Kind:             models.ContextKindDifficultyData,
		Data:             map[string]any{"difficulty": records},
		Confidence:       0.5,
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "difficulty:v1",
	}, nil
}

// heuristicDifficulty derives a difficulty score from a course's numeric
// level alone, since level is a reasonable proxy for rigor absent grade
// history: 1000-level courses score low, 6000+ score near the ceiling.
func heuristicDifficulty(code models.CourseCode) DifficultyRecord {
	level := code.Level()
	score := float64(level) / 60.0
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return DifficultyRecord{CourseCode: code, Score: score, Basis: "heuristic"}
}
