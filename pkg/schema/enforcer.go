package schema

import (
	"regexp"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// Outcome is the staged result of one enforcement pass (exceptions for
// control flow are replaced with a typed result value here).
type Outcome int

const (
	// OutcomeOK means raw decoded, validated, and sanitized cleanly.
	OutcomeOK Outcome = iota
	// OutcomeRepairNeeded means the first attempt failed; the orchestrator
	// should re-ask once using RepairPrompt.
	OutcomeRepairNeeded
	// OutcomeFail means a second attempt also failed; the orchestrator must
	// fall back to RegexFallback.
	OutcomeFail
)

// Result is what one call to Enforcer.Enforce returns.
type Result struct {
	Outcome      Outcome
	Response     *models.ChatAdvisorResponse // set iff Outcome == OutcomeOK
	RepairPrompt string                      // set iff Outcome == OutcomeRepairNeeded
	Err          error                       // set iff Outcome != OutcomeOK
}

// Enforcer runs the extract -> repair -> validate -> sanitize pipeline and
// tracks pass/fail/fallback counters.
type Enforcer struct {
	recorder Recorder
}

// NewEnforcer returns an Enforcer. A nil recorder is replaced with a no-op.
func NewEnforcer(recorder Recorder) *Enforcer {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Enforcer{recorder: recorder}
}

// Enforce runs one enforcement pass over rawOutput. attempt distinguishes
// the first pass (failures are recoverable via re-ask) from the second
// (failures require the regex fallback); it must be 1 or 2.
func (e *Enforcer) Enforce(rawOutput, originalPrompt string, attempt int) Result {
	start := time.Now()
	defer func() { e.recorder.JSONEnforceDuration(time.Since(start)) }()

	candidate := Extract(rawOutput)
	repaired := Repair(candidate)

	resp, err := Validate(repaired)
	if err != nil {
		if attempt <= 1 {
			return Result{
				Outcome:      OutcomeRepairNeeded,
				RepairPrompt: BuildRepairPrompt(originalPrompt),
				Err:          err,
			}
		}
		e.recorder.JSONFail()
		return Result{Outcome: OutcomeFail, Err: err}
	}

	sanitized := Sanitize(*resp)
	if attempt <= 1 {
		e.recorder.JSONPass()
	} else {
		e.recorder.JSONRetryPass()
	}
	return Result{Outcome: OutcomeOK, Response: &sanitized}
}

// BuildRepairPrompt builds the single re-ask prompt appended to the original
// prompt, instructing the model to emit only a schema-conformant JSON object.
func BuildRepairPrompt(originalPrompt string) string {
	return originalPrompt +
		"\n\nNow output ONLY a JSON object that conforms to this schema. " +
		"No prose, no code fences.\nSCHEMA:\n" + ResponseSchema
}

var fallbackCodePattern = regexp.MustCompile(`[A-Z]{2,4} [0-9]{4}`)

const maxFallbackRecommendations = 3

// RegexFallback extracts up to three course codes from rawOutput and builds
// synthetic, low-confidence recommendations. It exists only to keep the UI
// responsive after two strict-JSON failures () and always records a
// fallback metric; callers must stamp validation_passed=false alongside it.
func (e *Enforcer) RegexFallback(rawOutput string) models.ChatAdvisorResponse {
	e.recorder.JSONFallback()

	matches := fallbackCodePattern.FindAllString(rawOutput, maxFallbackRecommendations)
	recs := make([]models.Recommendation, 0, len(matches))
	for i, code := range matches {
		recs = append(recs, models.Recommendation{
			CourseCode: models.CourseCode(code),
			Title:      code,
			Rationale:  "Extracted from an unstructured response after repeated JSON enforcement failures.",
			Priority:   i + 1,
			NextAction: models.NextActionCheckPrereqs,
		})
	}

	return models.ChatAdvisorResponse{
		Recommendations: recs,
		Constraints:     []string{"response required regex fallback; treat with low confidence"},
		NextActions:     []models.NextAction{{Type: "check_prereqs"}},
		Provenance:      []string{"schema:regex_fallback"},
	}
}
