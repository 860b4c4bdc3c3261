package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schema"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tokenbudget"
)

// systemTemplate is the fixed instruction header every chat prompt carries.
// It names the response contract explicitly so the first-attempt pass rate
// stays high and the repair path is rarely needed.
const systemTemplate = `You are an academic advisor for undergraduate course planning.
Use only the context sections provided below; do not invent course codes,
grades, or professor names. Respond with a single JSON object matching
exactly this schema and nothing else — no prose, no markdown fences:
` + schema.ResponseSchema

// buildSections assembles the named, budgeted prompt sections from the
// student profile, conversation history, and whatever context sources the
// Manager fan-out returned, using each ContextSource's Kind to pick a
// section name.
func buildSections(profile models.StudentProfile, history []models.Message, sources map[models.ContextSourceKind]*models.ContextSource) []tokenbudget.Section {
	sections := []tokenbudget.Section{
		{Name: "system_template", Text: systemTemplate},
		{Name: "student_profile", Text: formatProfile(profile)},
		{Name: "conversation_history", Text: formatHistory(history)},
	}

	sectionNameByKind := map[models.ContextSourceKind]string{
		models.ContextKindGraphAnalysis:  "graph_analysis",
		models.ContextKindVectorSearch:   "vector_search",
		models.ContextKindProfessorIntel: "professor_intel",
		models.ContextKindDifficultyData: "difficulty_data",
		models.ContextKindEnrollmentData: "enrollment_data",
	}
	for kind, name := range sectionNameByKind {
		source, ok := sources[kind]
		if !ok || source == nil {
			continue
		}
		sections = append(sections, tokenbudget.Section{Name: name, Text: formatSource(kind, source)})
	}

	// Sources with no dedicated budgeted section (schedule_fit,
	// degree_progress, conflict_detection, grades_data) still inform the
	// model; fold them into conversation_history's text so they aren't
	// silently dropped, but don't grant them their own budget row.
	var extras []string
	for _, kind := range []models.ContextSourceKind{
		models.ContextKindScheduleFit,
		models.ContextKindDegreeProgress,
		models.ContextKindConflictDetection,
		models.ContextKindGradesData,
	} {
		if source, ok := sources[kind]; ok && source != nil {
			extras = append(extras, formatSource(kind, source))
		}
	}
	if len(extras) > 0 {
		for i, s := range sections {
			if s.Name == "conversation_history" {
				sections[i].Text = s.Text + "\n\n" + strings.Join(extras, "\n\n")
				break
			}
		}
	}

	return sections
}

func formatProfile(p models.StudentProfile) string {
	var sb strings.Builder
	sb.WriteString("STUDENT PROFILE\n")
	fmt.Fprintf(&sb, "major: %s | track: %s | year: %s\n", p.Major, p.Track, p.Year)
	fmt.Fprintf(&sb, "completed: %s\n", joinCourseCodes(p.Completed))
	fmt.Fprintf(&sb, "current: %s\n", joinCourseCodes(p.Current))
	fmt.Fprintf(&sb, "planned: %s\n", joinCourseCodes(p.Planned))
	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, "interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if p.GPA != nil {
		fmt.Fprintf(&sb, "gpa: %.2f\n", *p.GPA)
	}
	if p.RiskTolerance != "" {
		fmt.Fprintf(&sb, "risk_tolerance: %s\n", p.RiskTolerance)
	}
	return sb.String()
}

func formatHistory(history []models.Message) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("CONVERSATION HISTORY\n")
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return sb.String()
}

func formatSource(kind models.ContextSourceKind, source *models.ContextSource) string {
	payload, err := json.Marshal(source.Data)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("%s (confidence=%.2f, cache_hit=%v)\n%s", kind, source.Confidence, source.CacheHit, string(payload))
}

func joinCourseCodes(codes []models.CourseCode) string {
	if len(codes) == 0 {
		return "(none)"
	}
	strs := make([]string, len(codes))
	for i, c := range codes {
		strs[i] = string(c)
	}
	return strings.Join(strs, ", ")
}
