package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestBuildSectionsIncludesBudgetedProviderSections(t *testing.T) {
	profile := models.StudentProfile{ID: "s1", Major: "CS", Completed: []models.CourseCode{"CS 1110"}}
	history := []models.Message{{Role: models.RoleUser, Content: "what should I take next?"}}
	sources := map[models.ContextSourceKind]*models.ContextSource{
		models.ContextKindGraphAnalysis: {Kind: models.ContextKindGraphAnalysis, Data: map[string]any{"page_rank": []any{}}, Confidence: 0.9},
		models.ContextKindScheduleFit:   {Kind: models.ContextKindScheduleFit, Data: map[string]any{"fit_score": 80}, Confidence: 0.8},
	}

	sections := buildSections(profile, history, sources)

	names := make(map[string]bool)
	for _, s := range sections {
		names[s.Name] = true
	}
	assert.True(t, names["system_template"])
	assert.True(t, names["student_profile"])
	assert.True(t, names["conversation_history"])
	assert.True(t, names["graph_analysis"])

	for _, s := range sections {
		if s.Name == "conversation_history" {
			assert.Contains(t, s.Text, "fit_score")
		}
	}
}

func TestFormatProfileIncludesCourseLists(t *testing.T) {
	profile := models.StudentProfile{
		Major:     "CS",
		Completed: []models.CourseCode{"CS 1110", "CS 2110"},
		Current:   []models.CourseCode{"CS 3110"},
	}
	text := formatProfile(profile)
	assert.Contains(t, text, "CS 1110, CS 2110")
	assert.Contains(t, text, "CS 3110")
}

func TestFormatHistoryEmptyWhenNoMessages(t *testing.T) {
	assert.Equal(t, "", formatHistory(nil))
}

func TestJoinCourseCodesHandlesEmpty(t *testing.T) {
	assert.Equal(t, "(none)", joinCourseCodes(nil))
}
