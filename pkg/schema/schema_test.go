package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestExtractFencedJSON(t *testing.T) {
	raw := "here you go:\n```json\n{\"a\": 1}\n```\nthanks"
	assert.Equal(t, `{"a": 1}`, Extract(raw))
}

func TestExtractBalancedBracesSkipsBracesInStrings(t *testing.T) {
	raw := `prefix {"note": "contains a } brace"} suffix`
	got := Extract(raw)
	assert.Equal(t, `{"note": "contains a } brace"}`, got)
}

func TestExtractFallsBackToRawText(t *testing.T) {
	raw := "no json here"
	assert.Equal(t, raw, Extract(raw))
}

func TestRepairIsIdempotent(t *testing.T) {
	cases := []string{
		`{"a": 1,}`,
		"“smart quotes”",
		"```{\"a\": 1}```",
		`{'a': 1}`,
		`{"a": [1, 2,]}`,
	}
	for _, raw := range cases {
		once := Repair(raw)
		twice := Repair(once)
		assert.Equal(t, once, twice, "repair must be idempotent for %q", raw)
	}
}

func TestRepairRemovesTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a": [1, 2]}`, Repair(`{"a": [1, 2,]}`))
}

func TestRepairSwapsSingleQuotesOnlyWhenNoDoubleQuotes(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, Repair(`{'a': 1}`))
	assert.Equal(t, `{"a": 'literal'}`, Repair(`{"a": 'literal'}`))
}

func TestValidateRejectsEmptyRecommendations(t *testing.T) {
	_, err := Validate(`{"recommendations": [], "constraints": [], "next_actions": [], "provenance": []}`)
	require.Error(t, err)
	var jerr *JSONEnforceError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, StageSchemaValidate, jerr.Stage)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	_, err := Validate(`{recommendations: [`)
	require.Error(t, err)
	var jerr *JSONEnforceError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, StageJSONDecode, jerr.Stage)
}

func TestSanitizeDedupesAndCapsAndReprioritizes(t *testing.T) {
	resp, err := Validate(`{
		"recommendations": [
			{"course_code": "cs 3110", "title": "a", "rationale": "r", "priority": 9, "next_action": "add_to_plan"},
			{"course_code": "CS 3110", "title": "dup", "rationale": "r", "priority": 1, "next_action": "add_to_plan"},
			{"course_code": "math 2210", "title": "b", "rationale": "r", "priority": 2, "next_action": "check_prereqs"},
			{"course_code": "cs 4410", "title": "c", "rationale": "r", "priority": 3, "next_action": "check_prereqs"},
			{"course_code": "cs 4780", "title": "d", "rationale": "r", "priority": 4, "next_action": "check_prereqs"},
			{"course_code": "cs 3410", "title": "e", "rationale": "r", "priority": 5, "next_action": "check_prereqs"}
		],
		"constraints": [], "next_actions": [], "provenance": []
	}`)
	require.NoError(t, err)

	sanitized := Sanitize(*resp)
	require.Len(t, sanitized.Recommendations, 5)
	assert.Equal(t, "CS 3110", string(sanitized.Recommendations[0].CourseCode))
	for i, rec := range sanitized.Recommendations {
		assert.Equal(t, i+1, rec.Priority)
	}
}

func TestSanitizeDropsUnparseableCodes(t *testing.T) {
	resp := models.ChatAdvisorResponse{
		Recommendations: []models.Recommendation{
			{CourseCode: "not a code", Title: "t", Rationale: "r", Priority: 1, NextAction: models.NextActionAddToPlan},
		},
	}
	sanitized := Sanitize(resp)
	assert.Empty(t, sanitized.Recommendations)
}

func TestSanitizeTruncatesNotes(t *testing.T) {
	resp := models.ChatAdvisorResponse{
		Recommendations: []models.Recommendation{
			{CourseCode: "CS 3110", Title: "t", Rationale: "r", Priority: 1, NextAction: models.NextActionAddToPlan},
		},
	}
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	resp.Notes = string(long)
	sanitized := Sanitize(resp)
	assert.Len(t, sanitized.Notes, maxNotesLength)
}

func TestEnforceFirstAttemptFailureRequestsRepair(t *testing.T) {
	e := NewEnforcer(nil)
	result := e.Enforce("not json at all that also { has an unbalanced brace", "original prompt", 1)
	assert.Equal(t, OutcomeRepairNeeded, result.Outcome)
	assert.Contains(t, result.RepairPrompt, "original prompt")
	assert.Contains(t, result.RepairPrompt, "SCHEMA")
}

func TestEnforceSecondAttemptFailureIsTerminal(t *testing.T) {
	e := NewEnforcer(nil)
	result := e.Enforce("still not json", "original prompt", 2)
	assert.Equal(t, OutcomeFail, result.Outcome)
}

func TestEnforceValidJSONPasses(t *testing.T) {
	e := NewEnforcer(nil)
	raw := `{"recommendations":[{"course_code":"CS 3110","title":"t","rationale":"r","priority":1,"next_action":"add_to_plan"}],"constraints":[],"next_actions":[],"provenance":[]}`
	result := e.Enforce(raw, "prompt", 1)
	require.Equal(t, OutcomeOK, result.Outcome)
	require.NotNil(t, result.Response)
	assert.Equal(t, models.CourseCode("CS 3110"), result.Response.Recommendations[0].CourseCode)
}

func TestRegexFallbackStampsLowConfidence(t *testing.T) {
	e := NewEnforcer(nil)
	resp := e.RegexFallback("you should take CS 3110 and also MATH 2210, maybe CS 4410 too")
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, models.CourseCode("CS 3110"), resp.Recommendations[0].CourseCode)
	assert.Contains(t, resp.Provenance, "schema:regex_fallback")
}
