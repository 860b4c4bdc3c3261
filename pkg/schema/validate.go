package schema

import (
	"encoding/json"
	"fmt"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

var validNextActions = map[models.NextActionType]bool{
	models.NextActionAddToPlan:           true,
	models.NextActionCheckPrereqs:        true,
	models.NextActionConsiderAlternative: true,
	models.NextActionWaitlistMonitor:     true,
}

// Validate decodes raw into a ChatAdvisorResponse and checks it has the
// shape the envelope requires: at least one recommendation, each with a
// non-empty course code and, when next_action is set, a recognized one.
func Validate(raw string) (*models.ChatAdvisorResponse, error) {
	var resp models.ChatAdvisorResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &JSONEnforceError{Stage: StageJSONDecode, Detail: err.Error()}
	}

	if err := validateShape(resp); err != nil {
		return nil, &JSONEnforceError{Stage: StageSchemaValidate, Detail: err.Error()}
	}

	return &resp, nil
}

func validateShape(resp models.ChatAdvisorResponse) error {
	if len(resp.Recommendations) == 0 {
		return fmt.Errorf("recommendations must be non-empty")
	}
	for i, rec := range resp.Recommendations {
		if rec.CourseCode == "" {
			return fmt.Errorf("recommendations[%d].course_code is required", i)
		}
		if rec.NextAction != "" && !validNextActions[rec.NextAction] {
			return fmt.Errorf("recommendations[%d].next_action %q is not a recognized action", i, rec.NextAction)
		}
	}
	return nil
}
