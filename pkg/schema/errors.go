// Package schema implements the SchemaEnforcer: balanced-brace
// JSON extraction, idempotent repair, schema validation, sanitization, and a
// single re-ask prompt builder around the ChatAdvisorResponse envelope.
package schema

import "fmt"

// Stage names where JSON enforcement failed.
type Stage string

const (
	StageJSONDecode     Stage = "json_decode"
	StageSchemaValidate Stage = "schema_validate"
)

// JSONEnforceError is raised when an LLM response cannot be decoded or does
// not conform to ChatAdvisorResponse after repair.
type JSONEnforceError struct {
	Stage  Stage
	Detail string
}

func (e *JSONEnforceError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Stage, e.Detail)
}
