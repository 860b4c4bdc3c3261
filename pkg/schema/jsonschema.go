package schema

// ResponseSchema is the compile-time JSON Schema descriptor for
// ChatAdvisorResponse, embedded as a literal rather than produced by runtime
// reflection () so the re-ask prompt is reproducible across builds.
const ResponseSchema = `{
  "type": "object",
  "required": ["recommendations", "constraints", "next_actions", "provenance"],
  "properties": {
    "recommendations": {
      "type": "array",
      "minItems": 1,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["course_code", "title", "rationale", "priority", "next_action"],
        "properties": {
          "course_code": {"type": "string", "pattern": "^[A-Z]{2,4} [0-9]{4}[A-Z]?$"},
          "title": {"type": "string"},
          "rationale": {"type": "string"},
          "priority": {"type": "integer", "minimum": 1, "maximum": 5},
          "next_action": {"type": "string", "enum": ["add_to_plan", "check_prereqs", "consider_alternative", "waitlist_monitor"]},
          "difficulty_warning": {"type": "string"},
          "source": {"type": "string"}
        }
      }
    },
    "constraints": {"type": "array", "items": {"type": "string"}},
    "next_actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string"},
          "course_code": {"type": "string"}
        }
      }
    },
    "notes": {"type": "string", "maxLength": 1000},
    "provenance": {"type": "array", "items": {"type": "string"}}
  }
}`
