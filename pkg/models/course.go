// Package models holds the plain data entities shared across the advisor
// backend: courses, profiles, conversation state, and the enforced chat
// response envelope.
package models

import (
	"regexp"
	"strconv"
	"strings"
)

var courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4} [0-9]{3,4}[A-Z]?$`)

// CourseCode is a canonical "SUBJ NNNN" course identifier, e.g. "CS 3110".
type CourseCode string

// NormalizeCourseCode collapses whitespace and upcases a raw course code,
// matching the sanitize step SchemaEnforcer applies to model output.
func NormalizeCourseCode(raw string) CourseCode {
	collapsed := strings.Join(strings.Fields(raw), " ")
	return CourseCode(strings.ToUpper(collapsed))
}

// Valid reports whether the code matches the canonical course-code shape.
func (c CourseCode) Valid() bool {
	return courseCodePattern.MatchString(string(c))
}

// Subject returns the subject prefix of the code, e.g. "CS" for "CS 3110".
// Derived from the canonical string, not stored separately.
func (c CourseCode) Subject() string {
	parts := strings.SplitN(string(c), " ", 2)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Level returns the course's numeric level (e.g. 3110), or 0 if unparsable.
func (c CourseCode) Level() int {
	parts := strings.SplitN(string(c), " ", 2)
	if len(parts) != 2 {
		return 0
	}
	digits := strings.TrimRightFunc(parts[1], func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// EdgeKind enumerates the kinds of prerequisite relationship between two courses.
type EdgeKind string

const (
	EdgeKindPrerequisite   EdgeKind = "PREREQUISITE"
	EdgeKindPrerequisiteOr EdgeKind = "PREREQUISITE_OR"
	EdgeKindCorequisite    EdgeKind = "COREQUISITE"
	EdgeKindRecommended    EdgeKind = "RECOMMENDED"
	EdgeKindUnsure         EdgeKind = "UNSURE"
)

// PrerequisiteEdge is a directed relationship between two courses in the
// prerequisite graph.
type PrerequisiteEdge struct {
	From       CourseCode `json:"from"`
	To         CourseCode `json:"to"`
	Kind       EdgeKind   `json:"kind"`
	Confidence float64    `json:"confidence"`
	Weight     float64    `json:"weight"`
}

// CourseGradesStats is the aggregated historical grade record for one course.
type CourseGradesStats struct {
	CourseCode           CourseCode         `json:"course_code"`
	Terms                []string           `json:"terms"`
	MeanGPA              float64            `json:"mean_gpa"`
	StdevGPA             float64            `json:"stdev_gpa"`
	PassRate             float64            `json:"pass_rate"`
	Histogram            map[string]float64 `json:"histogram"`
	EnrollmentCount      int                `json:"enrollment_count"`
	DifficultyPercentile float64            `json:"difficulty_percentile"`
	Provenance           *ProvenanceTag     `json:"provenance,omitempty"`
}

// SectionMeeting is one recurring meeting slot for a section.
type SectionMeeting struct {
	Days     []string `json:"days"` // subset of M,T,W,R,F,S,U
	StartMin int      `json:"start_min"`
	EndMin   int      `json:"end_min"`
}

// SectionBundle groups the meetings that make up one registerable section of a course.
type SectionBundle struct {
	BundleID   string           `json:"bundle_id"`
	CourseCode CourseCode       `json:"course_code"`
	Meetings   []SectionMeeting `json:"meetings"`
}
