package api

import (
	"fmt"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// ChatHTTPRequest is the request body for POST /api/chat.
type ChatHTTPRequest struct {
	Message            string                 `json:"message"`
	ConversationID     string                 `json:"conversation_id,omitempty"`
	StudentProfile     *models.StudentProfile `json:"student_profile,omitempty"`
	ContextPreferences map[string]bool        `json:"context_preferences,omitempty"`
	MaxRecommendations int                    `json:"max_recommendations,omitempty"`
	Stream             bool                   `json:"stream,omitempty"`
}

// maxChatMessageLen bounds the chat message body.
const maxChatMessageLen = 500

// validate returns the field errors for a chat request; an empty slice means
// the request is acceptable.
func (r *ChatHTTPRequest) validate() []FieldError {
	var errs []FieldError
	if r.Message == "" {
		errs = append(errs, FieldError{Field: "message", Reason: "required"})
	}
	if len(r.Message) > maxChatMessageLen {
		errs = append(errs, FieldError{Field: "message", Reason: fmt.Sprintf("exceeds maximum length of %d characters", maxChatMessageLen)})
	}
	if r.MaxRecommendations < 0 || r.MaxRecommendations > 10 {
		errs = append(errs, FieldError{Field: "max_recommendations", Reason: "must be between 1 and 10"})
	}
	return errs
}

// contextPreferences converts the string-keyed preference map into typed
// context kinds, dropping unknown keys.
func (r *ChatHTTPRequest) contextPreferences() map[models.ContextSourceKind]bool {
	if len(r.ContextPreferences) == 0 {
		return nil
	}
	out := make(map[models.ContextSourceKind]bool, len(r.ContextPreferences))
	for k, v := range r.ContextPreferences {
		out[models.ContextSourceKind(k)] = v
	}
	return out
}

// ExplainHTTPRequest is the request body for POST /api/chat/explain.
type ExplainHTTPRequest struct {
	ConversationID      string `json:"conversation_id"`
	RecommendationIndex int    `json:"recommendation_index"`
	ExplanationType     string `json:"explanation_type,omitempty"`
}

// CentralityHTTPRequest is the request body for POST /api/centrality.
type CentralityHTTPRequest struct {
	TopN           int     `json:"top_n,omitempty"`
	DampingFactor  float64 `json:"damping_factor,omitempty"`
	MaxIterations  int     `json:"max_iterations,omitempty"`
	MinBetweenness float64 `json:"min_betweenness,omitempty"`
	MinInDegree    int     `json:"min_in_degree,omitempty"`
}

// CommunitiesHTTPRequest is the request body for POST /api/communities.
type CommunitiesHTTPRequest struct {
	IncludeDepartmentOverlap bool `json:"include_department_overlap,omitempty"`
}

// PathHTTPRequest is the request body for POST /api/shortest_path and
// POST /api/alternative_paths.
type PathHTTPRequest struct {
	FromCourse      string `json:"from_course"`
	ToCourse        string `json:"to_course"`
	NumAlternatives int    `json:"num_alternatives,omitempty"`
}

// PrerequisitePathHTTPRequest is the request body for POST /api/prerequisite_path
// and POST /api/graph/subgraph.
type PrerequisitePathHTTPRequest struct {
	CourseCode       string   `json:"course_code"`
	CompletedCourses []string `json:"completed_courses,omitempty"`
}

// SemesterPlanHTTPRequest is the request body for POST /api/semester_plan.
type SemesterPlanHTTPRequest struct {
	TargetCourses         []string `json:"target_courses"`
	CompletedCourses      []string `json:"completed_courses,omitempty"`
	Semesters             int      `json:"semesters,omitempty"`
	MaxCreditsPerSemester float64  `json:"max_credits_per_semester,omitempty"`
}

// RagWithGraphHTTPRequest is the request body for POST /api/rag_with_graph.
type RagWithGraphHTTPRequest struct {
	Query            string   `json:"query"`
	TopK             int      `json:"top_k,omitempty"`
	CompletedCourses []string `json:"completed_courses,omitempty"`
}

// CourseRecommendationsHTTPRequest is the request body for
// POST /api/course_recommendations.
type CourseRecommendationsHTTPRequest struct {
	Interests        []string `json:"interests"`
	CompletedCourses []string `json:"completed_courses,omitempty"`
	TopK             int      `json:"top_k,omitempty"`
}

// normalizeCodes converts raw strings into canonical CourseCodes, dropping
// anything that fails normalization.
func normalizeCodes(raw []string) []models.CourseCode {
	out := make([]models.CourseCode, 0, len(raw))
	for _, r := range raw {
		code := models.NormalizeCourseCode(r)
		if code.Valid() {
			out = append(out, code)
		}
	}
	return out
}
