package api

import (
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Services  map[string]bool `json:"services"`
	Version   string          `json:"version"`
	Timestamp string          `json:"timestamp"`
}

// ConversationSummaryResponse is the body of GET /api/chat/conversation/:id.
type ConversationSummaryResponse struct {
	ConversationID        string                  `json:"conversation_id"`
	StudentID             string                  `json:"student_id,omitempty"`
	MessageCount          int                     `json:"message_count"`
	LastMessage           string                  `json:"last_message,omitempty"`
	ActiveRecommendations []models.Recommendation `json:"active_recommendations"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

// InvalidateCacheResponse is the body of POST /admin/cache/invalidate/:tag.
type InvalidateCacheResponse struct {
	Tag        string `json:"tag"`
	NewVersion int64  `json:"new_version"`
}

// RagCourseResult is one enriched row of a rag_with_graph response.
type RagCourseResult struct {
	CourseCode string         `json:"course_code"`
	Score      float64        `json:"score"`
	Payload    map[string]any `json:"payload,omitempty"`
	// PrerequisitePaths holds up to three candidate paths through courses
	// the student has not yet completed.
	PrerequisitePaths []PathSummary `json:"prerequisite_paths,omitempty"`
}

// PathSummary is a flattened path rendering for JSON responses.
type PathSummary struct {
	Courses   []models.CourseCode `json:"courses"`
	TotalCost float64             `json:"total_cost"`
}

// CourseRecommendationResult is one row of a course_recommendations response.
type CourseRecommendationResult struct {
	CourseCode        models.CourseCode `json:"course_code"`
	Score             float64           `json:"score"`
	Title             string            `json:"title,omitempty"`
	DifficultyWarning string            `json:"difficulty_warning,omitempty"`
	MeanGPA           float64           `json:"mean_gpa,omitempty"`
}

// SubgraphNode is one node of a graph/subgraph response.
type SubgraphNode struct {
	CourseCode models.CourseCode `json:"course_code"`
	Completed  bool              `json:"completed"`
}

// SubgraphEdge is one edge of a graph/subgraph response.
type SubgraphEdge struct {
	From   models.CourseCode `json:"from"`
	To     models.CourseCode `json:"to"`
	Weight float64           `json:"weight"`
}

// SubgraphResponse is the body of POST /api/graph/subgraph.
type SubgraphResponse struct {
	Center models.CourseCode `json:"center"`
	Nodes  []SubgraphNode    `json:"nodes"`
	Edges  []SubgraphEdge    `json:"edges"`
}
