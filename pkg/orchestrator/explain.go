package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// ErrConversationNotFound is returned by Explain when the conversation id
// resolves to nothing; mapped to a 404 at the HTTP layer.
var ErrConversationNotFound = errors.New("orchestrator: conversation not found")

// ErrRecommendationIndex is returned by Explain for an out-of-range
// recommendation index.
var ErrRecommendationIndex = errors.New("orchestrator: recommendation index out of range")

// ExplanationType selects which facet of a recommendation an explain() call
// should expand on.
type ExplanationType string

const (
	ExplanationAttention      ExplanationType = "attention"
	ExplanationGraphPath      ExplanationType = "graph_path"
	ExplanationContextSources ExplanationType = "context_sources"
	ExplanationFull           ExplanationType = "full"
)

// ExplainRequest is the input to Explain.
type ExplainRequest struct {
	ConversationID    string
	RecommendationIdx int
	ExplanationType   ExplanationType
}

// ExplainResult is the non-streaming explain() response.
type ExplainResult struct {
	CourseCode  models.CourseCode `json:"course_code"`
	Explanation string            `json:"explanation"`
	Caveats     []string          `json:"caveats,omitempty"`
}

type explainCompletion struct {
	Explanation string   `json:"explanation"`
	Caveats     []string `json:"caveats"`
}

// Explain expands on one recommendation from a conversation's last turn
// without re-running context fetch or schema enforcement: it re-asks the
// LLM, in strict JSON mode, for a fuller rationale grounded in the
// recommendation already shown to the student.
func (o *Orchestrator) Explain(ctx context.Context, req ExplainRequest) (*ExplainResult, error) {
	state, err := o.convStore.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load conversation: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %q", ErrConversationNotFound, req.ConversationID)
	}
	if req.RecommendationIdx < 0 || req.RecommendationIdx >= len(state.ActiveRecommendations) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrRecommendationIndex, req.RecommendationIdx, len(state.ActiveRecommendations))
	}
	rec := state.ActiveRecommendations[req.RecommendationIdx]

	explanationType := req.ExplanationType
	if explanationType == "" {
		explanationType = ExplanationFull
	}

	systemPrompt := `You expand on a single course recommendation already shown to a student.
Respond with ONLY a JSON object: {"explanation": string, "caveats": [string]}. No prose, no fences.`
	userPrompt := fmt.Sprintf(
		"Course: %s (%s)\nOriginal rationale: %s\nDetail level: %s\nExplain why this course fits the student's plan, and list any caveats.",
		rec.CourseCode, rec.Title, rec.Rationale, explanationType,
	)

	raw, err := o.router.CompleteJSONStructured(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: explain completion: %w", err)
	}

	var parsed explainCompletion
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Degrade to the original rationale rather than failing the request;
		// explain() is a convenience view on data already shown to the user.
		return &ExplainResult{CourseCode: rec.CourseCode, Explanation: rec.Rationale}, nil
	}

	return &ExplainResult{
		CourseCode:  rec.CourseCode,
		Explanation: parsed.Explanation,
		Caveats:     parsed.Caveats,
	}, nil
}
