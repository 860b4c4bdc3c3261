package context

import (
	gocontext "context"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/vector"
)

const defaultVectorTopK = 5

// VectorProvider wraps vector.Context as a Provider: similarity search over the course collection.
type VectorProvider struct {
	ctx *vector.Context
}

// NewVectorProvider returns a VectorProvider over ctx.
func NewVectorProvider(ctx *vector.Context) *VectorProvider {
	return &VectorProvider{ctx: ctx}
}

func (p *VectorProvider) Kind() models.ContextSourceKind { return models.ContextKindVectorSearch }

func (p *VectorProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	matches, err := p.ctx.Search(ctx, message, defaultVectorTopK)
	if err != nil {
		return nil, err
	}

	confidence := 0.0
	if len(matches) > 0 {
		confidence = matches[0].Score
	}

	return &models.ContextSource{
		Kind:             models.ContextKindVectorSearch,
		Data:             map[string]any{"similar_courses": matches, "query": message},
		Confidence:       confidence,
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "vector_search:v1",
	}, nil
}
