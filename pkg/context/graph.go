package context

import (
	gocontext "context"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// GraphProvider wraps PathfindingService.AncestorPaths as a Provider, per
// the GraphContext.
type GraphProvider struct {
	pathfinding *graph.PathfindingService
}

// NewGraphProvider returns a GraphProvider over pathfinding.
func NewGraphProvider(pathfinding *graph.PathfindingService) *GraphProvider {
	return &GraphProvider{pathfinding: pathfinding}
}

func (p *GraphProvider) Kind() models.ContextSourceKind { return models.ContextKindGraphAnalysis }

func (p *GraphProvider) Fetch(ctx gocontext.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	start := time.Now()
	codes := fallbackCourseCodes(message, profile, 1)
	if len(codes) == 0 {
		return &models.ContextSource{
			Kind:             models.ContextKindGraphAnalysis,
			Data:             map[string]any{"paths": []graph.Path{}},
			ProcessingTimeMs: elapsedMs(start),
			SourceTag:        "graphctx:v1",
		}, nil
	}

	paths, err := p.pathfinding.AncestorPaths(ctx, codes[0], profile.Completed)
	if err != nil {
		return nil, err
	}

	confidence := 0.0
	if len(paths) > 0 {
		confidence = 0.8
	}

	return &models.ContextSource{
		Kind:             models.ContextKindGraphAnalysis,
		Data:             map[string]any{"course_code": codes[0], "paths": paths},
		Confidence:       confidence,
		ProcessingTimeMs: elapsedMs(start),
		SourceTag:        "graphctx:v1",
	}, nil
}
