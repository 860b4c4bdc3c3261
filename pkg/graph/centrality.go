package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const centralityTTL = time.Hour

// CentralityService answers pageRank/betweenness/in-degree queries over the
// prerequisite graph, returning all three as ranked lists.
type CentralityService struct {
	driver  neo4j.DriverWithContext
	catalog *CatalogManager
	cache   *resultLRU
}

// NewCentralityService returns a CentralityService over driver, sharing catalog
// with the rest of the graph package.
func NewCentralityService(driver neo4j.DriverWithContext, catalog *CatalogManager) *CentralityService {
	return &CentralityService{
		driver:  driver,
		catalog: catalog,
		cache:   newResultLRU(lruCapacity, centralityTTL),
	}
}

// Compute runs the PageRank, betweenness, and in-degree queries in turn, clamping
// params to the bounds before execution, and serving from the bounded
// result cache when an identical (clamped, normalized) parameter set was
// already computed within the TTL.
func (s *CentralityService) Compute(ctx context.Context, params CentralityParams) (*CentralityResult, error) {
	clamped := params.Clamp()

	digest, err := paramDigest(map[string]any{
		"top_n":           clamped.TopN,
		"damping":         clamped.Damping,
		"max_iter":        clamped.MaxIter,
		"min_betweenness": clamped.MinBetweenness,
		"min_in_degree":   clamped.MinInDegree,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: digest centrality params: %w", err)
	}
	if cached, ok := s.cache.Get(digest); ok {
		result := cached.(CentralityResult)
		return &result, nil
	}

	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraph); err != nil {
		return nil, err
	}
	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraphUndirected); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	pageRank, err := s.pageRank(ctx, session, clamped)
	if err != nil {
		return nil, fmt.Errorf("graph: page rank: %w", err)
	}
	betweenness, err := s.betweenness(ctx, session, clamped)
	if err != nil {
		return nil, fmt.Errorf("graph: betweenness: %w", err)
	}
	inDegree, err := s.inDegree(ctx, session, clamped)
	if err != nil {
		return nil, fmt.Errorf("graph: in-degree: %w", err)
	}

	result := CentralityResult{PageRank: pageRank, Betweenness: betweenness, InDegree: inDegree}
	s.cache.Put(digest, result)
	return &result, nil
}

func (s *CentralityService) pageRank(ctx context.Context, session neo4j.SessionWithContext, p CentralityParams) ([]RankedCourse, error) {
	rows, err := session.Run(ctx, `
		CALL gds.pageRank.stream($graph, {dampingFactor: $damping, maxIterations: $maxIter})
		YIELD nodeId, score
		WITH gds.util.asNode(nodeId) AS course, score
		RETURN course.code AS code, course.title AS title, course.subject AS subject,
			course.level AS level, score AS score
		ORDER BY score DESC
		LIMIT $topN`,
		map[string]any{
			"graph":   string(ProjectionPrerequisiteGraph),
			"damping": p.Damping,
			"maxIter": p.MaxIter,
			"topN":    p.TopN,
		})
	if err != nil {
		return nil, err
	}
	return collectRanked(ctx, rows)
}

func (s *CentralityService) betweenness(ctx context.Context, session neo4j.SessionWithContext, p CentralityParams) ([]RankedCourse, error) {
	rows, err := session.Run(ctx, `
		CALL gds.betweenness.stream($graph)
		YIELD nodeId, score
		WHERE score >= $minBetweenness
		WITH gds.util.asNode(nodeId) AS course, score
		RETURN course.code AS code, course.title AS title, course.subject AS subject,
			course.level AS level, score AS score
		ORDER BY score DESC
		LIMIT $topN`,
		map[string]any{
			"graph":          string(ProjectionPrerequisiteGraphUndirected),
			"minBetweenness": p.MinBetweenness,
			"topN":           p.TopN,
		})
	if err != nil {
		return nil, err
	}
	return collectRanked(ctx, rows)
}

func (s *CentralityService) inDegree(ctx context.Context, session neo4j.SessionWithContext, p CentralityParams) ([]RankedCourse, error) {
	rows, err := session.Run(ctx, `
		MATCH (course:Course)<-[:PREREQUISITE]-(dependent:Course)
		WITH course, count(dependent) AS score
		WHERE score >= $minInDegree
		RETURN course.code AS code, course.title AS title, course.subject AS subject,
			course.level AS level, score AS score
		ORDER BY score DESC
		LIMIT $topN`,
		map[string]any{
			"minInDegree": p.MinInDegree,
			"topN":        p.TopN,
		})
	if err != nil {
		return nil, err
	}
	return collectRanked(ctx, rows)
}

func collectRanked(ctx context.Context, rows neo4j.ResultWithContext) ([]RankedCourse, error) {
	var out []RankedCourse
	for rows.Next(ctx) {
		record := rows.Record()
		code, _ := record.Get("code")
		title, _ := record.Get("title")
		subject, _ := record.Get("subject")
		level, _ := record.Get("level")
		score, _ := record.Get("score")

		out = append(out, RankedCourse{
			CourseCode: models.CourseCode(toString(code)),
			Title:      toString(title),
			Subject:    toString(subject),
			Level:      toInt(level),
			Score:      toFloat(score),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
