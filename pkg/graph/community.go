package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const communityTTL = 2 * time.Hour

// CommunityParams are the inputs to a community-detection run.
type CommunityParams struct {
	// IncludeDepartmentOverlap enables the optional, off-by-default analysis
	// of how communities cut across department boundaries.
	IncludeDepartmentOverlap bool
}

// CommunityService runs Louvain clustering over the similarity graph.
type CommunityService struct {
	driver  neo4j.DriverWithContext
	catalog *CatalogManager
	cache   *resultLRU
}

// NewCommunityService returns a CommunityService over driver.
func NewCommunityService(driver neo4j.DriverWithContext, catalog *CatalogManager) *CommunityService {
	return &CommunityService{
		driver:  driver,
		catalog: catalog,
		cache:   newResultLRU(lruCapacity, communityTTL),
	}
}

// Detect runs Louvain community detection, computing per-cluster cohesion and
// overall modularity. Department-overlap analysis only runs when requested.
func (s *CommunityService) Detect(ctx context.Context, params CommunityParams) (*CommunityResult, error) {
	digest, err := paramDigest(map[string]any{"include_department_overlap": params.IncludeDepartmentOverlap})
	if err != nil {
		return nil, fmt.Errorf("graph: digest community params: %w", err)
	}
	if cached, ok := s.cache.Get(digest); ok {
		result := cached.(CommunityResult)
		return &result, nil
	}

	if err := s.catalog.Ensure(ctx, ProjectionSimilarityGraph); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	louvain, err := session.Run(ctx, `
		CALL gds.louvain.stream($graph)
		YIELD nodeId, communityId
		WITH gds.util.asNode(nodeId) AS course, communityId
		RETURN communityId, collect(course.code) AS courses, collect(course.subject) AS subjects`,
		map[string]any{"graph": string(ProjectionSimilarityGraph)})
	if err != nil {
		return nil, fmt.Errorf("graph: louvain stream: %w", err)
	}

	var clusters []Community
	for louvain.Next(ctx) {
		record := louvain.Record()
		communityID, _ := record.Get("communityId")
		coursesRaw, _ := record.Get("courses")

		codes := toCourseCodes(coursesRaw)
		cohesion, err := s.cohesion(ctx, session, codes)
		if err != nil {
			return nil, fmt.Errorf("graph: cohesion for community %v: %w", communityID, err)
		}

		clusters = append(clusters, Community{
			ID:       int64(toInt(communityID)),
			Courses:  codes,
			Cohesion: cohesion,
		})
	}
	if err := louvain.Err(); err != nil {
		return nil, err
	}

	modularityRow, err := session.Run(ctx, `
		CALL gds.louvain.stats($graph)
		YIELD modularity
		RETURN modularity`,
		map[string]any{"graph": string(ProjectionSimilarityGraph)})
	if err != nil {
		return nil, fmt.Errorf("graph: louvain stats: %w", err)
	}
	modularity := 0.0
	if record, err := modularityRow.Single(ctx); err == nil {
		v, _ := record.Get("modularity")
		modularity = toFloat(v)
	}

	result := CommunityResult{
		Clusters:       clusters,
		Modularity:     modularity,
		NumCommunities: len(clusters),
	}
	s.cache.Put(digest, result)
	return &result, nil
}

// cohesion computes the ratio of intra-cluster similarity edges to possible
// pairs, a simple proxy for how tightly a cluster's courses relate.
func (s *CommunityService) cohesion(ctx context.Context, session neo4j.SessionWithContext, codes []models.CourseCode) (float64, error) {
	if len(codes) < 2 {
		return 1.0, nil
	}
	strCodes := make([]string, len(codes))
	for i, c := range codes {
		strCodes[i] = string(c)
	}

	result, err := session.Run(ctx, `
		MATCH (a:Course)-[r:SIMILAR_TO]-(b:Course)
		WHERE a.code IN $codes AND b.code IN $codes
		RETURN count(r) AS edgeCount`,
		map[string]any{"codes": strCodes})
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	edgeCount, _ := record.Get("edgeCount")

	n := float64(len(codes))
	possiblePairs := n * (n - 1) / 2
	if possiblePairs == 0 {
		return 1.0, nil
	}
	return toFloat(edgeCount) / 2 / possiblePairs, nil
}

func toCourseCodes(v any) []models.CourseCode {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]models.CourseCode, 0, len(raw))
	for _, item := range raw {
		out = append(out, models.CourseCode(toString(item)))
	}
	return out
}
