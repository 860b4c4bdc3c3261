package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// RequirementsService loads degree RequirementSpec rows from the graph
// engine, one round trip per major: each requirement node with its
// satisfier list, enriched with default credits.
type RequirementsService struct {
	driver neo4j.DriverWithContext
}

// NewRequirementsService returns a RequirementsService over driver.
func NewRequirementsService(driver neo4j.DriverWithContext) *RequirementsService {
	return &RequirementsService{driver: driver}
}

// LoadForMajor returns every RequirementSpec attached to major, satisfiers
// ordered by course code for deterministic downstream evaluation.
func (s *RequirementsService) LoadForMajor(ctx context.Context, major string) ([]models.RequirementSpec, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Major {id: $major})-[:REQUIRES]->(req:Requirement)
		OPTIONAL MATCH (req)-[:SATISFIED_BY]->(c:Course)
		WITH req, c ORDER BY c.code ASC
		RETURN req.id AS id, req.summary AS summary, req.kind AS kind,
		       req.min_count AS min_count, req.min_credits AS min_credits,
		       collect({code: c.code, credits: coalesce(c.credits, $default_credits)}) AS satisfiers
		ORDER BY req.id ASC`,
		map[string]any{"major": major, "default_credits": models.DefaultCourseCredits})
	if err != nil {
		return nil, fmt.Errorf("graph: load requirements for %q: %w", major, err)
	}

	var specs []models.RequirementSpec
	for result.Next(ctx) {
		record := result.Record()
		spec := models.RequirementSpec{}
		if v, ok := record.Get("id"); ok {
			spec.ID = toString(v)
		}
		if v, ok := record.Get("summary"); ok {
			spec.Summary = toString(v)
		}
		if v, ok := record.Get("kind"); ok {
			spec.Kind = models.RequirementKind(toString(v))
		}
		if v, ok := record.Get("min_count"); ok {
			spec.MinCount = toInt(v)
		}
		if v, ok := record.Get("min_credits"); ok {
			spec.MinCredits = toFloat(v)
		}
		if v, ok := record.Get("satisfiers"); ok {
			spec.Satisfiers = toSatisfiers(v)
		}
		specs = append(specs, spec)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}

// toSatisfiers decodes the collect()ed satisfier maps, skipping the null
// placeholder an OPTIONAL MATCH miss leaves behind.
func toSatisfiers(v any) []models.Satisfier {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]models.Satisfier, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		code := toString(m["code"])
		if code == "" {
			continue
		}
		credits := models.DefaultCourseCredits
		if c, ok := m["credits"]; ok && c != nil {
			credits = toFloat(c)
		}
		out = append(out, models.Satisfier{Code: models.CourseCode(code), Credits: credits})
	}
	return out
}
