// Package graph wires the Catalog Manager and the centrality, community, and
// pathfinding services on top of the Neo4j Graph Data Science
// library. Every algorithm invocation is parameterized; the one value
// string-interpolated into a Cypher statement is the fixed internal depth
// bound in AncestorPaths, which Neo4j does not accept as a parameter.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

// Projection names the named GDS projections this system relies on.
type Projection string

const (
	ProjectionPrerequisiteGraph           Projection = "prerequisite_graph"
	ProjectionPrerequisiteGraphUndirected Projection = "prerequisite_graph_undirected"
	ProjectionSimilarityGraph             Projection = "similarity_graph"
)

// projectionMemoTTL bounds how long catalog existence checks are trusted
// before re-verifying against the engine.
const projectionMemoTTL = 300 * time.Second

// CatalogManager ensures named graph projections exist, memoizing existence
// with a TTL so repeated algorithm calls don't re-check gds.graph.exists on
// every invocation.
type CatalogManager struct {
	driver neo4j.DriverWithContext

	mu   sync.Mutex
	memo map[Projection]time.Time
}

// NewCatalogManager returns a CatalogManager over driver.
func NewCatalogManager(driver neo4j.DriverWithContext) *CatalogManager {
	return &CatalogManager{
		driver: driver,
		memo:   make(map[Projection]time.Time),
	}
}

// Ensure verifies projection exists, creating it via a parameterized
// gds.graph.project call if the memo is stale or absent.
func (m *CatalogManager) Ensure(ctx context.Context, projection Projection) error {
	m.mu.Lock()
	checkedAt, known := m.memo[projection]
	fresh := known && time.Since(checkedAt) < projectionMemoTTL
	m.mu.Unlock()
	if fresh {
		return nil
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	exists, err := m.exists(ctx, session, projection)
	if err != nil {
		return fmt.Errorf("graph: check projection %q exists: %w", projection, err)
	}
	if !exists {
		if err := m.create(ctx, session, projection); err != nil {
			return fmt.Errorf("graph: create projection %q: %w", projection, err)
		}
	}

	m.mu.Lock()
	m.memo[projection] = time.Now()
	m.mu.Unlock()
	return nil
}

func (m *CatalogManager) exists(ctx context.Context, session neo4j.SessionWithContext, projection Projection) (bool, error) {
	result, err := session.Run(ctx,
		"CALL gds.graph.exists($name) YIELD exists RETURN exists",
		map[string]any{"name": string(projection)})
	if err != nil {
		return false, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return false, err
	}
	exists, _ := record.Get("exists")
	b, _ := exists.(bool)
	return b, nil
}

func (m *CatalogManager) create(ctx context.Context, session neo4j.SessionWithContext, projection Projection) error {
	spec, ok := projectionSpecs[projection]
	if !ok {
		return fmt.Errorf("graph: unknown projection %q", projection)
	}
	_, err := session.Run(ctx, spec.cypher, spec.params(projection))
	return err
}

type projectionSpec struct {
	cypher string
	params func(name Projection) map[string]any
}

var projectionSpecs = map[Projection]projectionSpec{
	ProjectionPrerequisiteGraph: {
		cypher: `CALL gds.graph.project($name, 'Course', {
			PREREQUISITE: {orientation: 'NATURAL', properties: 'weight'}
		})`,
		params: func(name Projection) map[string]any {
			return map[string]any{"name": string(name)}
		},
	},
	ProjectionPrerequisiteGraphUndirected: {
		cypher: `CALL gds.graph.project($name, 'Course', {
			PREREQUISITE: {orientation: 'UNDIRECTED', properties: 'weight'}
		})`,
		params: func(name Projection) map[string]any {
			return map[string]any{"name": string(name)}
		},
	},
	ProjectionSimilarityGraph: {
		cypher: `CALL gds.graph.project($name, 'Course', {
			SIMILAR_TO: {orientation: 'UNDIRECTED', properties: 'similarity'}
		})`,
		params: func(name Projection) map[string]any {
			return map[string]any{"name": string(name)}
		},
	},
}

// Drop removes a projection from the engine and clears its memo entry. Used
// by tests and admin tooling; not on the request hot path.
func (m *CatalogManager) Drop(ctx context.Context, projection Projection) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, "CALL gds.graph.drop($name, false)", map[string]any{"name": string(projection)})

	m.mu.Lock()
	delete(m.memo, projection)
	m.mu.Unlock()

	return err
}
