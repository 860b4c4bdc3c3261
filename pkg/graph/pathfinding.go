package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

const pathfindingTTL = time.Hour

// maxAlternativePaths bounds how many alternative paths Yen's algorithm will
// return, matching the practical limit GDS's yens stream enforces.
const maxAlternativePaths = 5

// PathfindingService answers shortest_path, alternative_paths, and
// optimize_semester_plan queries over the prerequisite graph.
type PathfindingService struct {
	driver  neo4j.DriverWithContext
	catalog *CatalogManager
	cache   *resultLRU
}

// NewPathfindingService returns a PathfindingService over driver.
func NewPathfindingService(driver neo4j.DriverWithContext, catalog *CatalogManager) *PathfindingService {
	return &PathfindingService{
		driver:  driver,
		catalog: catalog,
		cache:   newResultLRU(lruCapacity, pathfindingTTL),
	}
}

// ShortestPath returns the lowest-cost prerequisite chain from -> to via
// gds.shortestPath.dijkstra.
func (s *PathfindingService) ShortestPath(ctx context.Context, from, to models.CourseCode) (*Path, error) {
	digest, err := paramDigest(map[string]any{"op": "shortest_path", "from": string(from), "to": string(to)})
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(digest); ok {
		path := cached.(Path)
		return &path, nil
	}

	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraph); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (source:Course {code: $from}), (target:Course {code: $to})
		CALL gds.shortestPath.dijkstra.stream($graph, {sourceNode: source, targetNode: target})
		YIELD totalCost, path
		RETURN totalCost, [n IN nodes(path) | n.code] AS codes, [r IN relationships(path) | r.weight] AS weights
		LIMIT 1`,
		map[string]any{"graph": string(ProjectionPrerequisiteGraph), "from": string(from), "to": string(to)})
	if err != nil {
		return nil, fmt.Errorf("graph: shortest path: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: no path from %s to %s: %w", from, to, err)
	}

	path := pathFromRecord(record)
	s.cache.Put(digest, path)
	return &path, nil
}

// AlternativePaths returns up to k distinct loopless paths via gds.yens.stream.
func (s *PathfindingService) AlternativePaths(ctx context.Context, from, to models.CourseCode, k int) ([]Path, error) {
	if k <= 0 || k > maxAlternativePaths {
		k = maxAlternativePaths
	}

	digest, err := paramDigest(map[string]any{"op": "alternative_paths", "from": string(from), "to": string(to), "k": k})
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(digest); ok {
		return cached.([]Path), nil
	}

	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraph); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (source:Course {code: $from}), (target:Course {code: $to})
		CALL gds.yens.stream($graph, {sourceNode: source, targetNode: target, k: $k})
		YIELD totalCost, path
		RETURN totalCost, [n IN nodes(path) | n.code] AS codes, [r IN relationships(path) | r.weight] AS weights
		ORDER BY totalCost ASC`,
		map[string]any{"graph": string(ProjectionPrerequisiteGraph), "from": string(from), "to": string(to), "k": k})
	if err != nil {
		return nil, fmt.Errorf("graph: alternative paths: %w", err)
	}

	var paths []Path
	for result.Next(ctx) {
		paths = append(paths, pathFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	s.cache.Put(digest, paths)
	return paths, nil
}

func pathFromRecord(record *neo4j.Record) Path {
	totalCost, _ := record.Get("totalCost")
	codesRaw, _ := record.Get("codes")
	weightsRaw, _ := record.Get("weights")

	codes := toCourseCodes(codesRaw)
	weights, _ := weightsRaw.([]any)

	var steps []PathStep
	for i := 0; i+1 < len(codes); i++ {
		weight := 0.0
		if i < len(weights) {
			weight = toFloat(weights[i])
		}
		steps = append(steps, PathStep{From: codes[i], To: codes[i+1], Weight: weight})
	}

	return Path{Steps: steps, TotalCost: toFloat(totalCost)}
}

// OptimizeSemesterPlan schedules the given courses across semesters,
// respecting prerequisite ordering via a topological sort and then greedily
// filling semesters up to maxCreditsPerSemester.
func (s *PathfindingService) OptimizeSemesterPlan(
	ctx context.Context,
	courses []models.CourseCode,
	completed map[models.CourseCode]bool,
	maxCreditsPerSemester float64,
) (*SemesterPlanResult, error) {
	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraph); err != nil {
		return nil, err
	}
	if maxCreditsPerSemester <= 0 {
		maxCreditsPerSemester = 15.0
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	strCodes := make([]string, len(courses))
	for i, c := range courses {
		strCodes[i] = string(c)
	}

	result, err := session.Run(ctx, `
		MATCH (c:Course)-[:PREREQUISITE]->(dep:Course)
		WHERE c.code IN $codes
		RETURN c.code AS code, collect(dep.code) AS prereqs`,
		map[string]any{"codes": strCodes})
	if err != nil {
		return nil, fmt.Errorf("graph: fetch prerequisites for plan: %w", err)
	}

	prereqsOf := make(map[models.CourseCode][]models.CourseCode, len(courses))
	for _, c := range courses {
		prereqsOf[c] = nil
	}
	for result.Next(ctx) {
		record := result.Record()
		code, _ := record.Get("code")
		prereqs, _ := record.Get("prereqs")
		prereqsOf[models.CourseCode(toString(code))] = toCourseCodes(prereqs)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	ordered, unresolved := topologicalSort(courses, prereqsOf, completed)

	var semesters []SemesterPlan
	var unscheduled []models.CourseCode
	remaining := append([]models.CourseCode{}, ordered...)
	satisfiedBy := map[models.CourseCode]bool{}
	for course := range completed {
		satisfiedBy[course] = true
	}

	semesterIdx := 0
	for len(remaining) > 0 {
		semesterIdx++
		var plan SemesterPlan
		plan.Semester = semesterIdx

		var nextRemaining []models.CourseCode
		for _, course := range remaining {
			ready := true
			for _, p := range prereqsOf[course] {
				if !satisfiedBy[p] {
					ready = false
					break
				}
			}
			if ready && plan.Credits+models.DefaultCourseCredits <= maxCreditsPerSemester {
				plan.Courses = append(plan.Courses, course)
				plan.Credits += models.DefaultCourseCredits
			} else {
				nextRemaining = append(nextRemaining, course)
			}
		}

		if len(plan.Courses) == 0 {
			// Nothing could be scheduled this pass; remainder is unschedulable
			// (unsatisfiable prerequisite cycle or missing completed course).
			unscheduled = append(unscheduled, nextRemaining...)
			break
		}

		for _, c := range plan.Courses {
			satisfiedBy[c] = true
		}
		semesters = append(semesters, plan)
		remaining = nextRemaining

		if semesterIdx > 64 {
			unscheduled = append(unscheduled, remaining...)
			break
		}
	}

	unscheduled = append(unscheduled, unresolved...)

	total := len(courses)
	scheduled := total - len(unscheduled)
	efficiency := 1.0
	if total > 0 {
		efficiency = float64(scheduled) / float64(total)
	}

	return &SemesterPlanResult{
		SemesterPlans:        semesters,
		Unscheduled:          unscheduled,
		SchedulingEfficiency: efficiency,
	}, nil
}

// maxPrerequisiteDepth and maxPrerequisitePaths bound AncestorPaths:
// depth <= 3, <= 3 candidate paths.
const (
	maxPrerequisiteDepth = 3
	maxPrerequisitePaths = 3
)

// AncestorPaths returns up to maxPrerequisitePaths chains of prerequisites
// feeding into code, each at most maxPrerequisiteDepth edges long, ordered
// shortest-first. completed is accepted only to vary the cache key; it
// does not change which paths exist in the graph.
func (s *PathfindingService) AncestorPaths(ctx context.Context, code models.CourseCode, completed []models.CourseCode) ([]Path, error) {
	sortedCompleted := append([]models.CourseCode{}, completed...)
	sort.Slice(sortedCompleted, func(i, j int) bool { return sortedCompleted[i] < sortedCompleted[j] })

	digest, err := paramDigest(map[string]any{"op": "ancestor_paths", "code": string(code), "completed": sortedCompleted})
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(digest); ok {
		return cached.([]Path), nil
	}

	if err := s.catalog.Ensure(ctx, ProjectionPrerequisiteGraph); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Neo4j does not accept a parameter for a variable-length relationship
	// bound, so maxPrerequisiteDepth (a fixed internal constant, never user
	// input) is the only literal interpolated into this query; every other
	// value is bound through query parameters.
	result, err := session.Run(ctx, fmt.Sprintf(`
		MATCH p = (ancestor:Course)-[:PREREQUISITE*1..%d]->(target:Course {code: $code})
		WITH p, [n IN nodes(p) | n.code] AS codes, [r IN relationships(p) | r.weight] AS weights
		RETURN codes, weights, length(p) AS depth
		ORDER BY depth ASC
		LIMIT $limit`, maxPrerequisiteDepth),
		map[string]any{"code": string(code), "limit": maxPrerequisitePaths})
	if err != nil {
		return nil, fmt.Errorf("graph: ancestor paths for %s: %w", code, err)
	}

	var paths []Path
	for result.Next(ctx) {
		record := result.Record()
		codesRaw, _ := record.Get("codes")
		weightsRaw, _ := record.Get("weights")
		codes := toCourseCodes(codesRaw)
		weights, _ := weightsRaw.([]any)

		var steps []PathStep
		var totalCost float64
		for i := 0; i+1 < len(codes); i++ {
			weight := 1.0
			if i < len(weights) {
				weight = toFloat(weights[i])
			}
			steps = append(steps, PathStep{From: codes[i], To: codes[i+1], Weight: weight})
			totalCost += weight
		}
		paths = append(paths, Path{Steps: steps, TotalCost: totalCost})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	s.cache.Put(digest, paths)
	return paths, nil
}

// topologicalSort orders courses via Kahn's algorithm, treating any course in
// completed as already satisfying its position in the ordering. Courses
// involved in an unresolvable cycle are returned separately as unresolved.
func topologicalSort(
	courses []models.CourseCode,
	prereqsOf map[models.CourseCode][]models.CourseCode,
	completed map[models.CourseCode]bool,
) (ordered, unresolved []models.CourseCode) {
	inDegree := make(map[models.CourseCode]int, len(courses))
	for _, c := range courses {
		for _, p := range prereqsOf[c] {
			if !completed[p] {
				inDegree[c]++
			}
		}
	}

	var queue []models.CourseCode
	for _, c := range courses {
		if inDegree[c] == 0 {
			queue = append(queue, c)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	dependents := make(map[models.CourseCode][]models.CourseCode)
	for _, c := range courses {
		for _, p := range prereqsOf[c] {
			dependents[p] = append(dependents[p], c)
		}
	}

	visited := make(map[models.CourseCode]bool, len(courses))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		ordered = append(ordered, next)

		var freed []models.CourseCode
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				freed = append(freed, dep)
			}
		}
		sort.Slice(freed, func(i, j int) bool { return freed[i] < freed[j] })
		queue = append(queue, freed...)
	}

	for _, c := range courses {
		if !visited[c] {
			unresolved = append(unresolved, c)
		}
	}
	return ordered, unresolved
}
