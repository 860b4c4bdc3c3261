package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/vector"
)

func TestCentralityClampsOutOfRangeParams(t *testing.T) {
	centrality := &stubCentrality{result: &graph.CentralityResult{}}
	deps := defaultDeps()
	deps.Centrality = centrality
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/centrality", `{"top_n":2000,"damping_factor":1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000, centrality.lastParams.TopN)
	assert.Equal(t, 0.99, centrality.lastParams.Damping)
}

func TestAlternativePathsPassesK(t *testing.T) {
	pathfinding := &stubPathfinding{paths: []graph.Path{}}
	deps := defaultDeps()
	deps.Pathfinding = pathfinding
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/alternative_paths",
		`{"from_course":"CS 1110","to_course":"CS 4780","num_alternatives":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, pathfinding.lastK)
}

func TestShortestPathValidatesRequiredFields(t *testing.T) {
	s := newTestServer(t, defaultDeps())

	rec := doJSON(s, http.MethodPost, "/api/shortest_path", `{"from_course":"CS 1110"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "to_course")
}

func TestSemesterPlanEmptyTargetsReturnsEmptyPlan(t *testing.T) {
	pathfinding := &stubPathfinding{}
	deps := defaultDeps()
	deps.Pathfinding = pathfinding
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/semester_plan", `{"target_courses":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"semester_plans":[]`)
	assert.Equal(t, 0, pathfinding.planCalls)
}

func TestRagWithGraphEnrichesMatches(t *testing.T) {
	deps := defaultDeps()
	deps.Vector = &stubVector{matches: []vector.Match{
		{CourseCode: "CS 4780", Score: 0.91, Payload: map[string]any{"title": "Machine Learning"}},
	}}
	deps.Pathfinding = &stubPathfinding{paths: []graph.Path{
		{Steps: []graph.PathStep{{From: "CS 2110", To: "CS 4780", Weight: 1}}, TotalCost: 1},
	}}
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/rag_with_graph", `{"query":"machine learning"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CS 4780")
	assert.Contains(t, rec.Body.String(), "prerequisite_paths")
}

func TestCourseRecommendationsSkipsCompleted(t *testing.T) {
	deps := defaultDeps()
	deps.Vector = &stubVector{matches: []vector.Match{
		{CourseCode: "CS 4780", Score: 0.9},
		{CourseCode: "CS 2110", Score: 0.8},
	}}
	deps.Grades = &stubGrades{stats: &models.CourseGradesStats{MeanGPA: 3.2, DifficultyPercentile: 85}}
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/course_recommendations",
		`{"interests":["ML"],"completed_courses":["CS 2110"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CS 4780")
	assert.NotContains(t, rec.Body.String(), `"course_code":"CS 2110"`)
	assert.Contains(t, rec.Body.String(), "historically high difficulty")
}

func TestSubgraphFlattensPaths(t *testing.T) {
	deps := defaultDeps()
	deps.Pathfinding = &stubPathfinding{paths: []graph.Path{
		{Steps: []graph.PathStep{
			{From: "CS 1110", To: "CS 2110", Weight: 1},
			{From: "CS 2110", To: "CS 3110", Weight: 1},
		}, TotalCost: 2},
	}}
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/api/graph/subgraph",
		`{"course_code":"CS 3110","completed_courses":["CS 1110"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"center":"CS 3110"`)
	assert.Contains(t, body, `"from":"CS 1110"`)
	assert.Contains(t, body, `"completed":true`)
}
