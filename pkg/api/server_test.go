package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/eventchannel"
	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/metrics"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/orchestrator"
	"github.com/tfpre/CourseNavigator-sub000/pkg/vector"
)

// --- stubs ---

type stubChat struct {
	chunks     []eventchannel.Chunk
	chatErr    error
	explainRes *orchestrator.ExplainResult
	explainErr error
	lastReq    orchestrator.ChatRequest
}

func (s *stubChat) Chat(req orchestrator.ChatRequest) eventchannel.Producer {
	s.lastReq = req
	return func(ctx context.Context, out chan<- eventchannel.Chunk) error {
		for _, chunk := range s.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return s.chatErr
	}
}

func (s *stubChat) Explain(_ context.Context, _ orchestrator.ExplainRequest) (*orchestrator.ExplainResult, error) {
	return s.explainRes, s.explainErr
}

type stubConversations struct {
	state *models.ConversationState
	err   error
}

func (s *stubConversations) Get(context.Context, string) (*models.ConversationState, error) {
	return s.state, s.err
}

type stubProfiles struct {
	profile *models.StudentProfile
	err     error
	putArg  *models.StudentProfile
}

func (s *stubProfiles) Get(context.Context, string) (*models.StudentProfile, error) {
	return s.profile, s.err
}

func (s *stubProfiles) Put(_ context.Context, p models.StudentProfile) error {
	s.putArg = &p
	return s.err
}

func (s *stubProfiles) MergeAtomic(_ context.Context, p models.StudentProfile) (*models.StudentProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	merged := p
	return &merged, nil
}

type stubGrades struct {
	stats *models.CourseGradesStats
	err   error
}

func (s *stubGrades) Get(context.Context, models.CourseCode) (*models.CourseGradesStats, error) {
	return s.stats, s.err
}

type stubCache struct {
	version int64
	err     error
	lastTag string
}

func (s *stubCache) Invalidate(_ context.Context, tag string) (int64, error) {
	s.lastTag = tag
	return s.version, s.err
}

type stubCentrality struct {
	lastParams graph.CentralityParams
	result     *graph.CentralityResult
	err        error
}

func (s *stubCentrality) Compute(_ context.Context, params graph.CentralityParams) (*graph.CentralityResult, error) {
	s.lastParams = params
	return s.result, s.err
}

type stubCommunities struct {
	result *graph.CommunityResult
	err    error
}

func (s *stubCommunities) Detect(context.Context, graph.CommunityParams) (*graph.CommunityResult, error) {
	return s.result, s.err
}

type stubPathfinding struct {
	path      *graph.Path
	paths     []graph.Path
	plan      *graph.SemesterPlanResult
	lastK     int
	planCalls int
	err       error
}

func (s *stubPathfinding) ShortestPath(context.Context, models.CourseCode, models.CourseCode) (*graph.Path, error) {
	return s.path, s.err
}

func (s *stubPathfinding) AlternativePaths(_ context.Context, _, _ models.CourseCode, k int) ([]graph.Path, error) {
	s.lastK = k
	return s.paths, s.err
}

func (s *stubPathfinding) OptimizeSemesterPlan(context.Context, []models.CourseCode, map[models.CourseCode]bool, float64) (*graph.SemesterPlanResult, error) {
	s.planCalls++
	return s.plan, s.err
}

func (s *stubPathfinding) AncestorPaths(context.Context, models.CourseCode, []models.CourseCode) ([]graph.Path, error) {
	return s.paths, s.err
}

type stubVector struct {
	matches []vector.Match
	err     error
}

func (s *stubVector) Search(context.Context, string, int) ([]vector.Match, error) {
	return s.matches, s.err
}

func defaultDeps() Dependencies {
	return Dependencies{
		Chat:          &stubChat{},
		Conversations: &stubConversations{},
		Profiles:      &stubProfiles{},
		Grades:        &stubGrades{},
		Cache:         &stubCache{version: 2},
		Centrality:    &stubCentrality{result: &graph.CentralityResult{}},
		Communities:   &stubCommunities{result: &graph.CommunityResult{}},
		Pathfinding:   &stubPathfinding{},
		Vector:        &stubVector{},
		Metrics:       metrics.New(),
		CheckRedis:    func(context.Context) bool { return true },
		CheckNeo4j:    func(context.Context) bool { return true },
		CheckQdrant:   func(context.Context) bool { return true },
	}
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	cfg := &config.Config{Defaults: config.BuiltinDefaults()}
	s := NewServer(cfg, deps)
	require.NoError(t, s.ValidateWiring())
	return s
}

func doJSON(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// --- wiring ---

func TestValidateWiringReportsMissingDependencies(t *testing.T) {
	s := NewServer(nil, Dependencies{})
	err := s.ValidateWiring()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chat not set")
	assert.Contains(t, err.Error(), "Vector not set")
}

// --- health ---

func TestHealthReportsServiceBooleans(t *testing.T) {
	deps := defaultDeps()
	deps.CheckNeo4j = func(context.Context) bool { return false }
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
	assert.Contains(t, rec.Body.String(), `"neo4j":false`)
	assert.Contains(t, rec.Body.String(), `"qdrant":true`)
}

// --- metrics ---

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	s := newTestServer(t, defaultDeps())

	rec := doJSON(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
