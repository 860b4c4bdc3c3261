// Package api provides the HTTP surface of the advisor service: the
// streaming chat endpoint, the graph algorithm endpoints, grades, profiles,
// calendar export, cache administration, health, and metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/eventchannel"
	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/metrics"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/orchestrator"
	"github.com/tfpre/CourseNavigator-sub000/pkg/vector"
)

// ChatService runs a full chat turn as a chunk producer and answers
// explain() follow-ups. Satisfied by *orchestrator.Orchestrator.
type ChatService interface {
	Chat(req orchestrator.ChatRequest) eventchannel.Producer
	Explain(ctx context.Context, req orchestrator.ExplainRequest) (*orchestrator.ExplainResult, error)
}

// ConversationReader loads conversation state for summary endpoints.
type ConversationReader interface {
	Get(ctx context.Context, id string) (*models.ConversationState, error)
}

// ProfileService is the profile CRUD surface backing /profiles.
type ProfileService interface {
	Get(ctx context.Context, id string) (*models.StudentProfile, error)
	Put(ctx context.Context, profile models.StudentProfile) error
	MergeAtomic(ctx context.Context, incoming models.StudentProfile) (*models.StudentProfile, error)
}

// GradesReader resolves aggregated grade statistics for one course.
type GradesReader interface {
	Get(ctx context.Context, code models.CourseCode) (*models.CourseGradesStats, error)
}

// CacheInvalidator bumps a cache tag's version.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tag string) (int64, error)
}

// CentralityService runs the batched centrality computation.
type CentralityService interface {
	Compute(ctx context.Context, params graph.CentralityParams) (*graph.CentralityResult, error)
}

// CommunityService runs Louvain community detection with cohesion.
type CommunityService interface {
	Detect(ctx context.Context, params graph.CommunityParams) (*graph.CommunityResult, error)
}

// PathfindingService answers prerequisite-path and semester-plan queries.
type PathfindingService interface {
	ShortestPath(ctx context.Context, from, to models.CourseCode) (*graph.Path, error)
	AlternativePaths(ctx context.Context, from, to models.CourseCode, k int) ([]graph.Path, error)
	OptimizeSemesterPlan(ctx context.Context, courses []models.CourseCode, completed map[models.CourseCode]bool, maxCreditsPerSemester float64) (*graph.SemesterPlanResult, error)
	AncestorPaths(ctx context.Context, code models.CourseCode, completed []models.CourseCode) ([]graph.Path, error)
}

// VectorSearcher runs similarity search over the course collection.
type VectorSearcher interface {
	Search(ctx context.Context, message string, topK int) ([]vector.Match, error)
}

// CalendarExporter renders an iCalendar feed for a set of courses.
type CalendarExporter interface {
	Export(ctx context.Context, studentName string, codes []models.CourseCode) (string, error)
}

// HealthCheck probes one external backend with a bounded context.
type HealthCheck func(ctx context.Context) bool

// Dependencies bundles every collaborator the Server needs. All fields are
// required unless noted; ValidateWiring reports what is missing.
type Dependencies struct {
	Chat          ChatService
	Conversations ConversationReader
	Profiles      ProfileService
	Grades        GradesReader
	Cache         CacheInvalidator
	Centrality    CentralityService
	Communities   CommunityService
	Pathfinding   PathfindingService
	Vector        VectorSearcher
	Calendar      CalendarExporter // optional; /calendar/export.ics 503s without it
	Metrics       *metrics.Registry

	CheckRedis  HealthCheck // optional; reported false when nil
	CheckNeo4j  HealthCheck
	CheckQdrant HealthCheck
}

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        *config.Config
	deps       Dependencies
}

// NewServer creates the API server with Echo v5 and registers all routes.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()

	s := &Server{
		echo: e,
		cfg:  cfg,
		deps: deps,
	}

	s.setupRoutes()
	return s
}

// ValidateWiring checks that all required collaborators have been supplied.
// Call before Start so wiring gaps surface at startup rather than as 500s
// at request time.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.deps.Chat == nil {
		errs = append(errs, fmt.Errorf("Chat not set"))
	}
	if s.deps.Conversations == nil {
		errs = append(errs, fmt.Errorf("Conversations not set"))
	}
	if s.deps.Profiles == nil {
		errs = append(errs, fmt.Errorf("Profiles not set"))
	}
	if s.deps.Grades == nil {
		errs = append(errs, fmt.Errorf("Grades not set"))
	}
	if s.deps.Cache == nil {
		errs = append(errs, fmt.Errorf("Cache not set"))
	}
	if s.deps.Centrality == nil {
		errs = append(errs, fmt.Errorf("Centrality not set"))
	}
	if s.deps.Communities == nil {
		errs = append(errs, fmt.Errorf("Communities not set"))
	}
	if s.deps.Pathfinding == nil {
		errs = append(errs, fmt.Errorf("Pathfinding not set"))
	}
	if s.deps.Vector == nil {
		errs = append(errs, fmt.Errorf("Vector not set"))
	}
	if s.deps.Metrics == nil {
		errs = append(errs, fmt.Errorf("Metrics not set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("server wiring incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(1 * 1024 * 1024))
	s.echo.Use(securityHeaders())
	if s.deps.Metrics != nil {
		s.echo.Use(httpMetrics(s.deps.Metrics))
	}
	if s.cfg != nil && s.cfg.Server != nil && len(s.cfg.Server.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.cfg.Server.AllowedOrigins,
		}))
	}

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", s.metricsHandler)

	api := s.echo.Group("/api")
	api.POST("/chat", s.chatHandler)
	api.POST("/chat/explain", s.explainHandler)
	api.GET("/chat/conversation/:id", s.getConversationHandler)

	api.POST("/rag_with_graph", s.ragWithGraphHandler)
	api.POST("/prerequisite_path", s.prerequisitePathHandler)
	api.POST("/centrality", s.centralityHandler)
	api.POST("/communities", s.communitiesHandler)
	api.POST("/shortest_path", s.shortestPathHandler)
	api.POST("/alternative_paths", s.alternativePathsHandler)
	api.POST("/semester_plan", s.semesterPlanHandler)
	api.POST("/course_recommendations", s.courseRecommendationsHandler)
	api.POST("/graph/subgraph", s.subgraphHandler)

	s.echo.GET("/grades/:course_code", s.gradesHandler)

	s.echo.POST("/admin/cache/invalidate/:tag", s.invalidateCacheHandler)

	s.echo.GET("/profiles/:student_id", s.getProfileHandler)
	s.echo.PUT("/profiles/:student_id", s.putProfileHandler)
	s.echo.PATCH("/profiles/:student_id", s.patchProfileHandler)

	s.echo.GET("/calendar/export.ics", s.calendarExportHandler)
}

// metricsHandler serves the Prometheus text exposition for the process
// registry.
func (s *Server) metricsHandler(c *echo.Context) error {
	if s.deps.Metrics == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metrics not available")
	}
	promhttp.HandlerFor(s.deps.Metrics.Gatherer(), promhttp.HandlerOpts{}).
		ServeHTTP(c.Response(), c.Request())
	return nil
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
