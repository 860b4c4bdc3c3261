package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/graph"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// centralityHandler handles POST /api/centrality. Out-of-range parameters
// are clamped, never rejected.
func (s *Server) centralityHandler(c *echo.Context) error {
	var req CentralityHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params := graph.CentralityParams{
		TopN:           req.TopN,
		Damping:        req.DampingFactor,
		MaxIter:        req.MaxIterations,
		MinBetweenness: req.MinBetweenness,
		MinInDegree:    req.MinInDegree,
	}.Clamp()

	result, err := s.deps.Centrality.Compute(c.Request().Context(), params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// communitiesHandler handles POST /api/communities.
func (s *Server) communitiesHandler(c *echo.Context) error {
	var req CommunitiesHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.deps.Communities.Detect(c.Request().Context(), graph.CommunityParams{
		IncludeDepartmentOverlap: req.IncludeDepartmentOverlap,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// shortestPathHandler handles POST /api/shortest_path.
func (s *Server) shortestPathHandler(c *echo.Context) error {
	req, errs := bindPathRequest(c)
	if errs != nil {
		return validationFailed(c, errs)
	}

	path, err := s.deps.Pathfinding.ShortestPath(c.Request().Context(),
		models.NormalizeCourseCode(req.FromCourse), models.NormalizeCourseCode(req.ToCourse))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, path)
}

// alternativePathsHandler handles POST /api/alternative_paths. A zero or
// out-of-range num_alternatives falls back to the service default.
func (s *Server) alternativePathsHandler(c *echo.Context) error {
	req, errs := bindPathRequest(c)
	if errs != nil {
		return validationFailed(c, errs)
	}

	paths, err := s.deps.Pathfinding.AlternativePaths(c.Request().Context(),
		models.NormalizeCourseCode(req.FromCourse), models.NormalizeCourseCode(req.ToCourse), req.NumAlternatives)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"paths": paths})
}

func bindPathRequest(c *echo.Context) (PathHTTPRequest, []FieldError) {
	var req PathHTTPRequest
	if err := c.Bind(&req); err != nil {
		return req, []FieldError{{Field: "body", Reason: err.Error()}}
	}
	var errs []FieldError
	if req.FromCourse == "" {
		errs = append(errs, FieldError{Field: "from_course", Reason: "required"})
	}
	if req.ToCourse == "" {
		errs = append(errs, FieldError{Field: "to_course", Reason: "required"})
	}
	return req, errs
}

// prerequisitePathHandler handles POST /api/prerequisite_path: candidate
// prerequisite chains toward a target course, skipping completed work.
func (s *Server) prerequisitePathHandler(c *echo.Context) error {
	var req PrerequisitePathHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CourseCode == "" {
		return validationFailed(c, []FieldError{{Field: "course_code", Reason: "required"}})
	}

	paths, err := s.deps.Pathfinding.AncestorPaths(c.Request().Context(),
		models.NormalizeCourseCode(req.CourseCode), normalizeCodes(req.CompletedCourses))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"course_code": models.NormalizeCourseCode(req.CourseCode),
		"paths":       summarizePaths(paths),
	})
}

// semesterPlanHandler handles POST /api/semester_plan. Empty target_courses
// returns an empty plan rather than an error.
func (s *Server) semesterPlanHandler(c *echo.Context) error {
	var req SemesterPlanHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	targets := normalizeCodes(req.TargetCourses)
	if len(targets) == 0 {
		return c.JSON(http.StatusOK, graph.SemesterPlanResult{
			SemesterPlans:        []graph.SemesterPlan{},
			Unscheduled:          []models.CourseCode{},
			SchedulingEfficiency: 1.0,
		})
	}

	completed := make(map[models.CourseCode]bool)
	for _, code := range normalizeCodes(req.CompletedCourses) {
		completed[code] = true
	}

	result, err := s.deps.Pathfinding.OptimizeSemesterPlan(c.Request().Context(), targets, completed, req.MaxCreditsPerSemester)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ragWithGraphHandler handles POST /api/rag_with_graph: similarity search
// over the course collection, each hit enriched with prerequisite paths the
// student could still take.
func (s *Server) ragWithGraphHandler(c *echo.Context) error {
	var req RagWithGraphHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return validationFailed(c, []FieldError{{Field: "query", Reason: "required"}})
	}

	topK := req.TopK
	if topK <= 0 || topK > 20 {
		topK = 5
	}

	matches, err := s.deps.Vector.Search(c.Request().Context(), req.Query, topK)
	if err != nil {
		return mapError(err)
	}

	completed := normalizeCodes(req.CompletedCourses)
	results := make([]RagCourseResult, 0, len(matches))
	for _, m := range matches {
		result := RagCourseResult{CourseCode: m.CourseCode, Score: m.Score, Payload: m.Payload}
		code := models.NormalizeCourseCode(m.CourseCode)
		if code.Valid() {
			// Path lookups are best-effort decoration; a graph outage must
			// not empty the search results.
			if paths, pathErr := s.deps.Pathfinding.AncestorPaths(c.Request().Context(), code, completed); pathErr == nil {
				result.PrerequisitePaths = summarizePaths(paths)
			}
		}
		results = append(results, result)
	}

	return c.JSON(http.StatusOK, map[string]any{"query": req.Query, "courses": results})
}

// courseRecommendationsHandler handles POST /api/course_recommendations:
// similarity search seeded from interests, enriched with grade statistics.
func (s *Server) courseRecommendationsHandler(c *echo.Context) error {
	var req CourseRecommendationsHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Interests) == 0 {
		return validationFailed(c, []FieldError{{Field: "interests", Reason: "required"}})
	}

	topK := req.TopK
	if topK <= 0 || topK > 20 {
		topK = 5
	}

	query := ""
	for i, interest := range req.Interests {
		if i > 0 {
			query += ", "
		}
		query += interest
	}

	matches, err := s.deps.Vector.Search(c.Request().Context(), query, topK)
	if err != nil {
		return mapError(err)
	}

	completed := make(map[models.CourseCode]bool)
	for _, code := range normalizeCodes(req.CompletedCourses) {
		completed[code] = true
	}

	results := make([]CourseRecommendationResult, 0, len(matches))
	for _, m := range matches {
		code := models.NormalizeCourseCode(m.CourseCode)
		if completed[code] {
			continue
		}
		result := CourseRecommendationResult{CourseCode: code, Score: m.Score}
		if title, ok := m.Payload["title"].(string); ok {
			result.Title = title
		}
		if stats, statsErr := s.deps.Grades.Get(c.Request().Context(), code); statsErr == nil && stats != nil {
			result.MeanGPA = stats.MeanGPA
			if stats.DifficultyPercentile >= 80 {
				result.DifficultyWarning = "historically high difficulty"
			}
		}
		results = append(results, result)
	}

	return c.JSON(http.StatusOK, map[string]any{"recommendations": results})
}

// subgraphHandler handles POST /api/graph/subgraph: the prerequisite
// neighborhood around one course, flattened to nodes and edges.
func (s *Server) subgraphHandler(c *echo.Context) error {
	var req PrerequisitePathHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CourseCode == "" {
		return validationFailed(c, []FieldError{{Field: "course_code", Reason: "required"}})
	}

	center := models.NormalizeCourseCode(req.CourseCode)
	completed := make(map[models.CourseCode]bool)
	for _, code := range normalizeCodes(req.CompletedCourses) {
		completed[code] = true
	}

	paths, err := s.deps.Pathfinding.AncestorPaths(c.Request().Context(), center, normalizeCodes(req.CompletedCourses))
	if err != nil {
		return mapError(err)
	}

	seenNode := map[models.CourseCode]bool{center: true}
	seenEdge := map[string]bool{}
	resp := SubgraphResponse{
		Center: center,
		Nodes:  []SubgraphNode{{CourseCode: center, Completed: completed[center]}},
		Edges:  []SubgraphEdge{},
	}
	for _, p := range paths {
		for _, step := range p.Steps {
			for _, code := range []models.CourseCode{step.From, step.To} {
				if !seenNode[code] {
					seenNode[code] = true
					resp.Nodes = append(resp.Nodes, SubgraphNode{CourseCode: code, Completed: completed[code]})
				}
			}
			edgeKey := string(step.From) + "->" + string(step.To)
			if !seenEdge[edgeKey] {
				seenEdge[edgeKey] = true
				resp.Edges = append(resp.Edges, SubgraphEdge{From: step.From, To: step.To, Weight: step.Weight})
			}
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func summarizePaths(paths []graph.Path) []PathSummary {
	out := make([]PathSummary, 0, len(paths))
	for _, p := range paths {
		summary := PathSummary{TotalCost: p.TotalCost}
		for i, step := range p.Steps {
			if i == 0 {
				summary.Courses = append(summary.Courses, step.From)
			}
			summary.Courses = append(summary.Courses, step.To)
		}
		out = append(out, summary)
	}
	return out
}
