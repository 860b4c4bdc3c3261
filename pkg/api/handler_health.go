package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/version"
)

// healthHandler handles GET /health: probes every external backend with a
// shared bounded deadline and reports per-service booleans. The status is
// "healthy" when every backend answers and "degraded" when any one is down;
// both are returned with HTTP 200.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	services := map[string]bool{
		"redis":  probe(reqCtx, s.deps.CheckRedis),
		"neo4j":  probe(reqCtx, s.deps.CheckNeo4j),
		"qdrant": probe(reqCtx, s.deps.CheckQdrant),
	}

	status := "healthy"
	code := http.StatusOK
	for _, up := range services {
		if !up {
			status = "degraded"
			code = http.StatusOK
			break
		}
	}

	return c.JSON(code, HealthResponse{
		Status:    status,
		Services:  services,
		Version:   version.Full(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func probe(ctx context.Context, check HealthCheck) bool {
	if check == nil {
		return false
	}
	return check(ctx)
}
