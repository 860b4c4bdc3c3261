package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/gradesdata"
	"github.com/tfpre/CourseNavigator-sub000/pkg/orchestrator"
)

// FieldError is one entry of a 422 validation_errors array.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// validationFailed renders the structured 422 body for request validation
// failures.
func validationFailed(c *echo.Context, errs []FieldError) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"error":             "validation_failed",
		"validation_errors": errs,
	})
}

// mapError maps service-layer errors to HTTP error responses.
func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, gradesdata.ErrCourseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "course not found")
	case errors.Is(err, orchestrator.ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	case errors.Is(err, orchestrator.ErrRecommendationIndex):
		return echo.NewHTTPError(http.StatusBadRequest, "recommendation index out of range")
	case errors.Is(err, orchestrator.ErrShuttingDown):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service shutting down")
	}

	slog.Error("unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
