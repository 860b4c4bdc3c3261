package api

import (
	"net/http"
	"regexp"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// pathCodePattern accepts both "CS 2110" and "CS2110" path segments.
var pathCodePattern = regexp.MustCompile(`^([A-Za-z]{2,4}) ?([0-9]{3,4}[A-Za-z]?)$`)

// courseCodeFromPath canonicalizes a course-code path segment, returning an
// invalid code when the segment cannot be parsed.
func courseCodeFromPath(raw string) models.CourseCode {
	m := pathCodePattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return models.NormalizeCourseCode(m[1] + " " + m[2])
}

// gradesHandler handles GET /grades/:course_code. The path segment arrives
// URL-encoded ("CS%202110") or space-free ("CS2110"); both are accepted.
func (s *Server) gradesHandler(c *echo.Context) error {
	code := courseCodeFromPath(c.Param("course_code"))
	if !code.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course code")
	}

	stats, err := s.deps.Grades.Get(c.Request().Context(), code)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
