package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// calendarExportHandler handles GET /calendar/export.ics?courses=...&student_name=...
// with courses as a comma-separated list of course codes.
func (s *Server) calendarExportHandler(c *echo.Context) error {
	if s.deps.Calendar == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "calendar export not available")
	}

	rawCourses := c.QueryParam("courses")
	if rawCourses == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "courses query parameter is required")
	}
	codes := normalizeCodes(strings.Split(rawCourses, ","))
	if len(codes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no valid course codes in courses parameter")
	}

	ics, err := s.deps.Calendar.Export(c.Request().Context(), c.QueryParam("student_name"), codes)
	if err != nil {
		return mapError(err)
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	return c.Blob(http.StatusOK, "text/calendar", []byte(ics))
}
