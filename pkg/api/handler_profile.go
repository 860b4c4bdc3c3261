package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// getProfileHandler handles GET /profiles/:student_id.
func (s *Server) getProfileHandler(c *echo.Context) error {
	id := c.Param("student_id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "student id is required")
	}

	profile, err := s.deps.Profiles.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if profile == nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, profile)
}

// putProfileHandler handles PUT /profiles/:student_id: a full replace. The
// path id wins over any id in the body.
func (s *Server) putProfileHandler(c *echo.Context) error {
	id := c.Param("student_id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "student id is required")
	}

	var profile models.StudentProfile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	profile.ID = id
	profile = profile.Normalize()

	if err := s.deps.Profiles.Put(c.Request().Context(), profile); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// patchProfileHandler handles PATCH /profiles/:student_id: an atomic
// prefer-incoming-non-empty merge.
func (s *Server) patchProfileHandler(c *echo.Context) error {
	id := c.Param("student_id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "student id is required")
	}

	var incoming models.StudentProfile
	if err := c.Bind(&incoming); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	incoming.ID = id

	merged, err := s.deps.Profiles.MergeAtomic(c.Request().Context(), incoming.Normalize())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, merged)
}
