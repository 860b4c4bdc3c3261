package api

import (
	"net/http"
	"regexp"

	echo "github.com/labstack/echo/v5"
)

// tagPattern bounds which cache tags the admin endpoint will bump, keeping
// operator typos from minting junk version counters.
var tagPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// invalidateCacheHandler handles POST /admin/cache/invalidate/:tag.
func (s *Server) invalidateCacheHandler(c *echo.Context) error {
	tag := c.Param("tag")
	if !tagPattern.MatchString(tag) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cache tag")
	}

	newVersion, err := s.deps.Cache.Invalidate(c.Request().Context(), tag)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, InvalidateCacheResponse{Tag: tag, NewVersion: newVersion})
}
