package api

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/forwarder"
)

// passthroughHandler mounts the forwarder behind the wildcard route
// registered last in setupRoutes, so every explicit /api/v2/* route
// takes priority. Authentication here is API-key based, resolved
// internally by the forwarder — it never touches the bearer-token auth
// the admin/API shell uses.
func (s *Server) passthroughHandler(c *echo.Context) error {
	path := c.Param("*")

	err := s.forwarder.Forward(c.Response(), c.Request(), path)
	if err == nil {
		return nil
	}

	var rateErr *forwarder.RateLimitedError
	switch {
	case errors.As(err, &rateErr):
		return echo.NewHTTPError(http.StatusTooManyRequests, rateErr.Error())
	case errors.Is(err, forwarder.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, forwarder.ErrNoBackendAvailable):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, forwarder.ErrBadModel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
