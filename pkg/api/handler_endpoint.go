package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/models"
)

// createEndpointHandler handles POST /api/v2/endpoint.
func (s *Server) createEndpointHandler(c *echo.Context) error {
	var req models.CreateEndpointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ep, err := s.endpoints.CreateEndpoint(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, ep)
}

// createEndpointBatchHandler handles POST /api/v2/endpoint/batch.
func (s *Server) createEndpointBatchHandler(c *echo.Context) error {
	var req models.BatchCreateEndpointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	eps, err := s.endpoints.CreateEndpointBatch(c.Request().Context(), req.Endpoints)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, eps)
}

// updateEndpointHandler handles PATCH /api/v2/endpoint/:id.
func (s *Server) updateEndpointHandler(c *echo.Context) error {
	var req models.UpdateEndpointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ep, err := s.endpoints.UpdateEndpoint(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ep)
}

// deleteEndpointHandler handles DELETE /api/v2/endpoint/:id.
func (s *Server) deleteEndpointHandler(c *echo.Context) error {
	if err := s.endpoints.DeleteEndpoint(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// testEndpointHandler handles POST /api/v2/endpoint/:id/test.
func (s *Server) testEndpointHandler(c *echo.Context) error {
	if err := s.endpoints.TestEndpoint(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

// getEndpointHandler handles GET /api/v2/endpoint/:id.
func (s *Server) getEndpointHandler(c *echo.Context) error {
	ep, err := s.endpoints.GetEndpoint(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ep)
}

// listEndpointsHandler handles GET /api/v2/endpoint.
func (s *Server) listEndpointsHandler(c *echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	filters := models.EndpointFilters{
		Search:  c.QueryParam("search"),
		OrderBy: c.QueryParam("order_by"),
		Order:   c.QueryParam("order"),
		Page:    page,
		Size:    size,
	}

	result, err := s.endpoints.ListEndpoints(c.Request().Context(), filters)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}
