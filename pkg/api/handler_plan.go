package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/models"
)

// createPlanHandler handles POST /api/v2/plan.
func (s *Server) createPlanHandler(c *echo.Context) error {
	var req models.CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.plans.CreatePlan(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

// updatePlanHandler handles PATCH /api/v2/plan/:id.
func (s *Server) updatePlanHandler(c *echo.Context) error {
	var req models.UpdatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.plans.UpdatePlan(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// getPlanHandler handles GET /api/v2/plan/:id.
func (s *Server) getPlanHandler(c *echo.Context) error {
	p, err := s.plans.GetPlan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// listPlansHandler handles GET /api/v2/plan.
func (s *Server) listPlansHandler(c *echo.Context) error {
	plans, err := s.plans.ListPlans(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}

	out := make([]models.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, models.PlanResponse{Plan: p})
	}
	return c.JSON(http.StatusOK, models.PlanListResponse{Plans: out})
}
