package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/models"
)

// listModelsHandler handles GET /api/v2/ai_model.
func (s *Server) listModelsHandler(c *echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	filters := models.AIModelFilters{
		Search:  c.QueryParam("search"),
		OrderBy: c.QueryParam("order_by"),
		Order:   c.QueryParam("order"),
		Page:    page,
		Size:    size,
	}

	result, err := s.models.ListModels(c.Request().Context(), filters)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}
