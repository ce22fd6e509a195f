package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/models"
)

// getSettingHandler handles GET /api/v2/setting/:key.
func (s *Server) getSettingHandler(c *echo.Context) error {
	setting, err := s.settings.GetSetting(c.Request().Context(), c.Param("key"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, models.SettingResponse{SystemSetting: setting})
}

// updateSettingHandler handles PUT /api/v2/setting/:key.
func (s *Server) updateSettingHandler(c *echo.Context) error {
	var req models.UpdateSettingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	setting, err := s.settings.UpdateSetting(c.Request().Context(), c.Param("key"), req.Value)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, models.SettingResponse{SystemSetting: setting})
}
