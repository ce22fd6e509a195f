package api

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/models"
)

// defaultUsageWindow bounds GET /api/v2/apikey/:id/usage when the caller
// doesn't specify a window_minutes query param.
const defaultUsageWindow = 24 * time.Hour

// createApiKeyHandler handles POST /api/v2/apikey.
func (s *Server) createApiKeyHandler(c *echo.Context) error {
	claims, err := claimsFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateApiKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.apikeys.CreateApiKey(c.Request().Context(), claims.UserID, req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// listApiKeysHandler handles GET /api/v2/apikey.
func (s *Server) listApiKeysHandler(c *echo.Context) error {
	claims, err := claimsFromContext(c)
	if err != nil {
		return err
	}

	result, err := s.apikeys.ListApiKeys(c.Request().Context(), claims.UserID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// revokeApiKeyHandler handles DELETE /api/v2/apikey/:id.
func (s *Server) revokeApiKeyHandler(c *echo.Context) error {
	if _, err := claimsFromContext(c); err != nil {
		return err
	}

	if err := s.apikeys.RevokeApiKey(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// apiKeyUsageHandler handles GET /api/v2/apikey/:id/usage.
func (s *Server) apiKeyUsageHandler(c *echo.Context) error {
	if _, err := claimsFromContext(c); err != nil {
		return err
	}

	window := defaultUsageWindow
	if v := c.QueryParam("window_minutes"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "window_minutes must be a positive integer")
		}
		window = time.Duration(minutes) * time.Minute
	}

	stats, err := s.apikeys.UsageStats(c.Request().Context(), c.Param("id"), window)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
