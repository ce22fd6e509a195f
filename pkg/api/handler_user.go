package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/pkg/models"
)

// initUserHandler handles POST /api/v2/user/init — creates the first
// admin user. Only succeeds while the user table is empty.
func (s *Server) initUserHandler(c *echo.Context) error {
	var req models.InitUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := s.users.InitFirstAdmin(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// loginHandler handles POST /api/v2/user/login.
func (s *Server) loginHandler(c *echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := s.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	token, err := s.issuer.Issue(u.ID, u.IsAdmin)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, models.LoginResponse{AccessToken: token, TokenType: "bearer"})
}

// listUsersHandler handles GET /api/v2/user.
func (s *Server) listUsersHandler(c *echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	result, err := s.users.ListUsers(c.Request().Context(), page, size)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// createUserHandler handles POST /api/v2/user.
func (s *Server) createUserHandler(c *echo.Context) error {
	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := s.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// getUserHandler handles GET /api/v2/user/:id.
func (s *Server) getUserHandler(c *echo.Context) error {
	u, err := s.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// updateUserHandler handles PATCH /api/v2/user/:id.
func (s *Server) updateUserHandler(c *echo.Context) error {
	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := s.users.UpdateUser(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// toUserResponse projects an ent.User onto the wire DTO, leaving
// PasswordHash behind.
func toUserResponse(u *ent.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		PlanID:    u.PlanID,
		CreatedAt: u.CreatedAt,
	}
}
