// Package api wires the service layer to an HTTP surface: the JWT-gated
// admin/API shell (CRUD over users, endpoints, models, API keys, plans,
// and settings) plus the root-level passthrough that forwards to the
// fleet itself.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/ollamafleet/router/pkg/auth"
	"github.com/ollamafleet/router/pkg/config"
	"github.com/ollamafleet/router/pkg/database"
	"github.com/ollamafleet/router/pkg/forwarder"
	"github.com/ollamafleet/router/pkg/services"
	"github.com/ollamafleet/router/pkg/version"
)

// Server is the HTTP API server: the JWT-gated admin/API shell plus the
// API-key-gated passthrough, served from one Echo instance.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg      *config.Config
	dbClient *database.Client
	issuer   *auth.TokenIssuer

	users     *services.UserService
	endpoints *services.EndpointService
	models    *services.ModelService
	apikeys   *services.ApiKeyService
	plans     *services.PlanService
	settings  *services.SettingService

	forwarder *forwarder.Forwarder
}

// NewServer creates a new API server with Echo v5, wiring every service
// and registering the full route table.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	issuer *auth.TokenIssuer,
	users *services.UserService,
	endpoints *services.EndpointService,
	models *services.ModelService,
	apikeys *services.ApiKeyService,
	plans *services.PlanService,
	settings *services.SettingService,
	fwd *forwarder.Forwarder,
) *Server {
	e := echo.New()

	s := &Server{
		echo:      e,
		cfg:       cfg,
		dbClient:  dbClient,
		issuer:    issuer,
		users:     users,
		endpoints: endpoints,
		models:    models,
		apikeys:   apikeys,
		plans:     plans,
		settings:  settings,
		forwarder: fwd,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers every route. The passthrough is registered last
// so the explicit /api/v2/* routes always win against its wildcard.
func (s *Server) setupRoutes() {
	// Bounds the inbound body Echo will buffer before handing it to a
	// handler; generous enough for batch endpoint creation without
	// admitting multi-MB abuse on the admin shell. Installed with Use, so
	// it also bounds the request bodies relayed by the passthrough route.
	s.echo.Use(middleware.BodyLimit(4 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	v2 := s.echo.Group("/api/v2")

	v2.POST("/user/init", s.initUserHandler)
	v2.POST("/user/login", s.loginHandler)

	userAdmin := v2.Group("/user", auth.RequireBearer(s.issuer), auth.RequireAdmin)
	userAdmin.GET("", s.listUsersHandler)
	userAdmin.POST("", s.createUserHandler)
	userAdmin.GET("/:id", s.getUserHandler)
	userAdmin.PATCH("/:id", s.updateUserHandler)

	endpointRead := v2.Group("/endpoint", auth.RequireBearer(s.issuer))
	endpointRead.GET("", s.listEndpointsHandler)
	endpointRead.GET("/:id", s.getEndpointHandler)

	endpointAdmin := v2.Group("/endpoint", auth.RequireBearer(s.issuer), auth.RequireAdmin)
	endpointAdmin.POST("", s.createEndpointHandler)
	endpointAdmin.POST("/batch", s.createEndpointBatchHandler)
	endpointAdmin.PATCH("/:id", s.updateEndpointHandler)
	endpointAdmin.DELETE("/:id", s.deleteEndpointHandler)
	endpointAdmin.POST("/:id/test", s.testEndpointHandler)

	model := v2.Group("/ai_model", auth.RequireBearer(s.issuer))
	model.GET("", s.listModelsHandler)

	apikey := v2.Group("/apikey", auth.RequireBearer(s.issuer))
	apikey.POST("", s.createApiKeyHandler)
	apikey.GET("", s.listApiKeysHandler)
	apikey.DELETE("/:id", s.revokeApiKeyHandler)
	apikey.GET("/:id/usage", s.apiKeyUsageHandler)

	planRead := v2.Group("/plan", auth.RequireBearer(s.issuer))
	planRead.GET("", s.listPlansHandler)
	planRead.GET("/:id", s.getPlanHandler)

	planAdmin := v2.Group("/plan", auth.RequireBearer(s.issuer), auth.RequireAdmin)
	planAdmin.POST("", s.createPlanHandler)
	planAdmin.PATCH("/:id", s.updatePlanHandler)

	setting := v2.Group("/setting", auth.RequireBearer(s.issuer), auth.RequireAdmin)
	setting.GET("/:key", s.getSettingHandler)
	setting.PUT("/:key", s.updateSettingHandler)

	s.echo.Any("/*", s.passthroughHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database"`
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:   "unhealthy",
			Version:  version.Full(),
			Database: dbHealth,
		})
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:   "healthy",
		Version:  version.Full(),
		Database: dbHealth,
	})
}
