package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/ollamafleet/router/pkg/auth"
)

// claimsFromContext reads the Claims RequireBearer stored on c. Handlers
// reachable only through a route group wrapped in RequireBearer can
// assume this always succeeds; it's still checked defensively since a
// misrouted call would otherwise panic on a nil pointer deref.
func claimsFromContext(c *echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(auth.ClaimsContextKey).(*auth.Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	return claims, nil
}
