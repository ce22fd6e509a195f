package auth

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// ClaimsContextKey is where RequireBearer stores verified Claims on the
// echo.Context, for handlers to read via c.Get(ClaimsContextKey).
const ClaimsContextKey = "auth_claims"

// RequireBearer verifies the Authorization: Bearer <token> header
// against issuer and stores the resulting Claims on the request
// context. Used to gate every /api/v2 route except /user/init and
// /user/login; the
// forwarder's API-key auth is separate (pkg/auth.ExtractAPIKey +
// ApiKeyService.Authenticate) since API keys and admin bearer tokens
// are different credentials. One concern per function, no
// framework-wide auth abstraction.
func RequireBearer(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := issuer.Parse(strings.TrimPrefix(header, prefix))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ClaimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireBearer. It rejects callers whose
// token does not carry is_admin.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		claims, ok := c.Get(ClaimsContextKey).(*Claims)
		if !ok || !claims.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
		}
		return next(c)
	}
}
