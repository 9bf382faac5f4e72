package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// Authenticator resolves a bearer token into the caller's claims. Backend
// JWTs and Firebase ID tokens are both accepted by the service behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JwtCustomClaims, error)
}

// JWTAuthMiddleware checks for a valid token and stores the claims under "user".
func JWTAuthMiddleware(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := authenticator.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
			}

			c.Set("user", claims)
			return next(c)
		}
	}
}
