package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuthenticator map[string]uint

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (*models.JwtCustomClaims, error) {
	userID, ok := a[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &models.JwtCustomClaims{UserID: userID}, nil
}

func runMiddleware(t *testing.T, header string) (*httptest.ResponseRecorder, uint, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen uint
	handler := JWTAuthMiddleware(staticAuthenticator{"good": 7})(func(c echo.Context) error {
		seen = c.Get("user").(*models.JwtCustomClaims).UserID
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, seen, err
}

func TestJWTAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	rec, userID, err := runMiddleware(t, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), userID)

	_, userID, err = runMiddleware(t, "bearer   good")
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestJWTAuthMiddlewareRejects(t *testing.T) {
	for _, header := range []string{"", "good", "Basic good", "Bearer bad", "Bearer good extra"} {
		_, userID, err := runMiddleware(t, header)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr, header)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code, header)
		assert.Zero(t, userID)
	}
}
