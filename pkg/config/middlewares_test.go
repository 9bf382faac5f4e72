package config

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupMiddlewareLogsAndCountsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New()
	e := echo.New()
	SetupMiddleware(e, zap.New(core), m)
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/items/7", entries[0].ContextMap()["uri"])

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.True(t, strings.Contains(body, `three_good_things_http_requests_total{method="GET",route="/items/:id",status="200"} 1`), body)
}

func TestSetupMiddlewareRejectsOversizedBodies(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e, zap.NewNop(), nil)
	e.POST("/upload", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(make([]byte, 9<<20))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(make([]byte, 6<<20))))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
