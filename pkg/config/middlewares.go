package config

import (
	"strconv"

	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// MaxRequestBody leaves room for a 5MB entry image plus the form fields.
const MaxRequestBody = "8M"

// SetupMiddleware installs request logging, panic recovery, a request body cap and CORS. Every
// request is counted in m by method, route and status.
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, m *metrics.Metrics) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			m.HTTPRequest(v.Method, v.RoutePath, strconv.Itoa(v.Status))
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= 500 {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxRequestBody))
	e.Use(middleware.CORS())
}
