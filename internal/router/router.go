package router

import (
	"github.com/anonto42/three-good-things/backend/internal/handlers"
	"github.com/anonto42/three-good-things/backend/internal/middleware"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/anonto42/three-good-things/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Auth          *services.AuthService
	Entries       *services.EntryService
	Follows       *services.FollowService
	Likes         *services.LikeService
	Notifications *services.NotificationService
	Profiles      *services.ProfileService
	Users         *services.UserService
	Logger        *zap.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(deps.Auth)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Debug("auth routes configured")

	// --- Protected routes (require a backend JWT or Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Auth))

	handlers.NewEntryHandler(deps.Entries).RegisterEntryRoutes(api)
	handlers.NewTimelineHandler(deps.Entries).RegisterTimelineRoutes(api)
	handlers.NewLikeHandler(deps.Likes).RegisterLikeRoutes(api)
	handlers.NewFollowHandler(deps.Follows).RegisterFollowRoutes(api)
	handlers.NewUserHandler(deps.Profiles, deps.Users).RegisterProfileRoutes(api)
	handlers.NewNotificationHandler(deps.Notifications).RegisterNotificationRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
}
