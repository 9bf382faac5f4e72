package handlers

import (
	"net/http"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/signout", h.SignOut)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": resp})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.authService.SignIn(c.Request().Context(), req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": resp})
}

// FirebaseLogin exchanges a Firebase ID token for a backend JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.authService.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": resp})
}

// SignOut is stateless; clients drop their token
func (h *AuthHandler) SignOut(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"signed_out": true}})
}
