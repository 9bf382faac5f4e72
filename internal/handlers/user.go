package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/three-good-things/backend/internal/imaging"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler serves the user's own profile and other users' public profiles
type UserHandler struct {
	profileService *services.ProfileService
	userService    *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profileService *services.ProfileService, userService *services.UserService) *UserHandler {
	return &UserHandler{profileService: profileService, userService: userService}
}

// RegisterProfileRoutes registers profile and user discovery routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/profile/avatar", h.UploadAvatar)
	g.DELETE("/profile/avatar", h.DeleteAvatar)

	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/suggested", h.SuggestedUsers)
	g.GET("/users/:id", h.GetUser)
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.profileService.Get(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": profile}})
}

// UpdateProfile changes the display name
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	profile, err := h.profileService.UpdateDisplayName(c.Request().Context(), getUserIDFromContext(c), req.DisplayName)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": profile}})
}

// UploadAvatar expects a multipart "avatar" file
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	upload, err := readUpload(c, "avatar", imaging.MaxAvatarBytes)
	if err != nil {
		return err
	}
	if upload == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}

	profile, err := h.profileService.UploadAvatar(c.Request().Context(), getUserIDFromContext(c), *upload)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": profile}})
}

func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	profile, err := h.profileService.DeleteAvatar(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": profile}})
}

// GetUser returns a public profile with follower, following and entry counts
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	profile, err := h.userService.PublicProfile(c.Request().Context(), getUserIDFromContext(c), userID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": profile}})
}

// SearchUsers matches ?q= against display names and emails
func (h *UserHandler) SearchUsers(c echo.Context) error {
	results, err := h.userService.Search(c.Request().Context(), getUserIDFromContext(c), c.QueryParam("q"))
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": results}})
}

func (h *UserHandler) SuggestedUsers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	profiles, err := h.userService.Suggested(c.Request().Context(), getUserIDFromContext(c), limit)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": profiles}})
}
