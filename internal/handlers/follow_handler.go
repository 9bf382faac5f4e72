package handlers

import (
	"net/http"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow-related HTTP requests
type FollowHandler struct {
	followService *services.FollowService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.POST("/users/:id/follow/toggle", h.ToggleFollow)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.followService.Follow(c.Request().Context(), currentUserID, targetID); err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.followService.Unfollow(c.Request().Context(), currentUserID, targetID); err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// ToggleFollow flips the follow state the client believes is current
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req models.ToggleFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.followService.ToggleFollow(c.Request().Context(), currentUserID, targetID, req.CurrentlyFollowing)
	if err != nil {
		return c.JSON(StatusOf(err), echo.Map{"success": false, "data": result, "error": services.MessageOf(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	following, err := h.followService.IsFollowing(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	followers, err := h.followService.Followers(c.Request().Context(), userID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": followers}})
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	following, err := h.followService.Following(c.Request().Context(), userID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": following}})
}
