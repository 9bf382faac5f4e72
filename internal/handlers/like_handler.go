package handlers

import (
	"net/http"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeService *services.LikeService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/entries/:entry_id/likes", h.LikeEntry)
	g.DELETE("/entries/:entry_id/likes", h.UnlikeEntry)
	g.POST("/entries/:entry_id/likes/toggle", h.ToggleLike)
	g.GET("/entries/:entry_id/likes", h.GetLikeStatus)
}

// LikeEntry handles liking an entry
func (h *LikeHandler) LikeEntry(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if err := h.likeService.Like(c.Request().Context(), currentUserID, c.Param("entry_id")); err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": true}})
}

// UnlikeEntry handles unliking an entry
func (h *LikeHandler) UnlikeEntry(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if err := h.likeService.Unlike(c.Request().Context(), currentUserID, c.Param("entry_id")); err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": false}})
}

// ToggleLike flips the like state the client believes is current and
// answers with the stored count
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	var req models.ToggleLikeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.likeService.ToggleLike(c.Request().Context(), currentUserID, c.Param("entry_id"), req.CurrentlyLiked)
	if err != nil {
		return c.JSON(StatusOf(err), echo.Map{"success": false, "data": result, "error": services.MessageOf(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// GetLikeStatus returns the like count and whether the user liked the entry
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	entryID := c.Param("entry_id")

	count, err := h.likeService.LikeCount(c.Request().Context(), entryID)
	if err != nil {
		return fromService(err)
	}
	liked, err := h.likeService.HasLiked(c.Request().Context(), currentUserID, entryID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"entry_id": entryID, "count": count, "liked": liked}})
}
