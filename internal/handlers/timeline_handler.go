package handlers

import (
	"net/http"

	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// TimelineHandler serves the public timeline of every user's entries
type TimelineHandler struct {
	entryService *services.EntryService
}

// NewTimelineHandler creates a new TimelineHandler
func NewTimelineHandler(entryService *services.EntryService) *TimelineHandler {
	return &TimelineHandler{entryService: entryService}
}

// RegisterTimelineRoutes registers timeline routes
func (h *TimelineHandler) RegisterTimelineRoutes(g *echo.Group) {
	g.GET("/timeline", h.GetTimeline)
}

// GetTimeline returns entries newest first with author and like state
func (h *TimelineHandler) GetTimeline(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit, offset := pagination(c)

	entries, err := h.entryService.PublicTimeline(c.Request().Context(), currentUserID, limit, offset)
	if err != nil {
		return fromService(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"entries": entries,
		},
		"meta": pageMeta(page, limit, len(entries)),
	})
}
