package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/three-good-things/backend/internal/export"
	"github.com/anonto42/three-good-things/backend/internal/imaging"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// EntryHandler handles HTTP requests for the signed-in user's entries
type EntryHandler struct {
	entryService *services.EntryService
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// RegisterEntryRoutes registers entry routes
func (h *EntryHandler) RegisterEntryRoutes(g *echo.Group) {
	g.GET("/entries", h.ListEntries)
	g.POST("/entries", h.CreateEntry)
	g.GET("/entries/search", h.SearchEntries)
	g.GET("/entries/tags", h.GetTags)
	g.GET("/entries/export", h.ExportEntries)
	g.GET("/entries/date/:date", h.GetEntryByDate)
	g.PUT("/entries/:id", h.UpdateEntry)
	g.DELETE("/entries/:id", h.DeleteEntry)
}

// ListEntries returns the user's entries, optionally bounded by from/to
func (h *EntryHandler) ListEntries(c echo.Context) error {
	userID := getUserIDFromContext(c)
	entries, err := h.entryService.List(c.Request().Context(), userID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"entries": entries}})
}

// GetEntryByDate returns the entry for one day; entry is null when none exists
func (h *EntryHandler) GetEntryByDate(c echo.Context) error {
	userID := getUserIDFromContext(c)
	entry, err := h.entryService.GetByDate(c.Request().Context(), userID, c.Param("date"))
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"entry": entry}})
}

// CreateEntry accepts JSON or a multipart form with an optional "image" file
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	userID := getUserIDFromContext(c)
	form, err := bindEntryForm(c)
	if err != nil {
		return err
	}
	entry, err := h.entryService.Create(c.Request().Context(), userID, form)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"entry": entry}})
}

func (h *EntryHandler) UpdateEntry(c echo.Context) error {
	userID := getUserIDFromContext(c)
	form, err := bindEntryForm(c)
	if err != nil {
		return err
	}
	entry, err := h.entryService.Update(c.Request().Context(), userID, c.Param("id"), form)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"entry": entry}})
}

func (h *EntryHandler) DeleteEntry(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if err := h.entryService.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return fromService(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchEntries filters by q, from, to and repeated tag parameters
func (h *EntryHandler) SearchEntries(c echo.Context) error {
	userID := getUserIDFromContext(c)
	var filters models.EntryFilters
	if err := c.Bind(&filters); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid search parameters")
	}
	filters.Tags = c.QueryParams()["tag"]

	entries, err := h.entryService.Search(c.Request().Context(), userID, filters)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"entries": entries}})
}

func (h *EntryHandler) GetTags(c echo.Context) error {
	userID := getUserIDFromContext(c)
	tags, err := h.entryService.UniqueTags(c.Request().Context(), userID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"tags": tags}})
}

// ExportEntries downloads the user's entries as ?format=json or csv
func (h *EntryHandler) ExportEntries(c echo.Context) error {
	userID := getUserIDFromContext(c)
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or csv")
	}
	file, err := h.entryService.Export(c.Request().Context(), userID, format, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fromService(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

func bindEntryForm(c echo.Context) (models.EntryForm, error) {
	var form models.EntryForm
	if err := c.Bind(&form); err != nil {
		return form, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	upload, err := readUpload(c, "image", imaging.MaxEntryImageBytes)
	if err != nil {
		return form, err
	}
	form.Image = upload
	return form, nil
}
