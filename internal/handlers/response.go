package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:  http.StatusBadRequest,
	services.KindAuth:        http.StatusUnauthorized,
	services.KindNotFound:    http.StatusNotFound,
	services.KindDomain:      http.StatusConflict,
	services.KindStorage:     http.StatusBadGateway,
	services.KindPersistence: http.StatusInternalServerError,
}

// getUserIDFromContext returns the authenticated user's ID, or 0.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// StatusOf maps a service error onto an HTTP status code.
func StatusOf(err error) int {
	if status, ok := statusByKind[services.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// fromService converts a service error into an HTTP error.
func fromService(err error) error {
	httpErr := echo.NewHTTPError(StatusOf(err), services.MessageOf(err))
	return httpErr.SetInternal(err)
}

// ErrorHandler writes every error as {"success": false, "error": message}.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := http.StatusText(status)

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(status)
			}
			if httpErr.Internal != nil {
				err = httpErr.Internal
			}
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"success": false, "error": message})
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

// pagination reads page (1-based) and limit query parameters.
func pagination(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit, (page - 1) * limit
}

func pageMeta(page, limit, count int) echo.Map {
	return echo.Map{
		"currentPage":     page,
		"itemsPerPage":    limit,
		"hasNextPage":     count == limit,
		"hasPreviousPage": page > 1,
	}
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// readUpload reads an optional multipart file. At most limit+1 bytes are
// read so oversized files can still be reported as too large.
func readUpload(c echo.Context, field string, limit int) (*models.ImageUpload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid file upload")
	}
	data, err := readFile(header, limit)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	return &models.ImageUpload{Filename: header.Filename, Data: data}, nil
}

func readFile(header *multipart.FileHeader, limit int) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(io.LimitReader(src, int64(limit)+1))
}
