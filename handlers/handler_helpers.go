package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"explore-backend/logging"
	"explore-backend/models"
	"explore-backend/services"
)

// UserIDHeader optionally identifies the reader on feed requests
const UserIDHeader = "X-User-ID"

// =============================================================================
// Response Helpers
// =============================================================================

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, code int, error, message string) {
	c.JSON(code, models.ErrorResponse{
		Error:     error,
		Message:   message,
		Code:      code,
		RequestID: logging.RequestIDFromContext(c.Request.Context()),
	})
}

// respondBadRequest sends a 400 error response
func respondBadRequest(c *gin.Context, message string) {
	respondWithError(c, http.StatusBadRequest, "Invalid request", message)
}

// respondServiceError maps a service error to its HTTP status
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		respondBadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondWithError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		respondWithError(c, http.StatusServiceUnavailable, "Service unavailable", "storage is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusGatewayTimeout, "Timeout", "request took too long")
	default:
		respondWithError(c, http.StatusInternalServerError, "Internal error", "unexpected error")
	}
}

// =============================================================================
// Request Helpers
// =============================================================================

// optionalUserID reads the caller's user id from the X-User-ID header or the
// user_id query parameter. A missing id means an anonymous request.
func optionalUserID(c *gin.Context) (*int64, error) {
	raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("user_id"))
	}
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("user id must be a positive integer")
	}
	return &id, nil
}

// bookIDParam parses the :id path segment
func bookIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("book id must be a positive integer")
	}
	return id, nil
}
