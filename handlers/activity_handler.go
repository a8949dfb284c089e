package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"explore-backend/models"
	"explore-backend/services"
)

// ActivityRecorder stores reader activity and reports engine statistics
type ActivityRecorder interface {
	RecordView(ctx context.Context, bookID, userID int64) error
	RateBook(ctx context.Context, bookID, userID int64, score int) error
	Stats(ctx context.Context) (services.ExploreStats, error)
}

type ActivityHandler struct {
	activity ActivityRecorder
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activity ActivityRecorder) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// RecordView records that a user opened a book
// POST /api/v1/books/:id/views {"user_id": 7}
func (h *ActivityHandler) RecordView(c *gin.Context) {
	bookID, err := bookIDParam(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req models.RecordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id must be a positive integer")
		return
	}

	if err := h.activity.RecordView(c.Request.Context(), bookID, req.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "View recorded successfully",
		"book_id": bookID,
	})
}

// RateBook sets a user's score for a book
// PUT /api/v1/books/:id/rating {"user_id": 7, "score": 4}
func (h *ActivityHandler) RateBook(c *gin.Context) {
	bookID, err := bookIDParam(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req models.RateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id must be positive and score between 1 and 5")
		return
	}

	if err := h.activity.RateBook(c.Request.Context(), bookID, req.UserID, req.Score); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Rating saved successfully",
		"book_id": bookID,
		"score":   req.Score,
	})
}

// GetStats returns activity, global average, cache and breaker statistics
// GET /api/v1/explore/stats
func (h *ActivityHandler) GetStats(c *gin.Context) {
	stats, err := h.activity.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
