package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"explore-backend/logging"
	"explore-backend/models"
)

// FeedComposer builds Explore feeds
type FeedComposer interface {
	ComposeExploreFeed(ctx context.Context, userID *int64) ([]models.Category, error)
	Recommend(ctx context.Context, userID int64) (models.Category, error)
}

type ExploreHandler struct {
	explore FeedComposer
}

// NewExploreHandler creates a new explore handler
func NewExploreHandler(explore FeedComposer) *ExploreHandler {
	return &ExploreHandler{explore: explore}
}

// GetExplore returns the composed Explore feed
// GET /api/v1/explore (optional X-User-ID header or ?user_id=)
func (h *ExploreHandler) GetExplore(c *gin.Context) {
	userID, err := optionalUserID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	categories, err := h.explore.ComposeExploreFeed(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ExploreResponse{
		Categories: categories,
		Metadata:   models.NewResponseMetadata(categories, logging.RequestIDFromContext(c.Request.Context())),
	})
}

// GetRecommendations returns the personalized category alone
// GET /api/v1/recommendations (X-User-ID header or ?user_id= required)
func (h *ExploreHandler) GetRecommendations(c *gin.Context) {
	userID, err := optionalUserID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if userID == nil {
		respondWithError(c, http.StatusBadRequest, "Missing parameter", "user_id is required")
		return
	}

	category, err := h.explore.Recommend(c.Request.Context(), *userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
