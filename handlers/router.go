package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
}

// NewRouter wires every route
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRouter(cfg RouterConfig, explore *ExploreHandler, activity *ActivityHandler, logger zerolog.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger), RequestTimeout(cfg.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/explore", explore.GetExplore)
		v1.GET("/explore/stats", activity.GetStats)
		v1.GET("/recommendations", explore.GetRecommendations)
		v1.POST("/books/:id/views", activity.RecordView)
		v1.PUT("/books/:id/rating", activity.RateBook)
	}

	return r
}
