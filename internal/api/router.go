package api

import (
	"github.com/gin-gonic/gin"

	"venueq/internal/queue"
	"venueq/middleware"
)

// NewRouter builds the gin engine with the job routes mounted.
func NewRouter(q *queue.Queue, processLimit int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ErrorHandler())

	h := NewJobHandler(q, processLimit)

	jobs := r.Group("/jobs")
	{
		jobs.POST("", h.Enqueue)
		jobs.GET("", h.List)
		jobs.GET("/:id", h.Get)
		jobs.POST("/:id/cancel", h.Cancel)
		jobs.POST("/process", h.Process)
		jobs.POST("/cleanup", h.Cleanup)
	}

	return r
}
