package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"venueq/common"
	"venueq/internal/dto"
	"venueq/internal/models"
	"venueq/internal/queue"
	"venueq/middleware"
)

// JobHandler exposes the queue over HTTP for the admin application and for
// the platform's scheduled trigger.
type JobHandler struct {
	queue        *queue.Queue
	processLimit int
}

func NewJobHandler(q *queue.Queue, processLimit int) *JobHandler {
	return &JobHandler{queue: q, processLimit: processLimit}
}

// Enqueue handles POST /jobs.
func (h *JobHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueRequest
	if !middleware.Bind(c, &req) {
		return
	}

	var payload queue.Payload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			c.Error(common.Errf(http.StatusBadRequest, "payload must be a JSON object"))
			return
		}
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), queue.JobType(req.Type), payload, queue.Options{
		Priority:    req.Priority,
		MaxAttempts: req.MaxAttempts,
		Delay:       time.Duration(req.DelayMS) * time.Millisecond,
		Unique:      req.Unique,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.EnqueueResponse{JobID: jobID})
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.queue.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toResponse(job))
}

// List handles GET /jobs?status=&limit=.
func (h *JobHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	jobs, err := h.queue.ListJobs(c.Request.Context(), queue.Status(c.Query("status")), limit)
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]dto.JobResponse, len(jobs))
	for i := range jobs {
		out[i] = toResponse(&jobs[i])
	}
	c.JSON(http.StatusOK, out)
}

// Cancel handles POST /jobs/:id/cancel.
func (h *JobHandler) Cancel(c *gin.Context) {
	if err := h.queue.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Process handles POST /jobs/process, the manual drain trigger.
func (h *JobHandler) Process(c *gin.Context) {
	processed, err := h.queue.ProcessJobs(c.Request.Context(), h.processLimit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ProcessResponse{Processed: processed})
}

// Cleanup handles POST /jobs/cleanup.
func (h *JobHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if !middleware.Bind(c, &req) {
		return
	}

	deleted, err := h.queue.Cleanup(c.Request.Context(), req.DaysToKeep)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.CleanupResponse{Deleted: deleted})
}

func toResponse(job *models.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:           job.ID,
		Type:         job.Type,
		Payload:      json.RawMessage(job.Payload),
		Status:       job.Status,
		Priority:     job.Priority,
		Attempts:     job.Attempts,
		MaxAttempts:  job.MaxAttempts,
		ScheduledFor: job.ScheduledFor,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		FailedAt:     job.FailedAt,
		ErrorMessage: job.ErrorMessage,
		Result:       json.RawMessage(job.Result),
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
