package dto

import (
	"encoding/json"
	"time"
)

type EnqueueRequest struct {
	Type        string          `json:"type" validate:"required"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority"`
	MaxAttempts int             `json:"max_attempts" validate:"gte=0,lte=20"`
	DelayMS     int64           `json:"delay_ms" validate:"gte=0"`
	Unique      string          `json:"unique,omitempty"`
}

type EnqueueResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Priority     int             `json:"priority"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	FailedAt     *time.Time      `json:"failed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProcessResponse struct {
	Processed int `json:"processed"`
}

type CleanupRequest struct {
	DaysToKeep int `json:"days_to_keep" validate:"gte=0,lte=3650"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
