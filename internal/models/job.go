package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job is the durable record behind the queue. All lifecycle state lives in
// this row; the queue never keeps job state in memory.
type Job struct {
	ID           string         `gorm:"type:varchar(36);primaryKey"`
	Type         string         `gorm:"type:varchar(255);not null;index"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	Status       string         `gorm:"type:varchar(50);not null;default:'pending';index:idx_jobs_eligible,priority:1"`
	Priority     int            `gorm:"not null;default:0"`
	Attempts     int            `gorm:"not null;default:0"`
	MaxAttempts  int            `gorm:"not null;default:3"`
	ScheduledFor time.Time      `gorm:"not null;index:idx_jobs_eligible,priority:2"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	FailedAt     *time.Time
	ErrorMessage string         `gorm:"type:text"`
	Result       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.ScheduledFor.IsZero() {
		j.ScheduledFor = time.Now()
	}
	return nil
}
