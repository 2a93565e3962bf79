package queue

import "time"

// JobType selects the handler a job is dispatched to. The set is closed at
// startup: every type must have a handler registered before processing runs.
type JobType string

const (
	TypeSendSMS                    JobType = "send_sms"
	TypeSendBulkSMS                JobType = "send_bulk_sms"
	TypeExportEmployees            JobType = "export_employees"
	TypeRebuildCategoryStats       JobType = "rebuild_category_stats"
	TypeCategorizeHistoricalEvents JobType = "categorize_historical_events"
	TypeProcessBookingReminder     JobType = "process_booking_reminder"
	TypeProcessEventReminder       JobType = "process_event_reminder"
	TypeGenerateReport             JobType = "generate_report"
	TypeSyncCalendar               JobType = "sync_calendar"
	TypeCleanupOldData             JobType = "cleanup_old_data"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Payload is the handler-specific input carried by a job. When an Options
// Unique key is supplied the queue stores it under UniqueKeyField.
type Payload map[string]any

// UniqueKeyField is the payload member used for enqueue de-duplication.
const UniqueKeyField = "unique_key"

// Options tune a single enqueue call. The zero value means priority 0,
// three attempts, immediately eligible, no de-duplication.
type Options struct {
	Priority    int
	MaxAttempts int
	Delay       time.Duration
	Unique      string
}

const DefaultMaxAttempts = 3
