package dto

type ExportEmployeesPayload struct {
	Filters map[string]string `json:"filters,omitempty"`
}

type GenerateReportPayload struct {
	ReportType string `json:"report_type" validate:"required,oneof=bookings revenue loyalty messages"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

type SyncCalendarPayload struct {
	CalendarID string `json:"calendar_id" validate:"required"`
}

type CleanupOldDataPayload struct {
	DaysToKeep int `json:"days_to_keep" validate:"gte=0,lte=3650"`
}

type BookingReminderPayload struct {
	BookingID string `json:"booking_id" validate:"required"`
}

type EventReminderPayload struct {
	EventID string `json:"event_id" validate:"required"`
}

type CategorizeEventsPayload struct {
	Since string `json:"since,omitempty"`
}
