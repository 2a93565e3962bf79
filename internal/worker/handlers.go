// Package worker wires the per-type job handlers into the queue's registry.
// Handlers are collaborators from the queue's point of view: they get a raw
// payload and return a result or an error, nothing more.
package worker

import (
	"go.uber.org/zap"

	"venueq/internal/queue"
	"venueq/internal/sms"
	"venueq/internal/storage/postgres"
)

// Deps carries everything the handlers need. The queue reference is used by
// cleanup_old_data, which is itself a job.
type Deps struct {
	Queue        *queue.Queue
	SMS          *sms.Client
	Messaging    *postgres.MessagingRepository
	Logger       *zap.Logger
	ContactPhone string
}

// Register binds one handler per job type. Every JobType the queue knows
// must be covered here; a type without a handler fails at dispatch.
func Register(reg *queue.Registry, d Deps) {
	reg.Register(queue.TypeSendSMS, d.sendSMS)
	reg.Register(queue.TypeSendBulkSMS, d.sendBulkSMS)
	reg.Register(queue.TypeExportEmployees, d.exportEmployees)
	reg.Register(queue.TypeRebuildCategoryStats, d.rebuildCategoryStats)
	reg.Register(queue.TypeCategorizeHistoricalEvents, d.categorizeHistoricalEvents)
	reg.Register(queue.TypeProcessBookingReminder, d.processBookingReminder)
	reg.Register(queue.TypeProcessEventReminder, d.processEventReminder)
	reg.Register(queue.TypeGenerateReport, d.generateReport)
	reg.Register(queue.TypeSyncCalendar, d.syncCalendar)
	reg.Register(queue.TypeCleanupOldData, d.cleanupOldData)
}
