package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAgendaScan finds due sanitary agenda events and fans out reminders.
	TaskAgendaScan = "agenda:scan"
	// TaskAgendaReminder notifies about one due sanitary agenda event.
	TaskAgendaReminder = "agenda:reminder"
	// TaskShedSweep releases maintenance sheds whose cooldown has elapsed.
	TaskShedSweep = "shed:sweep"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// AgendaReminderPayload describes one due agenda event.
type AgendaReminderPayload struct {
	EventID     int64     `json:"eventId"`
	FarmID      int64     `json:"farmId"`
	BatchID     int64     `json:"batchId"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"dueAt"`
}

// NewAgendaReminderTask constructs a reminder task.
func NewAgendaReminderTask(payload AgendaReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAgendaReminder, data), nil
}

// NewAgendaScanTask constructs the periodic scan task.
func NewAgendaScanTask() *asynq.Task {
	return asynq.NewTask(TaskAgendaScan, nil)
}

// NewShedSweepTask constructs the periodic shed sweep task.
func NewShedSweepTask() *asynq.Task {
	return asynq.NewTask(TaskShedSweep, nil)
}

// NewIdempotencyCleanupTask constructs the periodic key-pruning task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
