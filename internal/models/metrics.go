package models

import "time"

// SystemMetrics is a JSON snapshot of the process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	RemindersScheduled       uint64    `json:"reminders_scheduled"`
	RemindersCancelled       uint64    `json:"reminders_cancelled"`
	ReminderCancelFailures   uint64    `json:"reminder_cancel_failures"`
	ReminderScheduleFailures uint64    `json:"reminder_schedule_failures"`
	NotificationsDelivered   uint64    `json:"notifications_delivered"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
