package models

import "time"

// Schedule is a one-off appointment on a specific date.
type Schedule struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Location       string    `db:"location" json:"location"`
	Date           time.Time `db:"date" json:"date"`
	StartTime      string    `db:"start_time" json:"start_time"`
	StartSortKey   int       `db:"start_sort_key" json:"start_sort_key"`
	EndTime        *string   `db:"end_time" json:"end_time,omitempty"`
	EndSortKey     *int      `db:"end_sort_key" json:"end_sort_key,omitempty"`
	ReminderTime   *string   `db:"reminder_time" json:"reminder_time,omitempty"`
	ReminderHandle *string   `db:"reminder_handle" json:"reminder_handle,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Reminder returns the schedule's reminder binding.
func (s *Schedule) Reminder() *ReminderBinding {
	return NewReminderBinding(EntitySchedule, s.ID, s.ReminderHandle)
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	From     *time.Time
	To       *time.Time
	Search   string
	Page     int
	PageSize int
}
