package models

import "time"

// Task is a to-do item with an optional due date and time.
type Task struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Notes          string     `db:"notes" json:"notes"`
	DueDate        *time.Time `db:"due_date" json:"due_date,omitempty"`
	DueTime        *string    `db:"due_time" json:"due_time,omitempty"`
	SortKey        *int       `db:"sort_key" json:"sort_key,omitempty"`
	Completed      bool       `db:"completed" json:"completed"`
	ReminderTime   *string    `db:"reminder_time" json:"reminder_time,omitempty"`
	ReminderHandle *string    `db:"reminder_handle" json:"reminder_handle,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Reminder returns the task's reminder binding.
func (t *Task) Reminder() *ReminderBinding {
	return NewReminderBinding(EntityTask, t.ID, t.ReminderHandle)
}

// TaskFilter describes query params for listing tasks.
type TaskFilter struct {
	Completed *bool
	From      *time.Time
	To        *time.Time
	Search    string
	Page      int
	PageSize  int
}
