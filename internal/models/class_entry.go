package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassEntry is a weekly recurring class. Weekdays holds canonical weekday
// names, or the single value "TBA" while the days are not yet known.
type ClassEntry struct {
	ID             string         `db:"id" json:"id"`
	Subject        string         `db:"subject" json:"subject"`
	Instructor     string         `db:"instructor" json:"instructor"`
	Room           string         `db:"room" json:"room"`
	Weekdays       pq.StringArray `db:"weekdays" json:"weekdays"`
	StartTime      string         `db:"start_time" json:"start_time"`
	StartSortKey   int            `db:"start_sort_key" json:"start_sort_key"`
	EndTime        string         `db:"end_time" json:"end_time"`
	EndSortKey     int            `db:"end_sort_key" json:"end_sort_key"`
	ReminderTime   *string        `db:"reminder_time" json:"reminder_time,omitempty"`
	ReminderHandle *string        `db:"reminder_handle" json:"reminder_handle,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Reminder returns the class entry's reminder binding.
func (c *ClassEntry) Reminder() *ReminderBinding {
	return NewReminderBinding(EntityClassEntry, c.ID, c.ReminderHandle)
}

// ClassEntryFilter defines filter criteria for listing class entries.
type ClassEntryFilter struct {
	Weekday  string
	Search   string
	Page     int
	PageSize int
}
