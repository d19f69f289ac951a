package models

import "time"

// AgendaItem is one entry on a day of the agenda.
type AgendaItem struct {
	Kind        EntityKind `json:"kind"`
	EntityID    string     `json:"entity_id"`
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	EndTime     string     `json:"end_time,omitempty"`
	SortKey     int        `json:"sort_key"`
	AllDay      bool       `json:"all_day,omitempty"`
	Location    string     `json:"location,omitempty"`
	Weekdays    []string   `json:"weekdays,omitempty"`
	Completed   bool       `json:"completed,omitempty"`
	HasReminder bool       `json:"has_reminder"`
}

// AgendaDay groups items occurring on the same date.
type AgendaDay struct {
	Date  time.Time    `json:"date"`
	Items []AgendaItem `json:"items"`
}

// Agenda is the computed view of one month.
type Agenda struct {
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	Days        []AgendaDay  `json:"days"`
	Unscheduled []AgendaItem `json:"unscheduled"`
}

// ItemCount returns the number of dated items.
func (a *Agenda) ItemCount() int {
	n := 0
	for _, d := range a.Days {
		n += len(d.Items)
	}
	return n
}
