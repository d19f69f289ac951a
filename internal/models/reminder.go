package models

// EntityKind names the kind of planner item a reminder belongs to.
type EntityKind string

const (
	EntityTask       EntityKind = "task"
	EntitySchedule   EntityKind = "schedule"
	EntityClassEntry EntityKind = "class"
)

// ReminderState tracks the lifecycle of an entity's reminder.
type ReminderState string

const (
	ReminderNone    ReminderState = "NO_REMINDER"
	ReminderPending ReminderState = "REMINDER_PENDING"
	ReminderActive  ReminderState = "REMINDER_ACTIVE"
)

// ReminderBinding associates an entity with at most one scheduled reminder.
// Handle is nil unless State is ReminderActive.
type ReminderBinding struct {
	EntityKind EntityKind    `json:"entity_kind"`
	EntityID   string        `json:"entity_id"`
	Handle     *string       `json:"handle,omitempty"`
	State      ReminderState `json:"state"`
}

// NewReminderBinding rebuilds a binding from a persisted handle.
func NewReminderBinding(kind EntityKind, id string, handle *string) *ReminderBinding {
	b := &ReminderBinding{EntityKind: kind, EntityID: id, State: ReminderNone}
	if handle != nil && *handle != "" {
		h := *handle
		b.Handle = &h
		b.State = ReminderActive
	}
	return b
}

// Key identifies the bound entity across kinds.
func (b *ReminderBinding) Key() string {
	return string(b.EntityKind) + ":" + b.EntityID
}

// HasHandle reports whether a reminder is currently registered.
func (b *ReminderBinding) HasHandle() bool {
	return b.Handle != nil && *b.Handle != ""
}
