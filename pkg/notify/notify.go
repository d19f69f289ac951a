// Package notify schedules reminder notifications in-process and delivers
// them to one or more channels when they fire.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/planner-api/pkg/timecode"
)

// ErrUnknownHandle is returned when cancelling a handle that is not (or no
// longer) scheduled.
var ErrUnknownHandle = errors.New("notify: unknown reminder handle")

// ErrInPast is returned when a one-shot reminder would never fire.
var ErrInPast = errors.New("notify: reminder time is in the past")

// Payload is what the recipient sees when a reminder fires.
type Payload struct {
	EntityKind string   `json:"entity_kind"`
	EntityID   string   `json:"entity_id"`
	Title      string   `json:"title"`
	Body       string   `json:"body,omitempty"`
	Weekdays   []string `json:"weekdays,omitempty"`
}

// Request describes one reminder to schedule. Date pins a one-shot reminder
// to a calendar day; Weekdays restricts a recurring one.
type Request struct {
	At        timecode.TimeOfDay
	Date      *time.Time
	Recurring bool
	Weekdays  []time.Weekday
	Payload   Payload
}

// Delivery is a fired reminder handed to dispatchers.
type Delivery struct {
	Handle  string    `json:"handle"`
	Payload Payload   `json:"payload"`
	At      string    `json:"at"`
	FiredAt time.Time `json:"fired_at"`
}

// Dispatcher pushes a fired reminder to one channel.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, d Delivery) error
}
