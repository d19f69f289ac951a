package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is one calendar entry. AllDay events ignore the clock part of
// Start and End. RRule, when set, is an RFC 5545 recurrence such as
// "FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20250331T235959Z".
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	RRule       string
}

// ICalExporter renders events as an iCalendar document.
type ICalExporter struct {
	productID string
	now       func() time.Time
}

// NewICalExporter constructs an iCalendar exporter.
func NewICalExporter(productID string) *ICalExporter {
	if productID == "" {
		productID = "-//planner-api//agenda//EN"
	}
	return &ICalExporter{productID: productID, now: time.Now}
}

// Render serialises events into a VCALENDAR.
func (e *ICalExporter) Render(name string, events []Event) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ical event %q has no uid", ev.Summary)
		}
		if ev.End.Before(ev.Start) {
			return nil, fmt.Errorf("ical event %s ends before it starts", ev.UID)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		if ev.AllDay {
			vevent.SetAllDayStartAt(ev.Start)
			vevent.SetAllDayEndAt(ev.End.AddDate(0, 0, 1))
		} else {
			vevent.SetStartAt(ev.Start)
			vevent.SetEndAt(ev.End)
		}
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.RRule != "" {
			vevent.AddRrule(ev.RRule)
		}
	}
	return []byte(cal.Serialize()), nil
}
