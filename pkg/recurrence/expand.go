package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
)

// Occurrence is one calendar date produced by expanding a rule. EntityID is
// a lookup key back to the entry that owns the rule.
type Occurrence struct {
	Date     time.Time `json:"date"`
	EntityID string    `json:"entity_id,omitempty"`
}

// Expander materialises weekday rules into dates. It holds no state between
// calls; every expansion is computed from scratch.
type Expander struct {
	loc *time.Location
}

// NewExpander returns an expander producing dates in loc (UTC when nil).
func NewExpander(loc *time.Location) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	return &Expander{loc: loc}
}

// Expand returns every date of the given month whose weekday is in rule,
// ascending. A TBA rule yields no dates.
func (e *Expander) Expand(rule Rule, year int, month time.Month, entityID string) ([]Occurrence, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, e.loc)
	last := first.AddDate(0, 1, -1)
	return e.ExpandRange(rule, first, last, entityID)
}

// ExpandRange is Expand over an inclusive [from, to] date window.
func (e *Expander) ExpandRange(rule Rule, from, to time.Time, entityID string) ([]Occurrence, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	if rule.IsTBA() {
		return []Occurrence{}, nil
	}
	start := e.midnight(from)
	end := e.midnight(to)
	if end.Before(start) {
		return nil, errors.New("expand: range end is before range start")
	}

	byDay := make([]rrule.Weekday, 0, len(rule.Days))
	for _, day := range rule.Days {
		byDay = append(byDay, weekdays[day].rrule)
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   start,
		Until:     end,
	})
	if err != nil {
		return nil, err
	}

	dates := r.Between(start, end, true)
	out := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, Occurrence{Date: d.In(e.loc), EntityID: entityID})
	}
	return out, nil
}

// CountInMonth returns how many times wd falls in the month.
func CountInMonth(wd time.Weekday, year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	if offset >= days {
		return 0
	}
	return (days-offset-1)/7 + 1
}

func (e *Expander) midnight(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}
