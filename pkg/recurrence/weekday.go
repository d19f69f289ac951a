package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

// Weekday is a recurrence day name; TBA marks an entry with no fixed day.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
	TBA       Weekday = "TBA"
)

type weekdayInfo struct {
	iso   int
	std   time.Weekday
	rrule rrule.Weekday
	ical  string
}

// weekdays maps each name to its ISO number (Monday=1 .. Sunday=7).
var weekdays = map[Weekday]weekdayInfo{
	Monday:    {iso: 1, std: time.Monday, rrule: rrule.MO, ical: "MO"},
	Tuesday:   {iso: 2, std: time.Tuesday, rrule: rrule.TU, ical: "TU"},
	Wednesday: {iso: 3, std: time.Wednesday, rrule: rrule.WE, ical: "WE"},
	Thursday:  {iso: 4, std: time.Thursday, rrule: rrule.TH, ical: "TH"},
	Friday:    {iso: 5, std: time.Friday, rrule: rrule.FR, ical: "FR"},
	Saturday:  {iso: 6, std: time.Saturday, rrule: rrule.SA, ical: "SA"},
	Sunday:    {iso: 7, std: time.Sunday, rrule: rrule.SU, ical: "SU"},
}

// ParseWeekday resolves full or three-letter names, case-insensitively.
func ParseWeekday(name string) (Weekday, error) {
	trimmed := strings.TrimSpace(name)
	if strings.EqualFold(trimmed, string(TBA)) {
		return TBA, nil
	}
	for day := range weekdays {
		full := string(day)
		if strings.EqualFold(trimmed, full) || (len(trimmed) == 3 && strings.EqualFold(trimmed, full[:3])) {
			return day, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInvalidWeekdayName, fmt.Sprintf("unknown weekday %q", name))
}

// ISO returns the ISO-8601 weekday number, or 0 for TBA.
func (d Weekday) ISO() int {
	return weekdays[d].iso
}

// Std converts d to time.Weekday. It reports false for TBA and unknown
// names, which have no calendar day.
func (d Weekday) Std() (time.Weekday, bool) {
	info, ok := weekdays[d]
	return info.std, ok
}

// FromStd is the inverse of Std.
func FromStd(wd time.Weekday) Weekday {
	for day, info := range weekdays {
		if info.std == wd {
			return day
		}
	}
	return ""
}

// Valid reports whether d is one of the seven day names.
func (d Weekday) Valid() bool {
	_, ok := weekdays[d]
	return ok
}

// Rule is a normalised set of weekdays, or the lone TBA sentinel.
type Rule struct {
	Days []Weekday
}

// ParseRule validates names and returns a rule sorted Monday-first without
// duplicates. TBA cannot be combined with weekdays.
func ParseRule(names []string) (Rule, error) {
	if len(names) == 0 {
		return Rule{}, appErrors.Clone(appErrors.ErrInvalidWeekdayName, "recurrence rule must not be empty")
	}
	seen := make(map[Weekday]struct{}, len(names))
	days := make([]Weekday, 0, len(names))
	for _, name := range names {
		day, err := ParseWeekday(name)
		if err != nil {
			return Rule{}, err
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if _, hasTBA := seen[TBA]; hasTBA && len(days) > 1 {
		return Rule{}, appErrors.Clone(appErrors.ErrInvalidWeekdayName, "TBA cannot be combined with weekdays")
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ISO() < days[j].ISO() })
	return Rule{Days: days}, nil
}

// MustRule is ParseRule for literals in tests and defaults.
func MustRule(names ...string) Rule {
	rule, err := ParseRule(names)
	if err != nil {
		panic(err)
	}
	return rule
}

// IsTBA reports whether the rule is unscheduled.
func (r Rule) IsTBA() bool {
	return len(r.Days) == 1 && r.Days[0] == TBA
}

// Names returns the day names as plain strings for persistence.
func (r Rule) Names() []string {
	out := make([]string, len(r.Days))
	for i, day := range r.Days {
		out[i] = string(day)
	}
	return out
}

// Contains reports whether wd is one of the rule's days.
func (r Rule) Contains(wd time.Weekday) bool {
	for _, day := range r.Days {
		if std, ok := day.Std(); ok && std == wd {
			return true
		}
	}
	return false
}

// RRule renders the rule as an RFC 5545 weekly recurrence, e.g.
// "FREQ=WEEKLY;BYDAY=MO,WE". TBA rules render as an empty string.
func (r Rule) RRule() string {
	if r.IsTBA() || len(r.Days) == 0 {
		return ""
	}
	codes := make([]string, 0, len(r.Days))
	for _, day := range r.Days {
		codes = append(codes, weekdays[day].ical)
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
}

func (r Rule) validate() error {
	if len(r.Days) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidWeekdayName, "recurrence rule must not be empty")
	}
	if r.IsTBA() {
		return nil
	}
	for _, day := range r.Days {
		if !day.Valid() {
			return appErrors.Clone(appErrors.ErrInvalidWeekdayName, fmt.Sprintf("unknown weekday %q", day))
		}
	}
	return nil
}
