// Package timecode converts between 12-hour display strings ("hh:mm AM|PM")
// and integer sort keys in [0, 2359] that order times within a day.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

// Meridiem is the AM/PM marker of a 12-hour time.
type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// MaxSortKey is the sort key of 11:59 PM.
const MaxSortKey = 2359

var displayPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)

// TimeOfDay is an immutable 12-hour clock reading.
type TimeOfDay struct {
	Hour12   int
	Minute   int
	Meridiem Meridiem
}

// Parse reads a display string such as "9:05 am" or "09:05 PM".
func Parse(display string) (TimeOfDay, error) {
	m := displayPattern.FindStringSubmatch(display)
	if m == nil {
		return TimeOfDay{}, malformed(display, "expected hh:mm AM|PM")
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 {
		return TimeOfDay{}, malformed(display, "hour must be between 1 and 12")
	}
	if minute > 59 {
		return TimeOfDay{}, malformed(display, "minute must be between 0 and 59")
	}
	return TimeOfDay{Hour12: hour, Minute: minute, Meridiem: Meridiem(strings.ToUpper(m[3]))}, nil
}

// FromClock builds a TimeOfDay from a 24-hour reading.
func FromClock(hour24, minute int) (TimeOfDay, error) {
	if hour24 < 0 || hour24 > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, appErrors.Clone(appErrors.ErrOutOfRangeTimeCode, fmt.Sprintf("clock %02d:%02d is out of range", hour24, minute))
	}
	return FromSortKeyValue(hour24*100 + minute)
}

// SortKey returns hour*100+minute on a 24-hour scale: 12:00 AM is 0 and
// 12:00 PM is 1200.
func (t TimeOfDay) SortKey() int {
	key := t.Hour12*100 + t.Minute
	switch {
	case t.Meridiem == PM && t.Hour12 != 12:
		key += 1200
	case t.Meridiem == AM && t.Hour12 == 12:
		key -= 1200
	}
	return key
}

// Clock returns the 24-hour hour and minute.
func (t TimeOfDay) Clock() (int, int) {
	key := t.SortKey()
	return key / 100, key % 100
}

// String renders the canonical zero-padded form, e.g. "01:30 PM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d %s", t.Hour12, t.Minute, t.Meridiem)
}

// IsZero reports whether t was never set.
func (t TimeOfDay) IsZero() bool {
	return t.Hour12 == 0
}

// ToSortKey parses display and returns its sort key.
func ToSortKey(display string) (int, error) {
	t, err := Parse(display)
	if err != nil {
		return 0, err
	}
	return t.SortKey(), nil
}

// FromSortKey renders code as a canonical display string.
func FromSortKey(code int) (string, error) {
	t, err := FromSortKeyValue(code)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// FromSortKeyValue is FromSortKey returning the structured value.
func FromSortKeyValue(code int) (TimeOfDay, error) {
	if code < 0 || code > MaxSortKey || code%100 > 59 {
		return TimeOfDay{}, appErrors.Clone(appErrors.ErrOutOfRangeTimeCode, fmt.Sprintf("time code %d is out of range", code))
	}
	hour24, minute := code/100, code%100
	t := TimeOfDay{Minute: minute, Meridiem: AM}
	switch {
	case hour24 == 0:
		t.Hour12 = 12
	case hour24 < 12:
		t.Hour12 = hour24
	case hour24 == 12:
		t.Hour12 = 12
		t.Meridiem = PM
	default:
		t.Hour12 = hour24 - 12
		t.Meridiem = PM
	}
	return t, nil
}

// Canonical normalises a display string, e.g. "1:30 pm" becomes "01:30 PM".
func Canonical(display string) (string, error) {
	t, err := Parse(display)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func malformed(display, reason string) error {
	return appErrors.Clone(appErrors.ErrMalformedTimeString, fmt.Sprintf("invalid time %q: %s", display, reason))
}
