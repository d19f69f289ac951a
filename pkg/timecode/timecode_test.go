package timecode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

func TestToSortKeyKnownValues(t *testing.T) {
	cases := map[string]int{
		"12:00 AM": 0,
		"12:00 PM": 1200,
		"01:30 PM": 1330,
		"11:45 AM": 1145,
		"12:59 AM": 59,
		"12:30 PM": 1230,
		"11:59 PM": 2359,
		"1:05 am":  105,
		" 9:00PM ": 2100,
	}
	for display, want := range cases {
		got, err := ToSortKey(display)
		require.NoError(t, err, display)
		assert.Equal(t, want, got, display)
	}
}

func TestToSortKeyRejectsMalformed(t *testing.T) {
	for _, display := range []string{"", "13:00 PM", "00:15 AM", "10:60 AM", "10:5 AM", "10:30", "ten thirty", "10:30 XM", "100:00 AM"} {
		_, err := ToSortKey(display)
		require.Error(t, err, display)
		assert.ErrorIs(t, err, appErrors.ErrMalformedTimeString, display)
	}
}

func TestFromSortKeyRejectsOutOfRange(t *testing.T) {
	for _, code := range []int{-1, 2360, 2400, 160, 1299, 9999} {
		_, err := FromSortKey(code)
		require.Error(t, err, code)
		assert.ErrorIs(t, err, appErrors.ErrOutOfRangeTimeCode, code)
	}
}

func TestFromSortKeyCanonicalForm(t *testing.T) {
	cases := map[int]string{
		0:    "12:00 AM",
		5:    "12:05 AM",
		100:  "01:00 AM",
		1145: "11:45 AM",
		1200: "12:00 PM",
		1330: "01:30 PM",
		2359: "11:59 PM",
	}
	for code, want := range cases {
		got, err := FromSortKey(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSortKeyRoundTripOverWholeDay(t *testing.T) {
	for code := 0; code <= MaxSortKey; code++ {
		if code%100 > 59 {
			continue
		}
		display, err := FromSortKey(code)
		require.NoError(t, err)
		back, err := ToSortKey(display)
		require.NoError(t, err)
		require.Equal(t, code, back, display)
	}
}

func TestDisplayRoundTripMatchesCanonical(t *testing.T) {
	for hour := 1; hour <= 12; hour++ {
		for _, minute := range []int{0, 7, 30, 59} {
			for _, marker := range []string{"AM", "pm"} {
				display := fmt.Sprintf("%d:%02d %s", hour, minute, marker)
				code, err := ToSortKey(display)
				require.NoError(t, err)
				back, err := FromSortKey(code)
				require.NoError(t, err)
				canonical, err := Canonical(display)
				require.NoError(t, err)
				assert.Equal(t, canonical, back)
			}
		}
	}
}

func TestSortKeyFollowsChronology(t *testing.T) {
	ordered := []string{"12:00 AM", "12:30 AM", "01:00 AM", "11:59 AM", "12:00 PM", "12:01 PM", "01:00 PM", "11:59 PM"}
	prev := -1
	for _, display := range ordered {
		key, err := ToSortKey(display)
		require.NoError(t, err)
		assert.Greater(t, key, prev, display)
		prev = key
	}
}

func TestClockAndFromClock(t *testing.T) {
	tod, err := Parse("12:15 AM")
	require.NoError(t, err)
	h, m := tod.Clock()
	assert.Equal(t, 0, h)
	assert.Equal(t, 15, m)

	back, err := FromClock(18, 5)
	require.NoError(t, err)
	assert.Equal(t, "06:05 PM", back.String())

	_, err = FromClock(24, 0)
	assert.ErrorIs(t, err, appErrors.ErrOutOfRangeTimeCode)
}
