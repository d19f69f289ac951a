package service

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorReportsJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(TaskRequest{ReminderTime: ptr("13:00 PM")})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, "required", fields["title"])
	assert.Equal(t, clock12Tag, fields["reminder_time"])
}

func TestValidatorWeekdayTag(t *testing.T) {
	v := NewValidator()

	ok := ClassEntryRequest{Subject: "Art", Weekdays: []string{"mon", "Friday", "TBA"}, StartTime: "08:00 AM", EndTime: "09:00 AM"}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Weekdays = []string{"Mo"}
	assert.Error(t, v.Struct(bad))
}

func TestCanonicalTime(t *testing.T) {
	display, key, err := canonicalTime(" 12:05 am ")
	require.NoError(t, err)
	assert.Equal(t, "12:05 AM", display)
	assert.Equal(t, 5, key)

	_, _, err = canonicalTime("noon")
	assert.Error(t, err)
}
