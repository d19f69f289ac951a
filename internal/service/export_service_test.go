package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, f)

	f, err = ParseExportFormat(" ICS ")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatICS, f)

	_, err = ParseExportFormat("xml")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceCSV(t *testing.T) {
	svc := NewExportService(seededAgendaService(t), time.UTC, nil, nil, nil, nil)

	result, err := svc.Month(context.Background(), 2025, time.March, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "agenda-2025-03.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Body)
	assert.True(t, strings.HasPrefix(body, "Date,Time,Kind,Title,Location\n"))
	assert.Contains(t, body, "2025-03-03,09:00 AM - 10:00 AM,schedule,Dentist,Clinic")
	assert.Contains(t, body, "2025-03-03,all day,task,Submit essay,")
	assert.Contains(t, body, "TBA,01:00 PM - 05:00 PM,class,Field trip,")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(seededAgendaService(t), time.UTC, nil, nil, nil, nil)

	result, err := svc.Month(context.Background(), 2025, time.March, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Body), "%PDF"))
}

func TestExportServiceICS(t *testing.T) {
	svc := NewExportService(seededAgendaService(t), time.UTC, nil, nil, nil, nil)

	result, err := svc.Month(context.Background(), 2025, time.March, ExportFormatICS)
	require.NoError(t, err)
	assert.Equal(t, "agenda-2025-03.ics", result.Filename)

	body := string(result.Body)
	// One weekly class event plus the task and the schedule.
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20250331T235959Z")
	assert.Contains(t, body, "UID:class-c-1@planner-api")
	assert.Contains(t, body, "UID:schedule-s-1-20250303@planner-api")
	assert.NotContains(t, body, "Field trip")
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(seededAgendaService(t), time.UTC, nil, nil, nil, nil)

	_, err := svc.Month(context.Background(), 2025, time.March, ExportFormat("xml"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
