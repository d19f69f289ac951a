package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

type failingClassSource struct{}

func (failingClassSource) ListAll(ctx context.Context) ([]models.ClassEntry, error) {
	return nil, errors.New("db down")
}

func seededAgendaService(t *testing.T) *AgendaService {
	t.Helper()
	tasks := newMemoryTaskRepo()
	schedules := newMemoryScheduleRepo()
	classes := newMemoryClassRepo()
	ctx := context.Background()

	due := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tasks.Create(ctx, &models.Task{ID: "t-1", Title: "Submit essay", DueDate: &due}))
	outside := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tasks.Create(ctx, &models.Task{ID: "t-2", Title: "Later", DueDate: &outside}))
	require.NoError(t, tasks.Create(ctx, &models.Task{ID: "t-3", Title: "Someday"}))

	end := "10:00 AM"
	endKey := sortKeyOf(end)
	require.NoError(t, schedules.Create(ctx, &models.Schedule{
		ID: "s-1", Title: "Dentist", Date: due, StartTime: "09:00 AM", StartSortKey: sortKeyOf("09:00 AM"),
		EndTime: &end, EndSortKey: &endKey, Location: "Clinic",
	}))

	require.NoError(t, classes.Create(ctx, &models.ClassEntry{
		ID: "c-1", Subject: "Physics", Weekdays: pq.StringArray{"Monday"},
		StartTime: "08:00 AM", StartSortKey: sortKeyOf("08:00 AM"), EndTime: "09:30 AM", EndSortKey: sortKeyOf("09:30 AM"),
	}))
	require.NoError(t, classes.Create(ctx, &models.ClassEntry{
		ID: "c-2", Subject: "Field trip", Weekdays: pq.StringArray{"TBA"},
		StartTime: "01:00 PM", StartSortKey: sortKeyOf("01:00 PM"), EndTime: "05:00 PM", EndSortKey: sortKeyOf("05:00 PM"),
	}))

	return NewAgendaService(tasks, schedules, classes, nil, nil)
}

func TestAgendaServiceMonth(t *testing.T) {
	svc := seededAgendaService(t)

	agenda, err := svc.Month(context.Background(), 2025, time.March)
	require.NoError(t, err)

	// Mondays of March 2025: 3, 10, 17, 24, 31.
	require.Len(t, agenda.Days, 5)
	assert.Equal(t, 7, agenda.ItemCount())
	for i, day := range []int{3, 10, 17, 24, 31} {
		assert.Equal(t, day, agenda.Days[i].Date.Day())
	}

	first := agenda.Days[0].Items
	require.Len(t, first, 3)
	assert.Equal(t, "Submit essay", first[0].Title)
	assert.True(t, first[0].AllDay)
	assert.Equal(t, "Physics", first[1].Title)
	assert.Equal(t, models.EntityClassEntry, first[1].Kind)
	assert.Equal(t, "Dentist", first[2].Title)
	assert.Equal(t, "10:00 AM", first[2].EndTime)

	require.Len(t, agenda.Unscheduled, 1)
	assert.Equal(t, "Field trip", agenda.Unscheduled[0].Title)
}

func TestAgendaServiceValidatesMonth(t *testing.T) {
	svc := seededAgendaService(t)

	_, err := svc.Month(context.Background(), 2025, time.Month(13))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Month(context.Background(), 0, time.January)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAgendaServiceEmptyMonth(t *testing.T) {
	svc := NewAgendaService(newMemoryTaskRepo(), newMemoryScheduleRepo(), newMemoryClassRepo(), nil, nil)

	agenda, err := svc.Month(context.Background(), 2025, time.February)
	require.NoError(t, err)
	assert.Empty(t, agenda.Days)
	assert.NotNil(t, agenda.Unscheduled)
}

func TestAgendaServiceSourceFailure(t *testing.T) {
	svc := NewAgendaService(newMemoryTaskRepo(), newMemoryScheduleRepo(), failingClassSource{}, nil, nil)

	_, err := svc.Month(context.Background(), 2025, time.March)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
