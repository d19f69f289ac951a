package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/recurrence"
)

type agendaTaskSource interface {
	ListDue(ctx context.Context, from, to time.Time) ([]models.Task, error)
}

type agendaScheduleSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Schedule, error)
}

type agendaClassSource interface {
	ListAll(ctx context.Context) ([]models.ClassEntry, error)
}

// AgendaService merges tasks, schedules and expanded class entries into a
// month view. Nothing is cached: every call recomputes occurrences.
type AgendaService struct {
	tasks     agendaTaskSource
	schedules agendaScheduleSource
	classes   agendaClassSource
	expander  occurrenceExpander
	logger    *zap.Logger
}

// NewAgendaService constructs AgendaService.
func NewAgendaService(tasks agendaTaskSource, schedules agendaScheduleSource, classes agendaClassSource, expander occurrenceExpander, logger *zap.Logger) *AgendaService {
	if expander == nil {
		expander = recurrence.NewExpander(time.UTC)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{tasks: tasks, schedules: schedules, classes: classes, expander: expander, logger: logger}
}

// Month builds the agenda for one calendar month.
func (s *AgendaService) Month(ctx context.Context, year int, month time.Month) (*models.Agenda, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	agenda := &models.Agenda{Year: year, Month: month, Days: []models.AgendaDay{}, Unscheduled: []models.AgendaItem{}}
	days := make(map[string]*models.AgendaDay)
	add := func(date time.Time, item models.AgendaItem) {
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format(dateLayout)
		item.Date = &day
		bucket, ok := days[key]
		if !ok {
			bucket = &models.AgendaDay{Date: day}
			days[key] = bucket
		}
		bucket.Items = append(bucket.Items, item)
	}

	entries, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class entries")
	}
	for i := range entries {
		entry := &entries[i]
		item := classAgendaItem(entry)
		rule, err := recurrence.ParseRule(entry.Weekdays)
		if err != nil {
			s.logger.Warn("skipping class entry with invalid weekdays", zap.String("class_id", entry.ID), zap.Error(err))
			continue
		}
		if rule.IsTBA() {
			agenda.Unscheduled = append(agenda.Unscheduled, item)
			continue
		}
		occurrences, err := s.expander.Expand(rule, year, month, entry.ID)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			add(occ.Date, item)
		}
	}

	tasks, err := s.tasks.ListDue(ctx, first, last)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	for i := range tasks {
		task := &tasks[i]
		if task.DueDate == nil {
			continue
		}
		item := models.AgendaItem{
			Kind:        models.EntityTask,
			EntityID:    task.ID,
			Title:       task.Title,
			Completed:   task.Completed,
			HasReminder: task.ReminderHandle != nil,
			AllDay:      task.SortKey == nil,
		}
		if task.DueTime != nil && task.SortKey != nil {
			item.Time = *task.DueTime
			item.SortKey = *task.SortKey
		}
		add(*task.DueDate, item)
	}

	schedules, err := s.schedules.ListBetween(ctx, first, last)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	for i := range schedules {
		sch := &schedules[i]
		item := models.AgendaItem{
			Kind:        models.EntitySchedule,
			EntityID:    sch.ID,
			Title:       sch.Title,
			Time:        sch.StartTime,
			SortKey:     sch.StartSortKey,
			Location:    sch.Location,
			HasReminder: sch.ReminderHandle != nil,
		}
		if sch.EndTime != nil {
			item.EndTime = *sch.EndTime
		}
		add(sch.Date, item)
	}

	for _, day := range days {
		sortAgendaItems(day.Items)
		agenda.Days = append(agenda.Days, *day)
	}
	sort.Slice(agenda.Days, func(i, j int) bool { return agenda.Days[i].Date.Before(agenda.Days[j].Date) })
	sortAgendaItems(agenda.Unscheduled)
	return agenda, nil
}

func classAgendaItem(entry *models.ClassEntry) models.AgendaItem {
	return models.AgendaItem{
		Kind:        models.EntityClassEntry,
		EntityID:    entry.ID,
		Title:       entry.Subject,
		Time:        entry.StartTime,
		EndTime:     entry.EndTime,
		SortKey:     entry.StartSortKey,
		Location:    entry.Room,
		Weekdays:    append([]string(nil), entry.Weekdays...),
		HasReminder: entry.ReminderHandle != nil,
	}
}

// sortAgendaItems orders all-day items first, then by sort key, then title.
func sortAgendaItems(items []models.AgendaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.AllDay != b.AllDay {
			return a.AllDay
		}
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		return a.Title < b.Title
	})
}

func validateMonth(year int, month time.Month) error {
	if year < 1 || year > 9999 {
		return appErrors.Clone(appErrors.ErrValidation, "year must be between 1 and 9999")
	}
	if month < time.January || month > time.December {
		return appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	return nil
}
