package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, item *models.Schedule) error
	Update(ctx context.Context, item *models.Schedule) error
	UpdateReminderHandle(ctx context.Context, id string, handle *string) error
	Delete(ctx context.Context, id string) error
	ListWithReminders(ctx context.Context) ([]models.Schedule, error)
}

// ScheduleRequest captures the create and update payload for dated schedule items.
type ScheduleRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Location     string  `json:"location" validate:"max=200"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string  `json:"start_time" validate:"required,clock12"`
	EndTime      *string `json:"end_time" validate:"omitempty,clock12"`
	ReminderTime *string `json:"reminder_time" validate:"omitempty,clock12"`
}

// ScheduleService manages dated schedule items.
type ScheduleService struct {
	repo      scheduleRepository
	ledger    reminderLedger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService builds a schedule service instance.
func NewScheduleService(repo scheduleRepository, ledger reminderLedger, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, ledger: ledger, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	return s.load(ctx, id)
}

// Create adds a schedule and registers its reminder when requested.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	item := &models.Schedule{}
	if err := applyScheduleRequest(item, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	if item.ReminderTime != nil {
		handle, err := syncReminder(ctx, s.ledger, s.repo, item.Reminder(), item.ReminderTime, s.reminderOptions(item), s.logger)
		item.ReminderHandle = handle
		if err != nil {
			return item, err
		}
	}
	return item, nil
}

// Update modifies a schedule and replaces its reminder when relevant fields change.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	if err := applyScheduleRequest(item, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	changed := !stringsEqual(before.ReminderTime, item.ReminderTime) || !before.Date.Equal(item.Date) ||
		before.Title != item.Title || before.StartTime != item.StartTime || before.Location != item.Location
	handle, err := refreshStoredReminder(ctx, s.ledger, s.repo, item.Reminder(), item.ReminderTime, changed, s.reminderOptions(item), s.logger)
	item.ReminderHandle = handle
	if err != nil {
		return item, err
	}
	return item, nil
}

// ClearReminder drops the schedule's reminder and its reminder time.
func (s *ScheduleService) ClearReminder(ctx context.Context, id string) (*models.Schedule, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.ReminderTime != nil {
		item.ReminderTime = nil
		if err := s.repo.Update(ctx, item); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
		}
	}
	handle, err := syncReminder(ctx, s.ledger, s.repo, item.Reminder(), nil, ReminderOptions{}, s.logger)
	item.ReminderHandle = handle
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete cancels the schedule's reminder and removes it.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	clearStoredReminder(ctx, s.ledger, item.Reminder())
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// RestoreReminders registers every stored schedule reminder with the
// notifier again and persists the new handles.
func (s *ScheduleService) RestoreReminders(ctx context.Context) (int, error) {
	items, err := s.repo.ListWithReminders(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule reminders")
	}
	active := 0
	for i := range items {
		item := &items[i]
		handle, err := restoreReminder(ctx, s.ledger, s.repo, item.Reminder(), item.ReminderTime, s.reminderOptions(item), s.logger)
		if err != nil {
			return active, err
		}
		if handle != nil {
			active++
		}
	}
	return active, nil
}

func (s *ScheduleService) load(ctx context.Context, id string) (*models.Schedule, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return item, nil
}

func (s *ScheduleService) reminderOptions(item *models.Schedule) ReminderOptions {
	date := item.Date
	body := "Starts at " + item.StartTime
	if item.Location != "" {
		body += " in " + item.Location
	}
	return ReminderOptions{Date: &date, Title: item.Title, Body: body}
}

func applyScheduleRequest(item *models.Schedule, req ScheduleRequest) error {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	start, startKey, err := canonicalTime(req.StartTime)
	if err != nil {
		return err
	}

	item.Title = req.Title
	item.Location = req.Location
	item.Date = date
	item.StartTime = start
	item.StartSortKey = startKey
	item.EndTime, item.EndSortKey = nil, nil
	if req.EndTime != nil {
		end, endKey, err := canonicalTime(*req.EndTime)
		if err != nil {
			return err
		}
		if endKey <= startKey {
			return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
		}
		item.EndTime, item.EndSortKey = &end, &endKey
	}

	item.ReminderTime = nil
	if req.ReminderTime != nil {
		display, _, err := canonicalTime(*req.ReminderTime)
		if err != nil {
			return err
		}
		item.ReminderTime = &display
	}
	return nil
}
