package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/recurrence"
)

type classEntryRepository interface {
	List(ctx context.Context, filter models.ClassEntryFilter) ([]models.ClassEntry, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassEntry, error)
	Create(ctx context.Context, entry *models.ClassEntry) error
	Update(ctx context.Context, entry *models.ClassEntry) error
	UpdateReminderHandle(ctx context.Context, id string, handle *string) error
	Delete(ctx context.Context, id string) error
	ListWithReminders(ctx context.Context) ([]models.ClassEntry, error)
}

type occurrenceExpander interface {
	Expand(rule recurrence.Rule, year int, month time.Month, entityID string) ([]recurrence.Occurrence, error)
}

// ClassEntryRequest captures the create and update payload for weekly classes.
type ClassEntryRequest struct {
	Subject      string   `json:"subject" validate:"required,max=200"`
	Instructor   string   `json:"instructor" validate:"max=200"`
	Room         string   `json:"room" validate:"max=100"`
	Weekdays     []string `json:"weekdays" validate:"required,min=1,dive,weekday"`
	StartTime    string   `json:"start_time" validate:"required,clock12"`
	EndTime      string   `json:"end_time" validate:"required,clock12"`
	ReminderTime *string  `json:"reminder_time" validate:"omitempty,clock12"`
}

// ClassEntryService manages weekly class entries and their recurring reminders.
type ClassEntryService struct {
	repo             classEntryRepository
	ledger           reminderLedger
	expander         occurrenceExpander
	remindersEnabled bool
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewClassEntryService constructs ClassEntryService. Class reminders are only
// registered when remindersEnabled is set.
func NewClassEntryService(repo classEntryRepository, ledger reminderLedger, expander occurrenceExpander, remindersEnabled bool, validate *validator.Validate, logger *zap.Logger) *ClassEntryService {
	if expander == nil {
		expander = recurrence.NewExpander(time.UTC)
	}
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassEntryService{
		repo:             repo,
		ledger:           ledger,
		expander:         expander,
		remindersEnabled: remindersEnabled,
		validator:        validate,
		logger:           logger,
	}
}

// List returns class entries with pagination metadata.
func (s *ClassEntryService) List(ctx context.Context, filter models.ClassEntryFilter) ([]models.ClassEntry, *models.Pagination, error) {
	if filter.Weekday != "" {
		day, err := recurrence.ParseWeekday(filter.Weekday)
		if err != nil {
			return nil, nil, err
		}
		filter.Weekday = string(day)
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class entries")
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class entry by id.
func (s *ClassEntryService) Get(ctx context.Context, id string) (*models.ClassEntry, error) {
	return s.load(ctx, id)
}

// Occurrences expands a class entry over one month.
func (s *ClassEntryService) Occurrences(ctx context.Context, id string, year int, month time.Month) ([]recurrence.Occurrence, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rule, err := recurrence.ParseRule(entry.Weekdays)
	if err != nil {
		return nil, err
	}
	return s.expander.Expand(rule, year, month, entry.ID)
}

// Create adds a class entry.
func (s *ClassEntryService) Create(ctx context.Context, req ClassEntryRequest) (*models.ClassEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.validationError(err)
	}
	entry := &models.ClassEntry{}
	if err := applyClassEntryRequest(entry, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class entry")
	}
	if want := s.wantedReminder(entry); want != nil {
		handle, err := syncReminder(ctx, s.ledger, s.repo, entry.Reminder(), want, s.reminderOptions(entry), s.logger)
		entry.ReminderHandle = handle
		if err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// Update modifies a class entry and keeps its recurring reminder in sync.
func (s *ClassEntryService) Update(ctx context.Context, id string, req ClassEntryRequest) (*models.ClassEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.validationError(err)
	}
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *entry
	before.Weekdays = append(pq.StringArray(nil), entry.Weekdays...)
	if err := applyClassEntryRequest(entry, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class entry")
	}

	changed := !stringsEqual(before.ReminderTime, entry.ReminderTime) || before.Subject != entry.Subject ||
		before.Room != entry.Room || before.StartTime != entry.StartTime ||
		strings.Join(before.Weekdays, ",") != strings.Join(entry.Weekdays, ",")
	handle, err := refreshStoredReminder(ctx, s.ledger, s.repo, entry.Reminder(), s.wantedReminder(entry), changed, s.reminderOptions(entry), s.logger)
	entry.ReminderHandle = handle
	if err != nil {
		return entry, err
	}
	return entry, nil
}

// ClearReminder drops the class entry's reminder and its reminder time.
func (s *ClassEntryService) ClearReminder(ctx context.Context, id string) (*models.ClassEntry, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.ReminderTime != nil {
		entry.ReminderTime = nil
		if err := s.repo.Update(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class entry")
		}
	}
	handle, err := syncReminder(ctx, s.ledger, s.repo, entry.Reminder(), nil, ReminderOptions{}, s.logger)
	entry.ReminderHandle = handle
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete cancels the class entry's reminder and removes it.
func (s *ClassEntryService) Delete(ctx context.Context, id string) error {
	entry, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	clearStoredReminder(ctx, s.ledger, entry.Reminder())
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class entry")
	}
	return nil
}

// RestoreReminders registers every stored class reminder with the notifier
// again. With class reminders disabled the stored handles are cleared.
func (s *ClassEntryService) RestoreReminders(ctx context.Context) (int, error) {
	entries, err := s.repo.ListWithReminders(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class reminders")
	}
	active := 0
	for i := range entries {
		entry := &entries[i]
		handle, err := restoreReminder(ctx, s.ledger, s.repo, entry.Reminder(), s.wantedReminder(entry), s.reminderOptions(entry), s.logger)
		if err != nil {
			return active, err
		}
		if handle != nil {
			active++
		}
	}
	return active, nil
}

func (s *ClassEntryService) load(ctx context.Context, id string) (*models.ClassEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class entry")
	}
	return entry, nil
}

// wantedReminder returns the reminder time to register, or nil when class
// reminders are disabled, unset, or the entry has no fixed weekday.
func (s *ClassEntryService) wantedReminder(entry *models.ClassEntry) *string {
	if !s.remindersEnabled || entry.ReminderTime == nil {
		return nil
	}
	if len(entry.Weekdays) == 1 && entry.Weekdays[0] == string(recurrence.TBA) {
		return nil
	}
	return entry.ReminderTime
}

func (s *ClassEntryService) reminderOptions(entry *models.ClassEntry) ReminderOptions {
	opts := ReminderOptions{
		Recurring: true,
		Title:     entry.Subject,
		Body:      entry.StartTime + " - " + entry.EndTime,
		DayNames:  append([]string(nil), entry.Weekdays...),
	}
	if entry.Room != "" {
		opts.Body += " in " + entry.Room
	}
	for _, name := range entry.Weekdays {
		if wd, ok := recurrence.Weekday(name).Std(); ok {
			opts.Weekdays = append(opts.Weekdays, wd)
		}
	}
	return opts
}

// validationError surfaces weekday problems with their own error kind.
func (s *ClassEntryService) validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == weekdayTag {
				return appErrors.Wrap(err, appErrors.ErrInvalidWeekdayName.Code, appErrors.ErrInvalidWeekdayName.Status, fmt.Sprintf("unknown weekday %q", fe.Value()))
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class entry payload")
}

func applyClassEntryRequest(entry *models.ClassEntry, req ClassEntryRequest) error {
	rule, err := recurrence.ParseRule(req.Weekdays)
	if err != nil {
		return err
	}
	start, startKey, err := canonicalTime(req.StartTime)
	if err != nil {
		return err
	}
	end, endKey, err := canonicalTime(req.EndTime)
	if err != nil {
		return err
	}
	if endKey <= startKey {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	entry.Subject = req.Subject
	entry.Instructor = req.Instructor
	entry.Room = req.Room
	entry.Weekdays = pq.StringArray(rule.Names())
	entry.StartTime, entry.StartSortKey = start, startKey
	entry.EndTime, entry.EndSortKey = end, endKey

	entry.ReminderTime = nil
	if req.ReminderTime != nil {
		display, _, err := canonicalTime(*req.ReminderTime)
		if err != nil {
			return err
		}
		entry.ReminderTime = &display
	}
	return nil
}
