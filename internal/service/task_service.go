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

const dateLayout = "2006-01-02"

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	UpdateReminderHandle(ctx context.Context, id string, handle *string) error
	Delete(ctx context.Context, id string) error
	ListWithReminders(ctx context.Context) ([]models.Task, error)
}

// TaskRequest captures the create and update payload for tasks.
type TaskRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Notes        string  `json:"notes" validate:"max=2000"`
	DueDate      *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime      *string `json:"due_time" validate:"omitempty,clock12"`
	ReminderTime *string `json:"reminder_time" validate:"omitempty,clock12"`
}

// TaskService coordinates task operations and their reminders.
type TaskService struct {
	repo      taskRepository
	ledger    reminderLedger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs TaskService.
func NewTaskService(repo taskRepository, ledger reminderLedger, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, ledger: ledger, validator: validate, logger: logger}
}

// List returns tasks with pagination metadata.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.load(ctx, id)
}

// Create adds a task and schedules its reminder when requested. When the
// reminder cannot be scheduled the task is still stored and returned along
// with the scheduling error.
func (s *TaskService) Create(ctx context.Context, req TaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task := &models.Task{}
	if err := applyTaskRequest(task, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	if task.ReminderTime != nil {
		handle, err := syncReminder(ctx, s.ledger, s.repo, task.Reminder(), task.ReminderTime, s.reminderOptions(task), s.logger)
		task.ReminderHandle = handle
		if err != nil {
			return task, err
		}
	}
	return task, nil
}

// Update modifies a task, replacing or clearing its reminder as needed.
func (s *TaskService) Update(ctx context.Context, id string, req TaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *task
	if err := applyTaskRequest(task, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	if err := s.refreshReminder(ctx, task, taskReminderChanged(&before, task)); err != nil {
		return task, err
	}
	return task, nil
}

// SetCompleted marks a task done or open. Completing a task drops its
// reminder; reopening restores it when a reminder time is still set.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Completed == completed {
		return task, nil
	}
	task.Completed = completed
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	if err := s.refreshReminder(ctx, task, true); err != nil {
		return task, err
	}
	return task, nil
}

// ClearReminder drops the task's reminder and its reminder time.
func (s *TaskService) ClearReminder(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.ReminderTime != nil {
		task.ReminderTime = nil
		if err := s.repo.Update(ctx, task); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
		}
	}
	handle, err := syncReminder(ctx, s.ledger, s.repo, task.Reminder(), nil, ReminderOptions{}, s.logger)
	task.ReminderHandle = handle
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete cancels the task's reminder and removes it.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	clearStoredReminder(ctx, s.ledger, task.Reminder())
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// RestoreReminders registers every stored task reminder with the notifier
// again and persists the new handles. Completed tasks lose theirs.
func (s *TaskService) RestoreReminders(ctx context.Context) (int, error) {
	tasks, err := s.repo.ListWithReminders(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task reminders")
	}
	active := 0
	for i := range tasks {
		task := &tasks[i]
		want := task.ReminderTime
		if task.Completed {
			want = nil
		}
		handle, err := restoreReminder(ctx, s.ledger, s.repo, task.Reminder(), want, s.reminderOptions(task), s.logger)
		if err != nil {
			return active, err
		}
		if handle != nil {
			active++
		}
	}
	return active, nil
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

func (s *TaskService) refreshReminder(ctx context.Context, task *models.Task, changed bool) error {
	want := task.ReminderTime
	if task.Completed {
		want = nil
	}
	handle, err := refreshStoredReminder(ctx, s.ledger, s.repo, task.Reminder(), want, changed, s.reminderOptions(task), s.logger)
	task.ReminderHandle = handle
	return err
}

func (s *TaskService) reminderOptions(task *models.Task) ReminderOptions {
	opts := ReminderOptions{Date: task.DueDate, Title: task.Title, Body: task.Notes}
	if task.DueTime != nil {
		opts.Body = "Due at " + *task.DueTime
		if task.Notes != "" {
			opts.Body += "\n" + task.Notes
		}
	}
	return opts
}

func applyTaskRequest(task *models.Task, req TaskRequest) error {
	task.Title = req.Title
	task.Notes = req.Notes

	task.DueDate = nil
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "due_date must be YYYY-MM-DD")
		}
		task.DueDate = &due
	}

	task.DueTime, task.SortKey = nil, nil
	if req.DueTime != nil {
		display, key, err := canonicalTime(*req.DueTime)
		if err != nil {
			return err
		}
		task.DueTime, task.SortKey = &display, &key
	}

	task.ReminderTime = nil
	if req.ReminderTime != nil {
		display, _, err := canonicalTime(*req.ReminderTime)
		if err != nil {
			return err
		}
		task.ReminderTime = &display
	}
	return nil
}

func taskReminderChanged(before, after *models.Task) bool {
	if !stringsEqual(before.ReminderTime, after.ReminderTime) || before.Title != after.Title || before.Notes != after.Notes {
		return true
	}
	if (before.DueDate == nil) != (after.DueDate == nil) {
		return true
	}
	return before.DueDate != nil && !before.DueDate.Equal(*after.DueDate)
}
