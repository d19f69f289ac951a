package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/planner-api/internal/models"
)

const taskColumns = "id, title, notes, due_date, due_time, sort_key, completed, reminder_time, reminder_handle, created_at, updated_at"

// reminderRows matches rows that ask for a reminder or still carry a handle.
const reminderRows = "reminder_time IS NOT NULL OR reminder_handle IS NOT NULL"

// TaskRepository manages persistence for tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a new task repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns tasks matching filter criteria ordered by due date and time.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	base := "FROM tasks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)+1))
		args = append(args, *filter.Completed)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY due_date ASC NULLS LAST, sort_key ASC NULLS LAST, created_at ASC LIMIT %d OFFSET %d", taskColumns, base, size, offset)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

// ListDue returns every task due within [from, to].
func (r *TaskRepository) ListDue(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE due_date BETWEEN $1 AND $2 ORDER BY due_date ASC, sort_key ASC NULLS LAST"
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, from, to); err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// ListWithReminders returns every task that has a reminder time or handle.
func (r *TaskRepository) ListWithReminders(ctx context.Context) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE " + reminderRows + " ORDER BY created_at ASC"
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list task reminders: %w", err)
	}
	return tasks, nil
}

// FindByID returns a task record by ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1"
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create persists a task record.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (id, title, notes, due_date, due_time, sort_key, completed, reminder_time, reminder_handle, created_at, updated_at)
		VALUES (:id, :title, :notes, :due_date, :due_time, :sort_key, :completed, :reminder_time, :reminder_handle, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update modifies a task record.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, notes = :notes, due_date = :due_date, due_time = :due_time, sort_key = :sort_key,
		completed = :completed, reminder_time = :reminder_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdateReminderHandle stores the handle of the task's current reminder.
func (r *TaskRepository) UpdateReminderHandle(ctx context.Context, id string, handle *string) error {
	return updateReminderHandle(ctx, r.db, "tasks", id, handle)
}

// Delete removes a task record.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "tasks", id)
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

func updateReminderHandle(ctx context.Context, db *sqlx.DB, table, id string, handle *string) error {
	query := fmt.Sprintf("UPDATE %s SET reminder_handle = $1, updated_at = $2 WHERE id = $3", table)
	if _, err := db.ExecContext(ctx, query, handle, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update %s reminder handle: %w", table, err)
	}
	return nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, table, id string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
