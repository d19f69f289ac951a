package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/planner-api/internal/models"
)

const scheduleColumns = "id, title, location, date, start_time, start_sort_key, end_time, end_sort_key, reminder_time, reminder_handle, created_at, updated_at"

// ScheduleRepository handles persistence of dated schedule items.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules ordered by date then start time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(location) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, start_sort_key ASC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var items []models.Schedule
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return items, total, nil
}

// ListBetween returns every schedule dated within [from, to].
func (r *ScheduleRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules WHERE date BETWEEN $1 AND $2 ORDER BY date ASC, start_sort_key ASC"
	var items []models.Schedule
	if err := r.db.SelectContext(ctx, &items, query, from, to); err != nil {
		return nil, fmt.Errorf("list schedules between: %w", err)
	}
	return items, nil
}

// ListWithReminders returns every schedule that has a reminder time or handle.
func (r *ScheduleRepository) ListWithReminders(ctx context.Context) ([]models.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules WHERE " + reminderRows + " ORDER BY date ASC, start_sort_key ASC"
	var items []models.Schedule
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list schedule reminders: %w", err)
	}
	return items, nil
}

// FindByID fetches a schedule by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules WHERE id = $1"
	var item models.Schedule
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create persists a schedule.
func (r *ScheduleRepository) Create(ctx context.Context, item *models.Schedule) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO schedules (id, title, location, date, start_time, start_sort_key, end_time, end_sort_key, reminder_time, reminder_handle, created_at, updated_at)
		VALUES (:id, :title, :location, :date, :start_time, :start_sort_key, :end_time, :end_sort_key, :reminder_time, :reminder_handle, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, item *models.Schedule) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET title = :title, location = :location, date = :date, start_time = :start_time, start_sort_key = :start_sort_key,
		end_time = :end_time, end_sort_key = :end_sort_key, reminder_time = :reminder_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// UpdateReminderHandle stores the handle of the schedule's current reminder.
func (r *ScheduleRepository) UpdateReminderHandle(ctx context.Context, id string, handle *string) error {
	return updateReminderHandle(ctx, r.db, "schedules", id, handle)
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "schedules", id)
}
