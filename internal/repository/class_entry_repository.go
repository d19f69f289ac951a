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

const classEntryColumns = "id, subject, instructor, room, weekdays, start_time, start_sort_key, end_time, end_sort_key, reminder_time, reminder_handle, created_at, updated_at"

// ClassEntryRepository manages persistence for weekly class entries.
type ClassEntryRepository struct {
	db *sqlx.DB
}

// NewClassEntryRepository constructs a new class entry repository.
func NewClassEntryRepository(db *sqlx.DB) *ClassEntryRepository {
	return &ClassEntryRepository{db: db}
}

// List returns class entries matching filter criteria ordered by start time.
func (r *ClassEntryRepository) List(ctx context.Context, filter models.ClassEntryFilter) ([]models.ClassEntry, int, error) {
	base := "FROM class_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Weekday != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(weekdays)", len(args)+1))
		args = append(args, filter.Weekday)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(subject) LIKE $%d OR LOWER(instructor) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY start_sort_key ASC, subject ASC LIMIT %d OFFSET %d", classEntryColumns, base, size, offset)
	var entries []models.ClassEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class entries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count class entries: %w", err)
	}
	return entries, total, nil
}

// ListAll returns every class entry.
func (r *ClassEntryRepository) ListAll(ctx context.Context) ([]models.ClassEntry, error) {
	query := "SELECT " + classEntryColumns + " FROM class_entries ORDER BY start_sort_key ASC, subject ASC"
	var entries []models.ClassEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list all class entries: %w", err)
	}
	return entries, nil
}

// ListWithReminders returns every class entry that has a reminder time or handle.
func (r *ClassEntryRepository) ListWithReminders(ctx context.Context) ([]models.ClassEntry, error) {
	query := "SELECT " + classEntryColumns + " FROM class_entries WHERE " + reminderRows + " ORDER BY start_sort_key ASC, subject ASC"
	var entries []models.ClassEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list class reminders: %w", err)
	}
	return entries, nil
}

// FindByID returns a class entry by ID.
func (r *ClassEntryRepository) FindByID(ctx context.Context, id string) (*models.ClassEntry, error) {
	query := "SELECT " + classEntryColumns + " FROM class_entries WHERE id = $1"
	var entry models.ClassEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create persists a class entry.
func (r *ClassEntryRepository) Create(ctx context.Context, entry *models.ClassEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO class_entries (id, subject, instructor, room, weekdays, start_time, start_sort_key, end_time, end_sort_key, reminder_time, reminder_handle, created_at, updated_at)
		VALUES (:id, :subject, :instructor, :room, :weekdays, :start_time, :start_sort_key, :end_time, :end_sort_key, :reminder_time, :reminder_handle, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create class entry: %w", err)
	}
	return nil
}

// Update modifies a class entry.
func (r *ClassEntryRepository) Update(ctx context.Context, entry *models.ClassEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_entries SET subject = :subject, instructor = :instructor, room = :room, weekdays = :weekdays,
		start_time = :start_time, start_sort_key = :start_sort_key, end_time = :end_time, end_sort_key = :end_sort_key,
		reminder_time = :reminder_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update class entry: %w", err)
	}
	return nil
}

// UpdateReminderHandle stores the handle of the entry's current reminder.
func (r *ClassEntryRepository) UpdateReminderHandle(ctx context.Context, id string, handle *string) error {
	return updateReminderHandle(ctx, r.db, "class_entries", id, handle)
}

// Delete removes a class entry.
func (r *ClassEntryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "class_entries", id)
}
