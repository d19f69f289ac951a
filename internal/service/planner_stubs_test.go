package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/planner-api/internal/models"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

// handleStore records every persisted reminder handle per entity.
type handleStore struct {
	mu      sync.Mutex
	handles map[string]*string
	writes  int
}

func (h *handleStore) UpdateReminderHandle(ctx context.Context, id string, handle *string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handles == nil {
		h.handles = make(map[string]*string)
	}
	h.writes++
	if handle == nil {
		h.handles[id] = nil
		return nil
	}
	v := *handle
	h.handles[id] = &v
	return nil
}

type memoryTaskRepo struct {
	handleStore
	items map[string]*models.Task
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{items: make(map[string]*models.Task)}
}

func (r *memoryTaskRepo) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	out := make([]models.Task, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *memoryTaskRepo) ListDue(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.items {
		if t.DueDate != nil && !t.DueDate.Before(from) && !t.DueDate.After(to) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memoryTaskRepo) ListWithReminders(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	for id, item := range r.items {
		cp := *item
		if h, ok := r.handles[id]; ok {
			cp.ReminderHandle = h
		}
		if cp.ReminderTime != nil || cp.ReminderHandle != nil {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *memoryTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	if h, ok := r.handles[id]; ok {
		cp.ReminderHandle = h
	}
	return &cp, nil
}

func (r *memoryTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	cp := *task
	r.items[task.ID] = &cp
	return nil
}

func (r *memoryTaskRepo) Update(ctx context.Context, task *models.Task) error {
	if _, ok := r.items[task.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *task
	r.items[task.ID] = &cp
	return nil
}

func (r *memoryTaskRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type memoryScheduleRepo struct {
	handleStore
	items map[string]*models.Schedule
}

func newMemoryScheduleRepo() *memoryScheduleRepo {
	return &memoryScheduleRepo{items: make(map[string]*models.Schedule)}
}

func (r *memoryScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	out := make([]models.Schedule, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *memoryScheduleRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range r.items {
		if !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memoryScheduleRepo) ListWithReminders(ctx context.Context) ([]models.Schedule, error) {
	var out []models.Schedule
	for id, item := range r.items {
		cp := *item
		if h, ok := r.handles[id]; ok {
			cp.ReminderHandle = h
		}
		if cp.ReminderTime != nil || cp.ReminderHandle != nil {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *memoryScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	if h, ok := r.handles[id]; ok {
		cp.ReminderHandle = h
	}
	return &cp, nil
}

func (r *memoryScheduleRepo) Create(ctx context.Context, item *models.Schedule) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memoryScheduleRepo) Update(ctx context.Context, item *models.Schedule) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memoryScheduleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type memoryClassRepo struct {
	handleStore
	items map[string]*models.ClassEntry
}

func newMemoryClassRepo() *memoryClassRepo {
	return &memoryClassRepo{items: make(map[string]*models.ClassEntry)}
}

func (r *memoryClassRepo) List(ctx context.Context, filter models.ClassEntryFilter) ([]models.ClassEntry, int, error) {
	var out []models.ClassEntry
	for _, c := range r.items {
		if filter.Weekday != "" {
			match := false
			for _, d := range c.Weekdays {
				match = match || d == filter.Weekday
			}
			if !match {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryClassRepo) ListAll(ctx context.Context) ([]models.ClassEntry, error) {
	out, _, err := r.List(ctx, models.ClassEntryFilter{})
	return out, err
}

func (r *memoryClassRepo) ListWithReminders(ctx context.Context) ([]models.ClassEntry, error) {
	var out []models.ClassEntry
	for id, item := range r.items {
		cp := *item
		if h, ok := r.handles[id]; ok {
			cp.ReminderHandle = h
		}
		if cp.ReminderTime != nil || cp.ReminderHandle != nil {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *memoryClassRepo) FindByID(ctx context.Context, id string) (*models.ClassEntry, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	if h, ok := r.handles[id]; ok {
		cp.ReminderHandle = h
	}
	return &cp, nil
}

func (r *memoryClassRepo) Create(ctx context.Context, entry *models.ClassEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	cp := *entry
	r.items[entry.ID] = &cp
	return nil
}

func (r *memoryClassRepo) Update(ctx context.Context, entry *models.ClassEntry) error {
	cp := *entry
	r.items[entry.ID] = &cp
	return nil
}

func (r *memoryClassRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

// newTestLedger builds a real ledger around a notifier stub.
func newTestLedger(stub *notifierStub) *ReminderLedger {
	return NewReminderLedger(stub, nil, time.Second, nil)
}

func ptr[T any](v T) *T { return &v }

func sortKeyOf(display string) int {
	key, err := timecode.ToSortKey(display)
	if err != nil {
		panic(err)
	}
	return key
}
