package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/notify"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

const defaultReminderCallTimeout = 5 * time.Second

type reminderNotifier interface {
	Schedule(ctx context.Context, req notify.Request) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// handleTracker is implemented by notifiers that can tell whether a handle
// is still pending.
type handleTracker interface {
	Scheduled(handle string) bool
}

type reminderMetrics interface {
	ReminderScheduled()
	ReminderCancelled()
	ReminderCancelFailed()
	ReminderScheduleFailed()
}

// ReminderOptions describes when and how a reminder fires besides its time of day.
type ReminderOptions struct {
	Date      *time.Time
	Recurring bool
	Weekdays  []time.Weekday
	Title     string
	Body      string
	DayNames  []string
}

// ReminderLedger keeps at most one live reminder per entity. Replacing a
// reminder always cancels the old handle before scheduling the new one.
type ReminderLedger struct {
	notifier reminderNotifier
	metrics  reminderMetrics
	timeout  time.Duration
	logger   *zap.Logger
	locks    *keyedMutex
}

// NewReminderLedger constructs the ledger. A non-positive timeout falls back to five seconds.
func NewReminderLedger(notifier reminderNotifier, metrics reminderMetrics, timeout time.Duration, logger *zap.Logger) *ReminderLedger {
	if timeout <= 0 {
		timeout = defaultReminderCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderLedger{
		notifier: notifier,
		metrics:  metrics,
		timeout:  timeout,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// SetReminder replaces the binding's reminder with one firing at the given time.
// On success the binding is active and carries the new handle. On failure the
// binding holds no reminder and the error is REMINDER_SCHEDULING_FAILED.
func (l *ReminderLedger) SetReminder(ctx context.Context, binding *models.ReminderBinding, at timecode.TimeOfDay, opts ReminderOptions) (string, error) {
	unlock := l.locks.Lock(binding.Key())
	defer unlock()

	if binding.HasHandle() {
		l.cancel(ctx, binding, *binding.Handle)
	}
	binding.Handle = nil
	binding.State = models.ReminderPending

	req := notify.Request{
		At:        at,
		Date:      opts.Date,
		Recurring: opts.Recurring,
		Weekdays:  opts.Weekdays,
		Payload: notify.Payload{
			EntityKind: string(binding.EntityKind),
			EntityID:   binding.EntityID,
			Title:      opts.Title,
			Body:       opts.Body,
			Weekdays:   opts.DayNames,
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	handle, err := l.notifier.Schedule(callCtx, req)
	cancel()
	if err == nil && handle == "" {
		err = errors.New("notifier returned an empty handle")
	}
	if err != nil {
		binding.State = models.ReminderNone
		if l.metrics != nil {
			l.metrics.ReminderScheduleFailed()
		}
		l.logger.Warn("reminder scheduling failed",
			zap.String("entity", binding.Key()),
			zap.String("at", at.String()),
			zap.Error(err))
		return "", appErrors.WrapAs(err, appErrors.ErrReminderSchedulingFailed, "")
	}

	binding.Handle = &handle
	binding.State = models.ReminderActive
	if l.metrics != nil {
		l.metrics.ReminderScheduled()
	}
	l.logger.Debug("reminder set",
		zap.String("entity", binding.Key()),
		zap.String("handle", handle),
		zap.String("at", at.String()))
	return handle, nil
}

// Live reports whether the binding's handle still refers to a pending
// reminder. Handles are assumed live when the notifier cannot tell.
func (l *ReminderLedger) Live(binding *models.ReminderBinding) bool {
	if !binding.HasHandle() {
		return false
	}
	if tracker, ok := l.notifier.(handleTracker); ok {
		return tracker.Scheduled(*binding.Handle)
	}
	return true
}

// ClearReminder cancels the binding's reminder if it has one. A failed cancel
// is logged and the binding is cleared regardless.
func (l *ReminderLedger) ClearReminder(ctx context.Context, binding *models.ReminderBinding) {
	unlock := l.locks.Lock(binding.Key())
	defer unlock()

	if binding.HasHandle() {
		l.cancel(ctx, binding, *binding.Handle)
	}
	binding.Handle = nil
	binding.State = models.ReminderNone
}

func (l *ReminderLedger) cancel(ctx context.Context, binding *models.ReminderBinding, handle string) {
	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	err := l.notifier.Cancel(callCtx, handle)
	if errors.Is(err, notify.ErrUnknownHandle) {
		// Already fired or removed.
		l.logger.Debug("reminder already gone",
			zap.String("entity", binding.Key()),
			zap.String("handle", handle))
		return
	}
	if err != nil {
		if l.metrics != nil {
			l.metrics.ReminderCancelFailed()
		}
		l.logger.Warn("reminder cancel failed",
			zap.String("entity", binding.Key()),
			zap.String("handle", handle),
			zap.Error(err))
		return
	}
	if l.metrics != nil {
		l.metrics.ReminderCancelled()
	}
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
