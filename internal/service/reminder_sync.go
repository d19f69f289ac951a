package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/notify"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

type reminderHandleStore interface {
	UpdateReminderHandle(ctx context.Context, id string, handle *string) error
}

type reminderLedger interface {
	SetReminder(ctx context.Context, binding *models.ReminderBinding, at timecode.TimeOfDay, opts ReminderOptions) (string, error)
	ClearReminder(ctx context.Context, binding *models.ReminderBinding)
	Live(binding *models.ReminderBinding) bool
}

// syncReminder brings an entity's reminder in line with reminderTime and
// persists the resulting handle. A nil reminderTime clears the reminder.
// The returned handle is nil when no reminder is active.
func syncReminder(ctx context.Context, ledger reminderLedger, store reminderHandleStore, binding *models.ReminderBinding, reminderTime *string, opts ReminderOptions, logger *zap.Logger) (*string, error) {
	if reminderTime == nil {
		if !binding.HasHandle() {
			return nil, nil
		}
		ledger.ClearReminder(ctx, binding)
		if err := store.UpdateReminderHandle(ctx, binding.EntityID, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reminder handle")
		}
		return nil, nil
	}

	at, err := timecode.Parse(*reminderTime)
	if err != nil {
		return binding.Handle, err
	}

	_, setErr := ledger.SetReminder(ctx, binding, at, opts)
	if err := store.UpdateReminderHandle(ctx, binding.EntityID, binding.Handle); err != nil {
		logger.Error("failed to store reminder handle", zap.String("entity", binding.Key()), zap.Error(err))
		return binding.Handle, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reminder handle")
	}
	return binding.Handle, setErr
}

// refreshStoredReminder brings an entity's reminder in line after an update.
// An unchanged reminder keeps its handle while the notifier still holds it.
// A handle that went stale (fired, or lost with a previous process) is
// registered again, and a one-shot whose moment has passed is dropped.
func refreshStoredReminder(ctx context.Context, ledger reminderLedger, store reminderHandleStore, binding *models.ReminderBinding, reminderTime *string, changed bool, opts ReminderOptions, logger *zap.Logger) (*string, error) {
	if reminderTime == nil || changed {
		return syncReminder(ctx, ledger, store, binding, reminderTime, opts, logger)
	}
	if ledger.Live(binding) {
		return binding.Handle, nil
	}
	handle, err := syncReminder(ctx, ledger, store, binding, reminderTime, opts, logger)
	if errors.Is(err, notify.ErrInPast) {
		return nil, nil
	}
	return handle, err
}

// restoreReminder registers a stored reminder again after a restart and
// persists the fresh handle. Scheduling failures are logged and leave the
// entity without a reminder; only storage failures are returned.
func restoreReminder(ctx context.Context, ledger reminderLedger, store reminderHandleStore, binding *models.ReminderBinding, reminderTime *string, opts ReminderOptions, logger *zap.Logger) (*string, error) {
	handle, err := syncReminder(ctx, ledger, store, binding, reminderTime, opts, logger)
	switch {
	case err == nil:
		return handle, nil
	case errors.Is(err, notify.ErrInPast):
		return nil, nil
	case errors.Is(err, appErrors.ErrReminderSchedulingFailed), errors.Is(err, appErrors.ErrMalformedTimeString):
		logger.Warn("reminder not restored", zap.String("entity", binding.Key()), zap.Error(err))
		return nil, nil
	default:
		return nil, err
	}
}

// ReminderRestorer re-registers the stored reminders of one entity kind and
// reports how many are active afterwards.
type ReminderRestorer interface {
	RestoreReminders(ctx context.Context) (int, error)
}

// RestoreReminders runs every restorer at start-up. The notifier keeps its
// handles in memory only, so handles persisted by an earlier process point
// at nothing until this runs. A failing restorer does not stop the others.
func RestoreReminders(ctx context.Context, logger *zap.Logger, restorers ...ReminderRestorer) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	total := 0
	for _, r := range restorers {
		n, err := r.RestoreReminders(ctx)
		total += n
		if err != nil {
			logger.Error("failed to restore reminders", zap.Error(err))
		}
	}
	logger.Info("reminders restored", zap.Int("active", total))
	return total
}

// clearStoredReminder cancels an entity's reminder ahead of its removal.
func clearStoredReminder(ctx context.Context, ledger reminderLedger, binding *models.ReminderBinding) {
	if binding.HasHandle() {
		ledger.ClearReminder(ctx, binding)
	}
}

func stringsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
