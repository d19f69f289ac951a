package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/notify"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

type notifierStub struct {
	mu          sync.Mutex
	calls       []string
	requests    []notify.Request
	scheduleErr error
	cancelErr   error
	delay       time.Duration
	next        int
	gone        map[string]bool
}

func (n *notifierStub) Schedule(ctx context.Context, req notify.Request) (string, error) {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "schedule")
	n.requests = append(n.requests, req)
	if n.scheduleErr != nil {
		return "", n.scheduleErr
	}
	n.next++
	return fmt.Sprintf("h%d", n.next), nil
}

func (n *notifierStub) Cancel(ctx context.Context, handle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "cancel:"+handle)
	if n.gone[handle] {
		return notify.ErrUnknownHandle
	}
	return n.cancelErr
}

func (n *notifierStub) Scheduled(handle string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.gone[handle]
}

// fire marks a one-shot handle as delivered and no longer pending.
func (n *notifierStub) fire(handle string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gone == nil {
		n.gone = make(map[string]bool)
	}
	n.gone[handle] = true
}

func (n *notifierStub) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func mustTOD(t *testing.T, s string) timecode.TimeOfDay {
	t.Helper()
	tod, err := timecode.Parse(s)
	require.NoError(t, err)
	return tod
}

func handlePtr(s string) *string { return &s }

func TestReminderLedgerSetWithoutPreviousHandle(t *testing.T) {
	stub := &notifierStub{}
	metrics := NewMetricsService()
	ledger := NewReminderLedger(stub, metrics, time.Second, nil)
	binding := models.NewReminderBinding(models.EntityTask, "t-1", nil)

	handle, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "9:05 pm"), ReminderOptions{Title: "Essay"})
	require.NoError(t, err)
	assert.Equal(t, "h1", handle)
	assert.Equal(t, []string{"schedule"}, stub.Calls())
	assert.Equal(t, models.ReminderActive, binding.State)
	require.NotNil(t, binding.Handle)
	assert.Equal(t, "h1", *binding.Handle)

	req := stub.requests[0]
	assert.Equal(t, "09:05 PM", req.At.String())
	assert.Equal(t, "task", req.Payload.EntityKind)
	assert.Equal(t, "t-1", req.Payload.EntityID)
	assert.Equal(t, "Essay", req.Payload.Title)
	assert.Equal(t, uint64(1), metrics.Snapshot().RemindersScheduled)
}

func TestReminderLedgerCancelsBeforeScheduling(t *testing.T) {
	stub := &notifierStub{}
	ledger := NewReminderLedger(stub, nil, time.Second, nil)
	binding := models.NewReminderBinding(models.EntitySchedule, "s-1", handlePtr("abc"))

	handle, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "07:00 AM"), ReminderOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel:abc", "schedule"}, stub.Calls())
	assert.Equal(t, handle, *binding.Handle)
	assert.NotEqual(t, "abc", handle)
}

func TestReminderLedgerCancelFailureDoesNotBlockScheduling(t *testing.T) {
	stub := &notifierStub{cancelErr: errors.New("notifier offline")}
	metrics := NewMetricsService()
	ledger := NewReminderLedger(stub, metrics, time.Second, nil)
	binding := models.NewReminderBinding(models.EntityTask, "t-2", handlePtr("gone"))

	handle, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "10:00 AM"), ReminderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "h1", handle)
	assert.Equal(t, []string{"cancel:gone", "schedule"}, stub.Calls())
	assert.Equal(t, models.ReminderActive, binding.State)
	assert.Equal(t, uint64(1), metrics.Snapshot().ReminderCancelFailures)
}

func TestReminderLedgerUnknownHandleIsSilent(t *testing.T) {
	stub := &notifierStub{cancelErr: notify.ErrUnknownHandle}
	metrics := NewMetricsService()
	ledger := NewReminderLedger(stub, metrics, time.Second, nil)
	binding := models.NewReminderBinding(models.EntityTask, "t-3", handlePtr("fired"))

	ledger.ClearReminder(context.Background(), binding)
	assert.Nil(t, binding.Handle)
	assert.Equal(t, models.ReminderNone, binding.State)
	snap := metrics.Snapshot()
	assert.Zero(t, snap.ReminderCancelFailures)
	assert.Zero(t, snap.RemindersCancelled)
}

func TestReminderLedgerScheduleFailureClearsBinding(t *testing.T) {
	stub := &notifierStub{scheduleErr: errors.New("notifier offline")}
	metrics := NewMetricsService()
	ledger := NewReminderLedger(stub, metrics, time.Second, nil)
	binding := models.NewReminderBinding(models.EntityClassEntry, "c-1", handlePtr("old"))

	handle, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "01:30 PM"), ReminderOptions{Recurring: true})
	require.Error(t, err)
	assert.Empty(t, handle)
	assert.ErrorIs(t, err, appErrors.ErrReminderSchedulingFailed)
	assert.Contains(t, err.Error(), "notifier offline")
	assert.Equal(t, models.ReminderNone, binding.State)
	assert.Nil(t, binding.Handle)
	assert.Equal(t, []string{"cancel:old", "schedule"}, stub.Calls())
	assert.Equal(t, uint64(1), metrics.Snapshot().ReminderScheduleFailures)
}

func TestReminderLedgerScheduleTimeout(t *testing.T) {
	stub := &notifierStub{delay: time.Second}
	ledger := NewReminderLedger(stub, nil, 20*time.Millisecond, nil)
	binding := models.NewReminderBinding(models.EntityTask, "t-3", nil)

	_, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "08:00 AM"), ReminderOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrReminderSchedulingFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.ReminderNone, binding.State)
}

func TestReminderLedgerClear(t *testing.T) {
	stub := &notifierStub{}
	ledger := NewReminderLedger(stub, nil, time.Second, nil)

	empty := models.NewReminderBinding(models.EntityTask, "t-4", nil)
	ledger.ClearReminder(context.Background(), empty)
	assert.Empty(t, stub.Calls())
	assert.Equal(t, models.ReminderNone, empty.State)

	bound := models.NewReminderBinding(models.EntityTask, "t-5", handlePtr("h-old"))
	ledger.ClearReminder(context.Background(), bound)
	assert.Equal(t, []string{"cancel:h-old"}, stub.Calls())
	assert.Nil(t, bound.Handle)
	assert.Equal(t, models.ReminderNone, bound.State)

	stub.cancelErr = errors.New("boom")
	failing := models.NewReminderBinding(models.EntityTask, "t-6", handlePtr("h-x"))
	ledger.ClearReminder(context.Background(), failing)
	assert.Nil(t, failing.Handle)
	assert.Equal(t, models.ReminderNone, failing.State)
}

func TestReminderLedgerRepeatedSetsKeepOneHandle(t *testing.T) {
	stub := &notifierStub{}
	ledger := NewReminderLedger(stub, nil, time.Second, nil)
	binding := models.NewReminderBinding(models.EntityTask, "t-7", nil)

	for i := 0; i < 3; i++ {
		_, err := ledger.SetReminder(context.Background(), binding, mustTOD(t, "06:00 PM"), ReminderOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"schedule", "cancel:h1", "schedule", "cancel:h2", "schedule"}, stub.Calls())
	assert.Equal(t, "h3", *binding.Handle)
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("task:1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, k.size())
}
