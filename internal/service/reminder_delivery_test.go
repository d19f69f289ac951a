package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planner-api/pkg/jobs"
	"github.com/noah-isme/planner-api/pkg/notify"
)

type enqueueRecorder struct {
	jobs []jobs.Job
}

func (e *enqueueRecorder) Enqueue(job jobs.Job) error {
	e.jobs = append(e.jobs, job)
	return nil
}

type dispatcherStub struct {
	got []notify.Delivery
	err error
}

func (d *dispatcherStub) Name() string { return "stub" }

func (d *dispatcherStub) Dispatch(ctx context.Context, delivery notify.Delivery) error {
	d.got = append(d.got, delivery)
	return d.err
}

func TestEnqueueDeliveryWrapsDelivery(t *testing.T) {
	rec := &enqueueRecorder{}
	fire := EnqueueDelivery(rec)

	delivery := notify.Delivery{Handle: "h1", At: "08:00 AM", Payload: notify.Payload{Title: "Essay"}}
	require.NoError(t, fire(context.Background(), delivery))
	require.Len(t, rec.jobs, 1)
	assert.Equal(t, ReminderFireJob, rec.jobs[0].Type)
	assert.NotEmpty(t, rec.jobs[0].ID)
	assert.Equal(t, delivery, rec.jobs[0].Payload)
}

func TestDeliverReminder(t *testing.T) {
	stub := &dispatcherStub{}
	handler := DeliverReminder(stub)

	delivery := notify.Delivery{Handle: "h1"}
	require.NoError(t, handler(context.Background(), jobs.Job{ID: "j1", Payload: delivery}))
	assert.Equal(t, []notify.Delivery{delivery}, stub.got)

	err := handler(context.Background(), jobs.Job{ID: "j2", Payload: "nope"})
	assert.Error(t, err)

	stub.err = errors.New("offline")
	assert.Error(t, handler(context.Background(), jobs.Job{ID: "j3", Payload: delivery}))
}

func TestQueueDeliversFiredReminder(t *testing.T) {
	stub := &dispatcherStub{}
	done := make(chan struct{})
	queue := jobs.NewQueue("reminders", jobs.QueueConfig{Workers: 1})
	queue.Handle(ReminderFireJob, func(ctx context.Context, job jobs.Job) error {
		defer close(done)
		return DeliverReminder(stub)(ctx, job)
	})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, EnqueueDelivery(queue)(context.Background(), notify.Delivery{Handle: "h9"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not delivered")
	}
	require.Len(t, stub.got, 1)
	assert.Equal(t, "h9", stub.got[0].Handle)
}
