package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/planner-api/pkg/jobs"
	"github.com/noah-isme/planner-api/pkg/notify"
)

// ReminderFireJob is the job type carrying a fired reminder.
const ReminderFireJob = "reminder.fire"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// EnqueueDelivery returns a notifier fire callback that hands deliveries to
// the job queue, keeping dispatch off the cron goroutine.
func EnqueueDelivery(queue jobEnqueuer) notify.FireFunc {
	return func(ctx context.Context, delivery notify.Delivery) error {
		return queue.Enqueue(jobs.Job{
			ID:       uuid.NewString(),
			Type:     ReminderFireJob,
			Payload:  delivery,
			Enqueued: time.Now().UTC(),
		})
	}
}

// DeliverReminder returns the queue handler that dispatches a fired reminder.
// Errors make the queue retry the job.
func DeliverReminder(dispatcher notify.Dispatcher) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		delivery, ok := job.Payload.(notify.Delivery)
		if !ok {
			return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
		}
		return dispatcher.Dispatch(ctx, delivery)
	}
}
