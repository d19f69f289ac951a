package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FireFunc receives every reminder when it fires.
type FireFunc func(ctx context.Context, d Delivery) error

type entry struct {
	id  cron.EntryID
	req Request
}

// CronNotifier schedules reminders on a cron runner. Each scheduled
// reminder gets an opaque UUID handle; one-shot reminders unregister
// themselves after the first run.
type CronNotifier struct {
	cron   *cron.Cron
	loc    *time.Location
	fire   FireFunc
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewCronNotifier builds a notifier evaluating times in loc.
func NewCronNotifier(loc *time.Location, fire FireFunc, logger *zap.Logger) *CronNotifier {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronNotifier{
		cron:    cron.New(cron.WithLocation(loc)),
		loc:     loc,
		fire:    fire,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Start runs the cron loop in the background.
func (n *CronNotifier) Start() {
	n.cron.Start()
	n.logger.Info("reminder notifier started", zap.String("timezone", n.loc.String()))
}

// Stop halts the cron loop and returns a context done once running jobs finish.
func (n *CronNotifier) Stop() context.Context {
	n.logger.Info("reminder notifier stopping")
	return n.cron.Stop()
}

// Schedule registers a reminder and returns its handle.
func (n *CronNotifier) Schedule(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.At.IsZero() {
		return "", fmt.Errorf("notify: reminder time is required")
	}
	var sched cron.Schedule
	spec := cronSpec(req)
	if !req.Recurring && req.Date != nil {
		hour, minute := req.At.Clock()
		year, month, day := req.Date.Date()
		fireAt := time.Date(year, month, day, hour, minute, 0, 0, n.loc)
		if !fireAt.After(n.now().In(n.loc)) {
			return "", ErrInPast
		}
		sched = onceAt(fireAt)
		spec = "once " + fireAt.Format(time.RFC3339)
	} else {
		parsed, err := cron.ParseStandard(spec)
		if err != nil {
			return "", fmt.Errorf("notify: parse cron spec %q: %w", spec, err)
		}
		sched = parsed
	}

	handle := uuid.NewString()

	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.cron.Schedule(sched, cron.FuncJob(func() { n.run(handle) }))
	n.entries[handle] = entry{id: id, req: req}
	n.logger.Debug("reminder scheduled",
		zap.String("handle", handle),
		zap.String("spec", spec),
		zap.String("entity_id", req.Payload.EntityID),
		zap.Bool("recurring", req.Recurring))
	return handle, nil
}

// Cancel removes a scheduled reminder. Unknown handles yield ErrUnknownHandle.
func (n *CronNotifier) Cancel(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.entries[handle]
	if !ok {
		return ErrUnknownHandle
	}
	n.cron.Remove(e.id)
	delete(n.entries, handle)
	n.logger.Debug("reminder cancelled", zap.String("handle", handle))
	return nil
}

// Active returns the number of live handles.
func (n *CronNotifier) Active() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// NextRun reports when handle fires next.
func (n *CronNotifier) NextRun(handle string) (time.Time, bool) {
	n.mu.Lock()
	e, ok := n.entries[handle]
	n.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	ce := n.cron.Entry(e.id)
	next := ce.Next
	if next.IsZero() && ce.Schedule != nil {
		// Not computed until the runner starts.
		next = ce.Schedule.Next(n.now().In(n.loc))
	}
	return next, !next.IsZero()
}

// Scheduled reports whether handle still refers to a pending reminder.
// One-shot handles stop being scheduled once they fire.
func (n *CronNotifier) Scheduled(handle string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.entries[handle]
	return ok
}

func (n *CronNotifier) run(handle string) {
	n.mu.Lock()
	e, ok := n.entries[handle]
	if ok && !e.req.Recurring {
		n.cron.Remove(e.id)
		delete(n.entries, handle)
	}
	n.mu.Unlock()
	if !ok {
		return
	}

	delivery := Delivery{
		Handle:  handle,
		Payload: e.req.Payload,
		At:      e.req.At.String(),
		FiredAt: n.now().UTC(),
	}
	if n.fire == nil {
		return
	}
	if err := n.fire(context.Background(), delivery); err != nil {
		n.logger.Error("reminder delivery failed", zap.String("handle", handle), zap.Error(err))
	}
}

// onceAt fires a single time at a fixed instant, year included.
type onceAt time.Time

// Next implements cron.Schedule. A zero time tells the runner there is no
// further activation.
func (o onceAt) Next(t time.Time) time.Time {
	at := time.Time(o)
	if t.Before(at) {
		return at
	}
	return time.Time{}
}

// cronSpec renders the five-field cron expression for recurring and undated
// reminders. Dated one-shots are registered with onceAt instead.
func cronSpec(req Request) string {
	hour, minute := req.At.Clock()
	dow := "*"
	if req.Recurring && len(req.Weekdays) > 0 {
		days := make([]int, 0, len(req.Weekdays))
		for _, wd := range req.Weekdays {
			days = append(days, int(wd))
		}
		sort.Ints(days)
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = fmt.Sprint(d)
		}
		dow = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow)
}
