package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planner-api/pkg/timecode"
)

func mustTime(t *testing.T, s string) timecode.TimeOfDay {
	t.Helper()
	tod, err := timecode.Parse(s)
	require.NoError(t, err)
	return tod
}

func TestCronSpec(t *testing.T) {
	at := mustTime(t, "07:30 PM")

	assert.Equal(t, "30 19 * * *", cronSpec(Request{At: at, Recurring: true}))
	assert.Equal(t, "30 19 * * 1,5",
		cronSpec(Request{At: at, Recurring: true, Weekdays: []time.Weekday{time.Friday, time.Monday}}))

	assert.Equal(t, "30 19 * * *", cronSpec(Request{At: at}))

	midnight := mustTime(t, "12:05 AM")
	assert.Equal(t, "5 0 * * *", cronSpec(Request{At: midnight, Recurring: true}))
}

func TestCronNotifierScheduleAndCancel(t *testing.T) {
	n := NewCronNotifier(time.UTC, nil, nil)
	ctx := context.Background()

	h1, err := n.Schedule(ctx, Request{At: mustTime(t, "09:00 AM"), Recurring: true})
	require.NoError(t, err)
	h2, err := n.Schedule(ctx, Request{At: mustTime(t, "10:00 AM"), Recurring: true})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, n.Active())

	require.NoError(t, n.Cancel(ctx, h1))
	assert.Equal(t, 1, n.Active())
	assert.ErrorIs(t, n.Cancel(ctx, h1), ErrUnknownHandle)
	assert.ErrorIs(t, n.Cancel(ctx, "nope"), ErrUnknownHandle)
}

func TestCronNotifierRejectsPastOneShot(t *testing.T) {
	n := NewCronNotifier(time.UTC, nil, nil)
	n.now = func() time.Time { return time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC) }

	past := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	_, err := n.Schedule(context.Background(), Request{At: mustTime(t, "11:59 AM"), Date: &past})
	assert.ErrorIs(t, err, ErrInPast)

	_, err = n.Schedule(context.Background(), Request{At: mustTime(t, "12:01 PM"), Date: &past})
	assert.NoError(t, err)
}

func TestCronNotifierOneShotKeepsItsYear(t *testing.T) {
	n := NewCronNotifier(time.UTC, nil, nil)
	now := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	date := time.Date(2027, time.October, 26, 0, 0, 0, 0, time.UTC)
	handle, err := n.Schedule(context.Background(), Request{At: mustTime(t, "09:00 AM"), Date: &date})
	require.NoError(t, err)

	next, ok := n.NextRun(handle)
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, time.October, 26, 9, 0, 0, 0, time.UTC), next)
	assert.True(t, n.Scheduled(handle))
}

func TestOnceAtFiresOnce(t *testing.T) {
	at := time.Date(2027, time.October, 26, 9, 0, 0, 0, time.UTC)
	sched := onceAt(at)

	assert.Equal(t, at, sched.Next(at.AddDate(-1, 0, 0)))
	assert.Equal(t, at, sched.Next(at.Add(-time.Minute)))
	assert.True(t, sched.Next(at).IsZero())
	assert.True(t, sched.Next(at.Add(time.Hour)).IsZero())
}

func TestCronNotifierRequiresTime(t *testing.T) {
	n := NewCronNotifier(time.UTC, nil, nil)
	_, err := n.Schedule(context.Background(), Request{Recurring: true})
	assert.Error(t, err)
}

func TestCronNotifierOneShotRemovesItselfOnFire(t *testing.T) {
	fired := make(chan Delivery, 1)
	n := NewCronNotifier(time.UTC, func(_ context.Context, d Delivery) error {
		fired <- d
		return nil
	}, nil)
	date := time.Now().UTC().AddDate(0, 0, 1)

	handle, err := n.Schedule(context.Background(), Request{
		At:      mustTime(t, "08:15 AM"),
		Date:    &date,
		Payload: Payload{EntityKind: "task", EntityID: "t-1", Title: "Essay"},
	})
	require.NoError(t, err)

	n.run(handle)

	d := <-fired
	assert.Equal(t, handle, d.Handle)
	assert.Equal(t, "08:15 AM", d.At)
	assert.Equal(t, "Essay", d.Payload.Title)
	assert.Equal(t, 0, n.Active())
	assert.False(t, n.Scheduled(handle))
	assert.ErrorIs(t, n.Cancel(context.Background(), handle), ErrUnknownHandle)
}

func TestCronNotifierRecurringSurvivesFire(t *testing.T) {
	n := NewCronNotifier(time.UTC, func(context.Context, Delivery) error { return nil }, nil)
	handle, err := n.Schedule(context.Background(), Request{At: mustTime(t, "08:15 AM"), Recurring: true})
	require.NoError(t, err)
	n.run(handle)
	assert.Equal(t, 1, n.Active())
	assert.True(t, n.Scheduled(handle))
}

type publisherStub struct {
	channel string
	message []byte
	err     error
}

func (p *publisherStub) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.message, _ = message.([]byte)
	return redis.NewIntResult(1, p.err)
}

func TestRedisDispatcherPublishesJSON(t *testing.T) {
	pub := &publisherStub{}
	d := NewRedisDispatcher(pub, "planner:reminders")

	err := d.Dispatch(context.Background(), Delivery{Handle: "h", Payload: Payload{Title: "Math"}, At: "09:00 AM"})
	require.NoError(t, err)
	assert.Equal(t, "planner:reminders", pub.channel)

	var got Delivery
	require.NoError(t, json.Unmarshal(pub.message, &got))
	assert.Equal(t, "h", got.Handle)
	assert.Equal(t, "Math", got.Payload.Title)

	pub.err = errors.New("down")
	assert.Error(t, d.Dispatch(context.Background(), Delivery{}))
}

type senderStub struct {
	params *bot.SendMessageParams
	err    error
}

func (s *senderStub) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: 1}, nil
}

func TestTelegramDispatcherSendsFormattedText(t *testing.T) {
	sender := &senderStub{}
	d := NewTelegramDispatcher(sender, 4242)

	err := d.Dispatch(context.Background(), Delivery{
		At:      "10:30 AM",
		Payload: Payload{Title: "Physics", Body: "Room 3", Weekdays: []string{"Monday", "Wednesday"}},
	})
	require.NoError(t, err)
	require.NotNil(t, sender.params)
	assert.Equal(t, int64(4242), sender.params.ChatID)
	assert.Equal(t, "Reminder: Physics at 10:30 AM (Monday, Wednesday)\nRoom 3", sender.params.Text)
}

type failingDispatcher struct{}

func (failingDispatcher) Name() string { return "broken" }
func (failingDispatcher) Dispatch(context.Context, Delivery) error {
	return errors.New("unavailable")
}

func TestMultiDispatcherAttemptsAll(t *testing.T) {
	sender := &senderStub{}
	var delivered []string
	m := NewMultiDispatcher(nil, func(ch string) { delivered = append(delivered, ch) },
		failingDispatcher{}, NewLogDispatcher(nil), NewTelegramDispatcher(sender, 1))

	err := m.Dispatch(context.Background(), Delivery{Payload: Payload{Title: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"log", "telegram"}, delivered)
	assert.NotNil(t, sender.params)
}
