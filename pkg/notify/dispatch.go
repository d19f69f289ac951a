package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogDispatcher writes deliveries to the structured log.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher constructs a log dispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Name implements Dispatcher.
func (d *LogDispatcher) Name() string { return "log" }

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, delivery Delivery) error {
	d.logger.Info("reminder fired",
		zap.String("handle", delivery.Handle),
		zap.String("entity_kind", delivery.Payload.EntityKind),
		zap.String("entity_id", delivery.Payload.EntityID),
		zap.String("title", delivery.Payload.Title),
		zap.String("at", delivery.At))
	return nil
}

// Publisher is the subset of the redis client used for fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisDispatcher publishes deliveries as JSON on a pub/sub channel.
type RedisDispatcher struct {
	client  Publisher
	channel string
}

// NewRedisDispatcher constructs a redis dispatcher.
func NewRedisDispatcher(client Publisher, channel string) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: channel}
}

// Name implements Dispatcher.
func (d *RedisDispatcher) Name() string { return "redis" }

// Dispatch implements Dispatcher.
func (d *RedisDispatcher) Dispatch(ctx context.Context, delivery Delivery) error {
	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	if err := d.client.Publish(ctx, d.channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", d.channel, err)
	}
	return nil
}

// MessageSender is the subset of the telegram bot used for delivery.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramDispatcher sends deliveries as chat messages.
type TelegramDispatcher struct {
	sender MessageSender
	chatID int64
}

// NewTelegramDispatcher constructs a telegram dispatcher.
func NewTelegramDispatcher(sender MessageSender, chatID int64) *TelegramDispatcher {
	return &TelegramDispatcher{sender: sender, chatID: chatID}
}

// Name implements Dispatcher.
func (d *TelegramDispatcher) Name() string { return "telegram" }

// Dispatch implements Dispatcher.
func (d *TelegramDispatcher) Dispatch(ctx context.Context, delivery Delivery) error {
	_, err := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: d.chatID,
		Text:   FormatMessage(delivery),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatMessage renders a delivery as human-readable text.
func FormatMessage(delivery Delivery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder: %s", delivery.Payload.Title)
	if delivery.At != "" {
		fmt.Fprintf(&b, " at %s", delivery.At)
	}
	if len(delivery.Payload.Weekdays) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(delivery.Payload.Weekdays, ", "))
	}
	if delivery.Payload.Body != "" {
		b.WriteString("\n")
		b.WriteString(delivery.Payload.Body)
	}
	return b.String()
}

// MultiDispatcher fans a delivery out to every wrapped dispatcher.
type MultiDispatcher struct {
	dispatchers []Dispatcher
	logger      *zap.Logger
	onDelivered func(channel string)
}

// NewMultiDispatcher wraps dispatchers. onDelivered, when set, is called
// once per channel that accepted the delivery.
func NewMultiDispatcher(logger *zap.Logger, onDelivered func(channel string), dispatchers ...Dispatcher) *MultiDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiDispatcher{dispatchers: dispatchers, logger: logger, onDelivered: onDelivered}
}

// Name implements Dispatcher.
func (m *MultiDispatcher) Name() string { return "multi" }

// Dispatch implements Dispatcher. Every channel is attempted; failures are
// joined into the returned error.
func (m *MultiDispatcher) Dispatch(ctx context.Context, delivery Delivery) error {
	var errs []error
	for _, d := range m.dispatchers {
		if err := d.Dispatch(ctx, delivery); err != nil {
			m.logger.Warn("reminder dispatch failed",
				zap.String("channel", d.Name()),
				zap.String("handle", delivery.Handle),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		if m.onDelivered != nil {
			m.onDelivered(d.Name())
		}
	}
	return errors.Join(errs...)
}
