package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/persistence"
)

// Event is the JSON payload published for every booking event.
type Event struct {
	Kind      string    `json:"kind"`
	BookingID string    `json:"booking_id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`
	OldStart  time.Time `json:"old_start,omitempty"`
	OldEnd    time.Time `json:"old_end,omitempty"`
	Instances int       `json:"instances,omitempty"`
}

// RedisPublisher fans booking events out on a Redis pub/sub channel so other
// processes (mailers, dashboards) can react to them. Publish failures are
// logged and swallowed; bookings never fail because Redis is down.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ application.Notifier = (*RedisPublisher)(nil)

// NewRedisPublisher connects a publisher to the given Redis URL.
func NewRedisPublisher(redisURL, channel string, logger *slog.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{
		client:  redis.NewClient(opt),
		channel: channel,
		logger:  logger.With("component", "notify", "channel", channel),
	}, nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// BookingConfirmed publishes a confirmation event.
func (p *RedisPublisher) BookingConfirmed(ctx context.Context, booking persistence.Booking) {
	p.publish(ctx, Event{
		Kind:      "booking.confirmed",
		BookingID: booking.ID,
		RoomID:    booking.RoomID,
		UserID:    booking.UserID,
		Start:     booking.Start,
		End:       booking.End,
	})
}

// BookingCancelled publishes a cancellation event.
func (p *RedisPublisher) BookingCancelled(ctx context.Context, booking persistence.Booking) {
	p.publish(ctx, Event{
		Kind:      "booking.cancelled",
		BookingID: booking.ID,
		RoomID:    booking.RoomID,
		UserID:    booking.UserID,
	})
}

// BookingUpdated publishes a reschedule event carrying both windows, so a
// consumer can tell the recipient what the booking moved from.
func (p *RedisPublisher) BookingUpdated(ctx context.Context, old, updated persistence.Booking) {
	p.publish(ctx, updateEvent(old, updated))
}

func updateEvent(old, updated persistence.Booking) Event {
	return Event{
		Kind:      "booking.updated",
		BookingID: updated.ID,
		RoomID:    updated.RoomID,
		UserID:    updated.UserID,
		Start:     updated.Start,
		End:       updated.End,
		OldStart:  old.Start,
		OldEnd:    old.End,
	}
}

// RecurringSeriesConfirmed publishes one summary event for the whole series,
// not one per instance.
func (p *RedisPublisher) RecurringSeriesConfirmed(ctx context.Context, series []persistence.Booking) {
	if len(series) == 0 {
		return
	}
	first := series[0]
	event := Event{
		Kind:      "booking.series_confirmed",
		RoomID:    first.RoomID,
		UserID:    first.UserID,
		Start:     first.Start,
		End:       first.End,
		Instances: len(series),
	}
	if first.RecurringGroupID != nil {
		event.GroupID = *first.RecurringGroupID
	}
	p.publish(ctx, event)
}

func (p *RedisPublisher) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode notification", "kind", event.Kind, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish notification", "kind", event.Kind, "error", err)
	}
}
