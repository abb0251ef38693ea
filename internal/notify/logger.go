// Package notify provides sinks for finalized booking events. Sinks are fire
// and forget: delivery failures are logged and never surface to the booking
// operation that produced the event.
package notify

import (
	"context"
	"log/slog"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/persistence"
)

// Logger emits booking events as structured log records. It is the default
// sink when no external notification transport is configured.
type Logger struct {
	logger *slog.Logger
}

var _ application.Notifier = (*Logger)(nil)

// NewLogger builds a logging notifier.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "notify")}
}

// BookingConfirmed logs a confirmation event.
func (l *Logger) BookingConfirmed(ctx context.Context, booking persistence.Booking) {
	l.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", booking.ID, "room_id", booking.RoomID, "user_id", booking.UserID,
		"start", booking.Start, "end", booking.End)
}

// BookingCancelled logs a cancellation event.
func (l *Logger) BookingCancelled(ctx context.Context, booking persistence.Booking) {
	l.logger.InfoContext(ctx, "booking cancelled",
		"booking_id", booking.ID, "room_id", booking.RoomID, "user_id", booking.UserID)
}

// BookingUpdated logs a reschedule event with both snapshots.
func (l *Logger) BookingUpdated(ctx context.Context, old, updated persistence.Booking) {
	l.logger.InfoContext(ctx, "booking updated",
		"booking_id", updated.ID, "room_id", updated.RoomID,
		"old_start", old.Start, "old_end", old.End,
		"new_start", updated.Start, "new_end", updated.End)
}

// RecurringSeriesConfirmed logs one summary event for the whole series.
func (l *Logger) RecurringSeriesConfirmed(ctx context.Context, series []persistence.Booking) {
	if len(series) == 0 {
		return
	}
	first := series[0]
	groupID := ""
	if first.RecurringGroupID != nil {
		groupID = *first.RecurringGroupID
	}
	l.logger.InfoContext(ctx, "recurring series confirmed",
		"group_id", groupID, "room_id", first.RoomID, "user_id", first.UserID,
		"instances", len(series))
}
