package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// BookingCompleter is the slice of the booking service reconciliation needs.
type BookingCompleter interface {
	AutoCompleteEnded(ctx context.Context, now time.Time) (int, error)
}

// Jobs bundles the three periodic reconciliation tasks. Each job is
// independently callable, idempotent, and safe to run concurrently with
// booking mutations; derived state is corrected on the next tick if a write
// races.
type Jobs struct {
	bookings  persistence.BookingRepository
	rooms     persistence.RoomRepository
	completer BookingCompleter
	retention time.Duration
	logger    *slog.Logger
}

// DefaultRetention is how long cancelled bookings are kept before purging.
const DefaultRetention = 30 * 24 * time.Hour

// NewJobs wires the reconciliation jobs. A non-positive retention falls back
// to DefaultRetention.
func NewJobs(bookings persistence.BookingRepository, rooms persistence.RoomRepository, completer BookingCompleter, retention time.Duration, logger *slog.Logger) *Jobs {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		bookings:  bookings,
		rooms:     rooms,
		completer: completer,
		retention: retention,
		logger:    logger,
	}
}

// PurgeOldCancelled deletes cancelled bookings whose updated_at is older than
// the retention window and returns the number of rows removed.
func (j *Jobs) PurgeOldCancelled(ctx context.Context, now time.Time) (int, error) {
	threshold := now.Add(-j.retention)
	deleted, err := j.bookings.DeleteCancelledBefore(ctx, threshold)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		j.logger.Info("purged old cancelled bookings", "count", deleted, "threshold", threshold)
	}
	return deleted, nil
}

// SyncRoomOccupancy recomputes every room's occupancy from the booking table
// and writes only rows whose stored status differs. The room status column is
// a cache; the booking table stays the source of truth.
func (j *Jobs) SyncRoomOccupancy(ctx context.Context, now time.Time) (int, error) {
	active, err := j.bookings.ListCurrent(ctx, now)
	if err != nil {
		return 0, err
	}

	occupied := make(map[string]struct{}, len(active))
	for _, booking := range active {
		occupied[booking.RoomID] = struct{}{}
	}

	rooms, err := j.rooms.ListRooms(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, room := range rooms {
		status := persistence.RoomAvailable
		if _, ok := occupied[room.ID]; ok {
			status = persistence.RoomOccupied
		}
		if room.Status == status {
			continue
		}
		room.Status = status
		room.UpdatedAt = now
		if err := j.rooms.UpdateRoom(ctx, room); err != nil {
			j.logger.Error("failed to update room status", "room_id", room.ID, "error", err)
			continue
		}
		j.logger.Info("room status updated", "room_number", room.RoomNumber, "status", status)
		updated++
	}
	return updated, nil
}

// AutoCompleteEnded marks confirmed bookings that have ended as COMPLETED.
func (j *Jobs) AutoCompleteEnded(ctx context.Context, now time.Time) (int, error) {
	return j.completer.AutoCompleteEnded(ctx, now)
}
