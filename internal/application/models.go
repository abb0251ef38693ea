package application

import (
	"context"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// CreateBookingParams wraps the data required to create a single booking.
type CreateBookingParams struct {
	RoomID  string
	UserID  string
	Start   time.Time
	End     time.Time
	Purpose string
	Notes   *string
}

// BookingPatch applies partial updates to an existing booking. Nil fields are
// left untouched, which keeps "omitted" distinct from "set to zero value".
type BookingPatch struct {
	Start   *time.Time
	End     *time.Time
	Purpose *string
	Notes   *string
}

// UpdateBookingParams wraps the data required to update a booking. Only the
// owning user, identified by username, may update.
type UpdateBookingParams struct {
	BookingID         string
	RequesterUsername string
	Patch             BookingPatch
}

// RecurringBookingParams describes a recurring-series request. The semester
// end date is inclusive; IntervalWeeks of zero or less is treated as weekly.
type RecurringBookingParams struct {
	RoomID        string
	UserID        string
	SemesterStart time.Time
	SemesterEnd   time.Time
	Weekday       time.Weekday
	StartHour     int
	StartMinute   int
	EndHour       int
	EndMinute     int
	IntervalWeeks int
	Purpose       string
	Notes         *string
}

// RoomPatch applies partial updates to a room. Nil fields are left untouched.
type RoomPatch struct {
	RoomNumber *string
	Name       *string
	Capacity   *int
	Building   *string
	Floor      *string
	Location   *string
	RoomType   *persistence.RoomType
	Active     *bool
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	RoomNumber string
	Name       string
	Capacity   int
	Building   string
	Floor      string
	Location   string
	RoomType   persistence.RoomType
}

// CreateEquipmentParams wraps the data required to register an equipment item.
type CreateEquipmentParams struct {
	Name        string
	Type        persistence.EquipmentType
	Description string
	RoomID      *string
}

// EquipmentPatch applies partial updates to an equipment item.
type EquipmentPatch struct {
	Name        *string
	Description *string
	Working     *bool
}

// RegisterUserParams wraps the data required to register an account.
type RegisterUserParams struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	Department string
	Role       persistence.UserRole
}

// UserProfile is a user enriched with the derived booking total.
type UserProfile struct {
	persistence.User
	TotalBookings int
}

// Notifier is the sink for finalized booking events. Implementations must be
// fire-and-forget from the caller's perspective: failures are logged by the
// services and never propagated to booking operations.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking persistence.Booking)
	BookingCancelled(ctx context.Context, booking persistence.Booking)
	BookingUpdated(ctx context.Context, old, updated persistence.Booking)
	RecurringSeriesConfirmed(ctx context.Context, series []persistence.Booking)
}

// PointsSink records gamification point awards. Like Notifier, it is best effort.
type PointsSink interface {
	AddPoints(ctx context.Context, userID string, delta int, when time.Time) error
}
