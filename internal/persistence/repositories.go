package persistence

import (
	"context"
	"time"
)

// BookingRepository stores bookings and answers the range queries the
// scheduling core needs.
type BookingRepository interface {
	// CreateBooking inserts a booking after verifying, inside the same
	// transaction, that no confirmed booking overlaps it. Returns ErrConflict
	// when the slot is taken.
	CreateBooking(ctx context.Context, booking Booking) error
	// CreateBookings inserts a whole series atomically. Any conflict aborts the
	// batch with ErrConflict; no partial series is ever persisted.
	CreateBookings(ctx context.Context, bookings []Booking) error
	// UpdateBooking rewrites a booking row. When the caller moved the interval,
	// it must have re-checked conflicts via CountConflicts beforehand; the
	// repository re-verifies inside the transaction, excluding the booking's
	// own row.
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)

	// CountConflicts reports how many confirmed bookings on the room overlap
	// [start, end). excludeID, when non-empty, removes one booking from the
	// scan (used by reschedules).
	CountConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error)

	ListByUser(ctx context.Context, userID string) ([]Booking, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// ListUpcomingForRoom returns confirmed bookings on the room starting after now.
	ListUpcomingForRoom(ctx context.Context, roomID string, now time.Time) ([]Booking, error)
	// ListCurrent returns confirmed bookings straddling now (start <= now <= end).
	ListCurrent(ctx context.Context, now time.Time) ([]Booking, error)
	// ListConfirmedEndedBefore returns confirmed bookings whose end precedes now.
	ListConfirmedEndedBefore(ctx context.Context, now time.Time) ([]Booking, error)
	// HasConfirmedAfter reports whether the room has any confirmed booking that
	// has not yet ended at the reference time.
	HasConfirmedAfter(ctx context.Context, roomID string, now time.Time) (bool, error)
	// DeleteCancelledBefore removes cancelled bookings whose updated_at is older
	// than the threshold and returns the number of rows deleted.
	DeleteCancelledBefore(ctx context.Context, threshold time.Time) (int, error)
}

// RoomRepository exposes catalog operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	GetRoomByNumber(ctx context.Context, roomNumber string) (Room, error)
	ListActiveRooms(ctx context.Context) ([]Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// EquipmentRepository exposes CRUD operations for equipment items.
type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, item Equipment) error
	UpdateEquipment(ctx context.Context, item Equipment) error
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	ListEquipmentForRoom(ctx context.Context, roomID string) ([]Equipment, error)
	// DetachEquipmentFromRoom nulls room_id on every item assigned to the room
	// and returns the number of items detached.
	DetachEquipmentFromRoom(ctx context.Context, roomID string) (int, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// UserRepository exposes account operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsersByPoints(ctx context.Context, limit int) ([]User, error)
}
