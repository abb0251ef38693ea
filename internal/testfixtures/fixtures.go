// Package testfixtures provides deterministic builders for persistence records
// used across the service and repository test suites.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

var (
	userCounter    uint64
	roomCounter    uint64
	bookingCounter uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a deterministic active student with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	user := persistence.User{
		ID:           id,
		Username:     id,
		Email:        fmt.Sprintf("%s@example.edu", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		FullName:     fmt.Sprintf("User %03d", idx),
		Department:   "Engineering",
		Role:         persistence.RoleStudent,
		Active:       true,
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(u *persistence.User) { u.Username = username }
}

// WithUserRole sets the role on the generated user.
func WithUserRole(role persistence.UserRole) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithUserActive sets the active flag.
func WithUserActive(active bool) UserOption {
	return func(u *persistence.User) { u.Active = active }
}

// WithUserPoints sets the points balance.
func WithUserPoints(points int) UserOption {
	return func(u *persistence.User) { u.Points = points }
}

// WithUserStreak sets the streak counter and the timestamp of the booking that
// produced it.
func WithUserStreak(streak int, lastBooking time.Time) UserOption {
	return func(u *persistence.User) {
		u.UsageStreak = streak
		u.LastBooking = &lastBooking
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room record.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic active classroom with optional overrides.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		ID:         fmt.Sprintf("room-%03d", idx),
		RoomNumber: fmt.Sprintf("R-%03d", idx),
		Name:       fmt.Sprintf("Room %03d", idx),
		Capacity:   int(10 + idx%20),
		Building:   "Main",
		Floor:      fmt.Sprintf("%d", 1+idx%4),
		Location:   "Main Campus",
		RoomType:   persistence.RoomTypeSeminar,
		Status:     persistence.RoomAvailable,
		Active:     true,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) { r.ID = id }
}

// WithRoomNumber overrides the generated room number.
func WithRoomNumber(number string) RoomOption {
	return func(r *persistence.Room) { r.RoomNumber = number }
}

// WithRoomCapacity sets the capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) { r.Capacity = capacity }
}

// WithRoomActive sets the active flag.
func WithRoomActive(active bool) RoomOption {
	return func(r *persistence.Room) { r.Active = active }
}

// WithRoomStatus sets the occupancy status.
func WithRoomStatus(status persistence.RoomStatus) RoomOption {
	return func(r *persistence.Room) { r.Status = status }
}

// ---------------------------- Booking fixtures ---------------------------

// BookingOption configures a generated booking record.
type BookingOption func(*persistence.Booking)

// NewBooking returns a deterministic confirmed booking with optional
// overrides. Each call occupies a distinct one hour slot so that fixtures do
// not collide unless a test makes them collide on purpose.
func NewBooking(opts ...BookingOption) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 2 * time.Hour)
	booking := persistence.Booking{
		ID:        fmt.Sprintf("booking-%03d", idx),
		RoomID:    fmt.Sprintf("room-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		Purpose:   fmt.Sprintf("Lecture %03d", idx),
		Status:    persistence.BookingConfirmed,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.Booking) { b.ID = id }
}

// WithBookingRoom sets the room ID.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *persistence.Booking) { b.RoomID = roomID }
}

// WithBookingUser sets the owning user ID.
func WithBookingUser(userID string) BookingOption {
	return func(b *persistence.Booking) { b.UserID = userID }
}

// WithBookingWindow sets the start and end times.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(b *persistence.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingStatus sets the lifecycle status.
func WithBookingStatus(status persistence.BookingStatus) BookingOption {
	return func(b *persistence.Booking) { b.Status = status }
}

// WithBookingGroup marks the booking as part of a recurring series.
func WithBookingGroup(groupID string) BookingOption {
	return func(b *persistence.Booking) {
		id := groupID
		b.Recurring = true
		b.RecurringGroupID = &id
	}
}

// WithBookingUpdatedAt sets the updated timestamp.
func WithBookingUpdatedAt(t time.Time) BookingOption {
	return func(b *persistence.Booking) { b.UpdatedAt = t }
}
