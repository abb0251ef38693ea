package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// PointsPolicy configures the gamification award granted per created booking.
// The scoring rule is deployment policy, not business logic.
type PointsPolicy struct {
	PerBooking int
}

// DefaultPointsPolicy mirrors the historical five points per booking.
func DefaultPointsPolicy() PointsPolicy {
	return PointsPolicy{PerBooking: 5}
}

// BookingService owns the single-booking lifecycle: create, update, cancel and
// the reconciliation-driven auto-complete transition.
type BookingService struct {
	bookings    persistence.BookingRepository
	rooms       persistence.RoomRepository
	users       persistence.UserRepository
	notifier    Notifier
	points      PointsSink
	policy      PointsPolicy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings persistence.BookingRepository, rooms persistence.RoomRepository, users persistence.UserRepository, notifier Notifier, points PointsSink, policy PointsPolicy, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, users, notifier, points, policy, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies including a base logger.
func NewBookingServiceWithLogger(bookings persistence.BookingRepository, rooms persistence.RoomRepository, users persistence.UserRepository, notifier Notifier, points PointsSink, policy PointsPolicy, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if policy.PerBooking == 0 {
		policy = DefaultPointsPolicy()
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		users:       users,
		notifier:    notifier,
		points:      points,
		policy:      policy,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateBooking validates a single booking request, persists it with the
// conflict check running inside the insert transaction, and fires the
// best-effort side effects.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (persistence.Booking, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "create", "room_id", params.RoomID, "user_id", params.UserID)

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}
	if params.Start.IsZero() {
		vErr.add("start", "start time is required")
	}
	if params.End.IsZero() {
		vErr.add("end", "end time is required")
	}
	if !params.Start.IsZero() && !params.End.IsZero() && !params.Start.Before(params.End) {
		vErr.add("time", "end time must be after start time")
	}
	if vErr.HasErrors() {
		return persistence.Booking{}, vErr
	}

	now := s.now()
	if !params.Start.After(now) {
		return persistence.Booking{}, ErrPastTime
	}

	room, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, params.RoomID)
	}
	if !room.Active {
		vErr.add("room", "room is not active")
		return persistence.Booking{}, vErr
	}

	user, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, params.RoomID)
	}
	if !user.Active {
		return persistence.Booking{}, ErrAccountDisabled
	}

	conflicts, err := s.bookings.CountConflicts(ctx, room.ID, params.Start, params.End, "")
	if err != nil {
		return persistence.Booking{}, err
	}
	if conflicts > 0 {
		return persistence.Booking{}, &ConflictError{RoomID: room.ID}
	}

	booking := persistence.Booking{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		UserID:    user.ID,
		Start:     params.Start,
		End:       params.End,
		Purpose:   strings.TrimSpace(params.Purpose),
		Status:    persistence.BookingConfirmed,
		Notes:     params.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, room.ID)
	}

	s.awardPoints(ctx, logger, user.ID, s.policy.PerBooking, now)
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, booking)
	}

	logger.Info("booking created", "booking_id", booking.ID)
	return booking, nil
}

// UpdateBooking applies a partial patch to a future booking owned by the
// requester. Conflict detection runs only when the effective interval moved.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (persistence.Booking, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "update", "booking_id", params.BookingID)

	existing, err := s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "")
	}

	owner, err := s.users.GetUser(ctx, existing.UserID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "")
	}
	if owner.Username != params.RequesterUsername {
		return persistence.Booking{}, ErrPermission
	}

	now := s.now()
	// A booking that has started, or lies in the past, is immutable.
	if !existing.Start.After(now) {
		return persistence.Booking{}, ErrPastTime
	}

	patch := params.Patch
	effectiveStart := existing.Start
	if patch.Start != nil {
		effectiveStart = *patch.Start
	}
	effectiveEnd := existing.End
	if patch.End != nil {
		effectiveEnd = *patch.End
	}

	vErr := &ValidationError{}
	if !effectiveStart.Before(effectiveEnd) {
		vErr.add("time", "new end time must be after new start time")
	}
	if patch.Purpose != nil && strings.TrimSpace(*patch.Purpose) == "" {
		vErr.add("purpose", "purpose must not be blank")
	}
	if vErr.HasErrors() {
		return persistence.Booking{}, vErr
	}

	old := existing

	timesChanged := !effectiveStart.Equal(existing.Start) || !effectiveEnd.Equal(existing.End)
	if timesChanged {
		conflicts, err := s.bookings.CountConflicts(ctx, existing.RoomID, effectiveStart, effectiveEnd, existing.ID)
		if err != nil {
			return persistence.Booking{}, err
		}
		if conflicts > 0 {
			return persistence.Booking{}, &ConflictError{RoomID: existing.RoomID}
		}
		existing.Start = effectiveStart
		existing.End = effectiveEnd
	}

	if patch.Purpose != nil {
		existing.Purpose = strings.TrimSpace(*patch.Purpose)
	}
	if patch.Notes != nil {
		existing.Notes = patch.Notes
	}
	existing.UpdatedAt = now

	if err := s.bookings.UpdateBooking(ctx, existing); err != nil {
		return persistence.Booking{}, mapRepoError(err, existing.RoomID)
	}

	if s.notifier != nil {
		s.notifier.BookingUpdated(ctx, old, existing)
	}

	logger.Info("booking updated", "times_changed", timesChanged)
	return existing, nil
}

// CancelBooking transitions a confirmed booking to CANCELLED. The requester
// must be the owner or an admin. Cancelling an already cancelled booking is an
// idempotent no-op; completed bookings are terminal.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterUserID string) (persistence.Booking, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "cancel", "booking_id", bookingID)

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "")
	}

	requester, err := s.users.GetUser(ctx, requesterUserID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "")
	}
	if booking.UserID != requester.ID && requester.Role != persistence.RoleAdmin {
		return persistence.Booking{}, ErrPermission
	}

	switch booking.Status {
	case persistence.BookingCancelled:
		return booking, nil
	case persistence.BookingCompleted:
		vErr := &ValidationError{}
		vErr.add("status", "a completed booking cannot be cancelled")
		return persistence.Booking{}, vErr
	}

	booking.Status = persistence.BookingCancelled
	booking.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, booking.RoomID)
	}

	if s.notifier != nil {
		s.notifier.BookingCancelled(ctx, booking)
	}

	logger.Info("booking cancelled")
	return booking, nil
}

// AutoCompleteEnded transitions every confirmed booking whose end precedes now
// to COMPLETED and returns the number of rows transitioned. Invoked by
// reconciliation, never by users; no notifications are emitted.
func (s *BookingService) AutoCompleteEnded(ctx context.Context, now time.Time) (int, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "auto_complete")

	ended, err := s.bookings.ListConfirmedEndedBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, booking := range ended {
		booking.Status = persistence.BookingCompleted
		booking.UpdatedAt = now
		if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
			logger.Error("failed to complete booking", "booking_id", booking.ID, "error", err)
			continue
		}
		completed++
	}

	if completed > 0 {
		logger.Info("bookings auto-completed", "count", completed)
	}
	return completed, nil
}

// GetUpcomingBookingsForRoom lists confirmed bookings on the room starting after now.
func (s *BookingService) GetUpcomingBookingsForRoom(ctx context.Context, roomID string, now time.Time) ([]persistence.Booking, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapRepoError(err, roomID)
	}
	return s.bookings.ListUpcomingForRoom(ctx, roomID, now)
}

// ListUserBookings lists every booking owned by the user.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListCurrentBookings lists confirmed bookings in progress at now.
func (s *BookingService) ListCurrentBookings(ctx context.Context, now time.Time) ([]persistence.Booking, error) {
	return s.bookings.ListCurrent(ctx, now)
}

func (s *BookingService) awardPoints(ctx context.Context, logger *slog.Logger, userID string, delta int, when time.Time) {
	if s.points == nil || delta == 0 {
		return
	}
	if err := s.points.AddPoints(ctx, userID, delta, when); err != nil {
		logger.Error("failed to award booking points", "user_id", userID, "error", err)
	}
}

func mapRepoError(err error, roomID string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return &ConflictError{RoomID: roomID}
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("time", "end time must be after start time")
		return vErr
	}
	return err
}
