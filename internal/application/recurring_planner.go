package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/smartroom/internal/persistence"
	"github.com/example/smartroom/internal/recurrence"
	"github.com/example/smartroom/internal/scheduler"
)

// RecurringPlanner expands a recurrence request into concrete slots, validates
// every slot against the room's schedule and commits the whole series
// atomically. A single conflict discards the entire series.
type RecurringPlanner struct {
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

// NewRecurringPlanner wires dependencies for recurring-series operations.
func NewRecurringPlanner(bookings persistence.BookingRepository, rooms persistence.RoomRepository, users persistence.UserRepository, notifier Notifier, points PointsSink, policy PointsPolicy, idGenerator func() string, now func() time.Time) *RecurringPlanner {
	return NewRecurringPlannerWithLogger(bookings, rooms, users, notifier, points, policy, idGenerator, now, nil)
}

// NewRecurringPlannerWithLogger wires dependencies including a base logger.
func NewRecurringPlannerWithLogger(bookings persistence.BookingRepository, rooms persistence.RoomRepository, users persistence.UserRepository, notifier Notifier, points PointsSink, policy PointsPolicy, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RecurringPlanner {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if policy.PerBooking == 0 {
		policy = DefaultPointsPolicy()
	}
	return &RecurringPlanner{
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

// CreateRecurringBookings generates the full series for the request and
// persists it as one atomic batch sharing a fresh recurring group id.
//
// The guarantee is all-or-nothing: the first slot that conflicts with an
// existing confirmed booking aborts the request with the offending date, and
// no instance of the series is ever persisted.
func (p *RecurringPlanner) CreateRecurringBookings(ctx context.Context, params RecurringBookingParams) ([]persistence.Booking, error) {
	logger := serviceLogger(ctx, p.logger, "recurring_planner", "create_series", "room_id", params.RoomID, "user_id", params.UserID)

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}
	if params.SemesterStart.IsZero() || params.SemesterEnd.IsZero() {
		vErr.add("semester", "semester start and end dates are required")
	}
	if params.StartHour < 0 || params.StartHour > 23 || params.StartMinute < 0 || params.StartMinute > 59 {
		vErr.add("start_time", "start time must name a valid time of day")
	}
	if params.EndHour < 0 || params.EndHour > 23 || params.EndMinute < 0 || params.EndMinute > 59 {
		vErr.add("end_time", "end time must name a valid time of day")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := p.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return nil, mapRepoError(err, params.RoomID)
	}
	if !room.Active {
		vErr.add("room", "room is not active")
		return nil, vErr
	}

	user, err := p.users.GetUser(ctx, params.UserID)
	if err != nil {
		return nil, mapRepoError(err, params.RoomID)
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	slots, err := recurrence.Expand(recurrence.Rule{
		Weekday:       params.Weekday,
		StartClock:    recurrence.NewClock(params.StartHour, params.StartMinute),
		EndClock:      recurrence.NewClock(params.EndHour, params.EndMinute),
		SemesterStart: params.SemesterStart,
		SemesterEnd:   params.SemesterEnd,
		IntervalWeeks: params.IntervalWeeks,
	})
	if err != nil {
		vErr.add("recurrence", err.Error())
		return nil, vErr
	}
	if len(slots) == 0 {
		return nil, ErrEmptyRange
	}

	now := p.now()

	// Pre-validate every slot against the room's schedule so the caller learns
	// which date failed. One query fetches the schedule, the overlap scan runs
	// in memory. The batch insert re-checks inside its transaction, closing the
	// race with concurrent single bookings on the same room.
	existing, err := p.bookings.ListUpcomingForRoom(ctx, room.ID, now)
	if err != nil {
		return nil, err
	}
	intervals := make([]scheduler.Interval, 0, len(existing))
	for _, booking := range existing {
		intervals = append(intervals, scheduler.Interval{
			BookingID: booking.ID,
			RoomID:    booking.RoomID,
			Start:     booking.Start,
			End:       booking.End,
		})
	}
	for _, slot := range slots {
		candidate := scheduler.Interval{RoomID: room.ID, Start: slot.Start, End: slot.End}
		if scheduler.HasConflict(intervals, candidate) {
			return nil, &ConflictError{RoomID: room.ID, Date: slot.Start}
		}
	}

	groupID := uuid.NewString()
	purpose := strings.TrimSpace(params.Purpose)

	series := make([]persistence.Booking, 0, len(slots))
	for _, slot := range slots {
		series = append(series, persistence.Booking{
			ID:               p.idGenerator(),
			RoomID:           room.ID,
			UserID:           user.ID,
			Start:            slot.Start,
			End:              slot.End,
			Purpose:          purpose,
			Status:           persistence.BookingConfirmed,
			Notes:            params.Notes,
			Recurring:        true,
			RecurringGroupID: &groupID,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	if err := p.bookings.CreateBookings(ctx, series); err != nil {
		return nil, mapRepoError(err, room.ID)
	}

	if p.points != nil {
		if err := p.points.AddPoints(ctx, user.ID, p.policy.PerBooking*len(series), now); err != nil {
			logger.Error("failed to award series points", "user_id", user.ID, "error", err)
		}
	}

	// One summary notification for the whole series, never one per instance.
	if p.notifier != nil {
		p.notifier.RecurringSeriesConfirmed(ctx, series)
	}

	logger.Info("recurring series created", "group_id", groupID, "instances", len(series))
	return series, nil
}
