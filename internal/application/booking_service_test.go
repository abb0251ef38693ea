package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/smartroom/internal/persistence"
	"github.com/example/smartroom/internal/testfixtures"
)

func newBookingServiceForTest(bookings *bookingRepoStub, rooms *roomRepoStub, users *userRepoStub, notifier *notifierStub, points *pointsSinkStub, clock *testfixtures.Clock) *BookingService {
	return NewBookingService(bookings, rooms, users, notifier, points, DefaultPointsPolicy(), sequentialIDs("booking"), clock.NowFunc())
}

func TestBookingService_CreateBooking_ValidatesInput(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	svc := newBookingServiceForTest(newBookingRepoStub(), newRoomRepoStub(), newUserRepoStub(), &notifierStub{}, &pointsSinkStub{}, clock)

	start := clock.Now().Add(2 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  "room-1",
		UserID:  "user-1",
		Start:   start,
		End:     start.Add(-time.Hour),
		Purpose: "   ",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["purpose"]; !ok {
		t.Errorf("expected purpose field error, got %v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["time"]; !ok {
		t.Errorf("expected time field error, got %v", vErr.FieldErrors)
	}
}

func TestBookingService_CreateBooking_RejectsPastStart(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	user := testfixtures.NewUser()
	svc := newBookingServiceForTest(newBookingRepoStub(), newRoomRepoStub(room), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	start := clock.Now().Add(-time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "Review",
	})

	if !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected ErrPastTime, got %v", err)
	}
}

func TestBookingService_CreateBooking_RejectsInactiveRoom(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom(testfixtures.WithRoomActive(false))
	user := testfixtures.NewUser()
	svc := newBookingServiceForTest(newBookingRepoStub(), newRoomRepoStub(room), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	start := clock.Now().Add(2 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "Review",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["room"]; !ok {
		t.Errorf("expected room field error, got %v", vErr.FieldErrors)
	}
}

func TestBookingService_CreateBooking_RejectsConflict(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	user := testfixtures.NewUser()
	bookings := newBookingRepoStub()
	bookings.conflictCount = 1
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(room), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	start := clock.Now().Add(2 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "Review",
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictErr.RoomID != room.ID {
		t.Errorf("conflict names room %q, want %q", conflictErr.RoomID, room.ID)
	}
	if len(bookings.created) != 0 {
		t.Errorf("expected no booking persisted, got %d", len(bookings.created))
	}
}

func TestBookingService_CreateBooking_MapsTransactionalConflict(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	user := testfixtures.NewUser()
	bookings := newBookingRepoStub()
	bookings.createErr = persistence.ErrConflict
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(room), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	start := clock.Now().Add(2 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "Review",
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError from racing insert, got %v", err)
	}
}

func TestBookingService_CreateBooking_AwardsPointsAndNotifies(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	user := testfixtures.NewUser()
	bookings := newBookingRepoStub()
	notifier := &notifierStub{}
	points := &pointsSinkStub{}
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(room), newUserRepoStub(user), notifier, points, clock)

	start := clock.Now().Add(2 * time.Hour)
	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "  Review  ",
	})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	if booking.Status != persistence.BookingConfirmed {
		t.Errorf("status = %q, want CONFIRMED", booking.Status)
	}
	if booking.Purpose != "Review" {
		t.Errorf("purpose = %q, want trimmed", booking.Purpose)
	}
	if len(bookings.created) != 1 {
		t.Fatalf("expected one persisted booking, got %d", len(bookings.created))
	}
	if len(points.awards) != 1 || points.awards[0].delta != 5 {
		t.Errorf("expected one five point award, got %+v", points.awards)
	}
	if len(notifier.confirmed) != 1 {
		t.Errorf("expected one confirmation notification, got %d", len(notifier.confirmed))
	}
}

func TestBookingService_CreateBooking_PointsFailureDoesNotFailBooking(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	user := testfixtures.NewUser()
	points := &pointsSinkStub{err: errors.New("points store down")}
	svc := newBookingServiceForTest(newBookingRepoStub(), newRoomRepoStub(room), newUserRepoStub(user), &notifierStub{}, points, clock)

	start := clock.Now().Add(2 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:  room.ID,
		UserID:  user.ID,
		Start:   start,
		End:     start.Add(time.Hour),
		Purpose: "Review",
	})
	if err != nil {
		t.Fatalf("booking must succeed despite points failure, got %v", err)
	}
}

func TestBookingService_UpdateBooking_PurposeOnlySkipsConflictCheck(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	user := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(user.ID),
		testfixtures.WithBookingWindow(clock.Now().Add(2*time.Hour), clock.Now().Add(3*time.Hour)),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	// A conflict would be reported if the check ran at all.
	bookings.conflictCount = 1
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	purpose := "Updated agenda"
	updated, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID:         booking.ID,
		RequesterUsername: user.Username,
		Patch:             BookingPatch{Purpose: &purpose},
	})
	if err != nil {
		t.Fatalf("UpdateBooking returned error: %v", err)
	}

	if len(bookings.conflictCalls) != 0 {
		t.Errorf("expected no conflict queries for a purpose-only patch, got %d", len(bookings.conflictCalls))
	}
	if updated.Purpose != purpose {
		t.Errorf("purpose = %q, want %q", updated.Purpose, purpose)
	}
	if !updated.Start.Equal(booking.Start) || !updated.End.Equal(booking.End) {
		t.Errorf("times changed unexpectedly: %v-%v", updated.Start, updated.End)
	}
}

func TestBookingService_UpdateBooking_TimeChangeChecksConflictExcludingSelf(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	user := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(user.ID),
		testfixtures.WithBookingWindow(clock.Now().Add(2*time.Hour), clock.Now().Add(3*time.Hour)),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	bookings.conflictCount = 1
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	newStart := booking.Start.Add(time.Hour)
	newEnd := booking.End.Add(time.Hour)
	_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID:         booking.ID,
		RequesterUsername: user.Username,
		Patch:             BookingPatch{Start: &newStart, End: &newEnd},
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(bookings.conflictCalls) != 1 {
		t.Fatalf("expected one conflict query, got %d", len(bookings.conflictCalls))
	}
	if bookings.conflictCalls[0].excludeID != booking.ID {
		t.Errorf("conflict query must exclude the booking's own row, excludeID = %q", bookings.conflictCalls[0].excludeID)
	}
}

func TestBookingService_UpdateBooking_RejectsNonOwner(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	owner := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(owner.ID),
		testfixtures.WithBookingWindow(clock.Now().Add(2*time.Hour), clock.Now().Add(3*time.Hour)),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(owner), &notifierStub{}, &pointsSinkStub{}, clock)

	purpose := "Hijack"
	_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID:         booking.ID,
		RequesterUsername: "someone-else",
		Patch:             BookingPatch{Purpose: &purpose},
	})

	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
}

func TestBookingService_UpdateBooking_RejectsStartedBooking(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	user := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(user.ID),
		testfixtures.WithBookingWindow(clock.Now().Add(-time.Hour), clock.Now().Add(time.Hour)),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(user), &notifierStub{}, &pointsSinkStub{}, clock)

	purpose := "Too late"
	_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID:         booking.ID,
		RequesterUsername: user.Username,
		Patch:             BookingPatch{Purpose: &purpose},
	})

	if !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected ErrPastTime, got %v", err)
	}
}

func TestBookingService_CancelBooking_OwnerAndAdmin(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	owner := testfixtures.NewUser()
	admin := testfixtures.NewUser(testfixtures.WithUserRole(persistence.RoleAdmin))
	stranger := testfixtures.NewUser()

	cases := []struct {
		name      string
		requester string
		wantErr   error
	}{
		{name: "owner may cancel", requester: owner.ID},
		{name: "admin may cancel", requester: admin.ID},
		{name: "stranger may not", requester: stranger.ID, wantErr: ErrPermission},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			booking := testfixtures.NewBooking(testfixtures.WithBookingUser(owner.ID))
			bookings := newBookingRepoStub()
			bookings.put(booking)
			notifier := &notifierStub{}
			svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(owner, admin, stranger), notifier, &pointsSinkStub{}, clock)

			cancelled, err := svc.CancelBooking(context.Background(), booking.ID, tc.requester)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CancelBooking returned error: %v", err)
			}
			if cancelled.Status != persistence.BookingCancelled {
				t.Errorf("status = %q, want CANCELLED", cancelled.Status)
			}
			if len(notifier.cancelled) != 1 {
				t.Errorf("expected one cancellation notification, got %d", len(notifier.cancelled))
			}
		})
	}
}

func TestBookingService_CancelBooking_IdempotentOnCancelled(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	owner := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(owner.ID),
		testfixtures.WithBookingStatus(persistence.BookingCancelled),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	notifier := &notifierStub{}
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(owner), notifier, &pointsSinkStub{}, clock)

	cancelled, err := svc.CancelBooking(context.Background(), booking.ID, owner.ID)
	if err != nil {
		t.Fatalf("cancelling a cancelled booking must be a no-op, got %v", err)
	}
	if cancelled.Status != persistence.BookingCancelled {
		t.Errorf("status = %q, want CANCELLED", cancelled.Status)
	}
	if len(bookings.updated) != 0 {
		t.Errorf("expected no write for idempotent cancel, got %d", len(bookings.updated))
	}
	if len(notifier.cancelled) != 0 {
		t.Errorf("expected no repeat notification, got %d", len(notifier.cancelled))
	}
}

func TestBookingService_CancelBooking_RejectsCompleted(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	owner := testfixtures.NewUser()
	booking := testfixtures.NewBooking(
		testfixtures.WithBookingUser(owner.ID),
		testfixtures.WithBookingStatus(persistence.BookingCompleted),
	)
	bookings := newBookingRepoStub()
	bookings.put(booking)
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(owner), &notifierStub{}, &pointsSinkStub{}, clock)

	_, err := svc.CancelBooking(context.Background(), booking.ID, owner.ID)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["status"]; !ok {
		t.Errorf("expected status field error, got %v", vErr.FieldErrors)
	}
}

func TestBookingService_AutoCompleteEnded_TransitionsAndCounts(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	first := testfixtures.NewBooking()
	second := testfixtures.NewBooking()
	bookings := newBookingRepoStub()
	bookings.put(first, second)
	bookings.ended = []persistence.Booking{first, second}
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(), &notifierStub{}, &pointsSinkStub{}, clock)

	count, err := svc.AutoCompleteEnded(context.Background(), clock.Now())
	if err != nil {
		t.Fatalf("AutoCompleteEnded returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("completed count = %d, want 2", count)
	}
	for _, updated := range bookings.updated {
		if updated.Status != persistence.BookingCompleted {
			t.Errorf("booking %s status = %q, want COMPLETED", updated.ID, updated.Status)
		}
	}
}

func TestBookingService_AutoCompleteEnded_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	stored := testfixtures.NewBooking()
	missing := testfixtures.NewBooking()
	bookings := newBookingRepoStub()
	bookings.put(stored)
	// The second booking is not in the store, so its update fails.
	bookings.ended = []persistence.Booking{missing, stored}
	svc := newBookingServiceForTest(bookings, newRoomRepoStub(), newUserRepoStub(), &notifierStub{}, &pointsSinkStub{}, clock)

	count, err := svc.AutoCompleteEnded(context.Background(), clock.Now())
	if err != nil {
		t.Fatalf("AutoCompleteEnded returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("completed count = %d, want 1", count)
	}
}
