package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/smartroom/internal/persistence"
	"github.com/example/smartroom/internal/testfixtures"
)

func newRoomServiceForTest(rooms *roomRepoStub, bookings *bookingRepoStub, equipment *equipmentRepoStub, clock *testfixtures.Clock) *RoomService {
	return NewRoomService(rooms, bookings, equipment, sequentialIDs("room"), clock.NowFunc())
}

func TestRoomService_CreateRoom_ValidatesInput(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	svc := newRoomServiceForTest(newRoomRepoStub(), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		RoomNumber: " ",
		Name:       "",
		Capacity:   0,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"room_number", "name", "capacity"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected %s field error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestRoomService_CreateRoom_RejectsDuplicateNumber(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	existing := testfixtures.NewRoom()
	svc := newRoomServiceForTest(newRoomRepoStub(existing), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		RoomNumber: existing.RoomNumber,
		Name:       "Duplicate",
		Capacity:   10,
	})

	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRoomService_CreateRoom_DefaultsToActiveAvailable(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	svc := newRoomServiceForTest(newRoomRepoStub(), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		RoomNumber: "B-204",
		Name:       "Seminar B-204",
		Capacity:   24,
		RoomType:   persistence.RoomTypeSeminar,
	})
	if err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	if !room.Active {
		t.Error("new rooms must be active")
	}
	if room.Status != persistence.RoomAvailable {
		t.Errorf("status = %q, want AVAILABLE", room.Status)
	}
}

func TestRoomService_UpdateRoom_PatchesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	rooms := newRoomRepoStub(room)
	svc := newRoomServiceForTest(rooms, newBookingRepoStub(), newEquipmentRepoStub(), clock)

	capacity := 99
	updated, err := svc.UpdateRoom(context.Background(), room.ID, RoomPatch{Capacity: &capacity})
	if err != nil {
		t.Fatalf("UpdateRoom returned error: %v", err)
	}

	if updated.Capacity != 99 {
		t.Errorf("capacity = %d, want 99", updated.Capacity)
	}
	if updated.Name != room.Name || updated.RoomNumber != room.RoomNumber {
		t.Error("untouched fields must survive a partial patch")
	}
}

func TestRoomService_UpdateRoom_RejectsInvalidCapacity(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	svc := newRoomServiceForTest(newRoomRepoStub(room), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	capacity := 0
	_, err := svc.UpdateRoom(context.Background(), room.ID, RoomPatch{Capacity: &capacity})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRoomService_DeleteRoom_RefusedWithFutureBookings(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	rooms := newRoomRepoStub(room)
	bookings := newBookingRepoStub()
	bookings.hasConfirmed = true
	svc := newRoomServiceForTest(rooms, bookings, newEquipmentRepoStub(), clock)

	err := svc.DeleteRoom(context.Background(), room.ID)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["bookings"]; !ok {
		t.Errorf("expected bookings field error, got %v", vErr.FieldErrors)
	}
	if len(rooms.deleted) != 0 {
		t.Error("room must not be deleted while bookings remain")
	}
}

func TestRoomService_DeleteRoom_DetachesEquipmentFirst(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	room := testfixtures.NewRoom()
	rooms := newRoomRepoStub(room)
	roomID := room.ID
	equipment := newEquipmentRepoStub(persistence.Equipment{
		ID:      "eq-1",
		Name:    "Projector",
		Type:    persistence.EquipmentProjector,
		Working: true,
		RoomID:  &roomID,
	})
	svc := newRoomServiceForTest(rooms, newBookingRepoStub(), equipment, clock)

	if err := svc.DeleteRoom(context.Background(), room.ID); err != nil {
		t.Fatalf("DeleteRoom returned error: %v", err)
	}

	if len(equipment.detached) != 1 || equipment.detached[0] != room.ID {
		t.Errorf("expected equipment detach for room %s, got %v", room.ID, equipment.detached)
	}
	if item := equipment.items["eq-1"]; item.RoomID != nil {
		t.Error("equipment must be unassigned, not deleted, when its room goes away")
	}
	if len(rooms.deleted) != 1 {
		t.Errorf("expected room deletion, got %v", rooms.deleted)
	}
}

func TestRoomService_FindAvailableRooms_FiltersByConflictAndCapacity(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	small := testfixtures.NewRoom(testfixtures.WithRoomCapacity(4))
	busy := testfixtures.NewRoom(testfixtures.WithRoomCapacity(30))
	free := testfixtures.NewRoom(testfixtures.WithRoomCapacity(30))
	inactive := testfixtures.NewRoom(testfixtures.WithRoomCapacity(30), testfixtures.WithRoomActive(false))

	bookings := newBookingRepoStub()
	bookings.conflictOn = func(q conflictQuery) int {
		if q.roomID == busy.ID {
			return 1
		}
		return 0
	}
	svc := newRoomServiceForTest(newRoomRepoStub(small, busy, free, inactive), bookings, newEquipmentRepoStub(), clock)

	start := clock.Now().Add(time.Hour)
	available, err := svc.FindAvailableRooms(context.Background(), start, start.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("FindAvailableRooms returned error: %v", err)
	}

	if len(available) != 1 || available[0].ID != free.ID {
		t.Fatalf("expected only the free large room, got %+v", available)
	}
}

func TestRoomService_FindAvailableRooms_RejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	svc := newRoomServiceForTest(newRoomRepoStub(), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	start := clock.Now()
	_, err := svc.FindAvailableRooms(context.Background(), start, start, 0)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRoomService_GetRoom_MapsNotFound(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	svc := newRoomServiceForTest(newRoomRepoStub(), newBookingRepoStub(), newEquipmentRepoStub(), clock)

	_, err := svc.GetRoom(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
