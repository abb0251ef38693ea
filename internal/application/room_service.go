package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// RoomService manages the room catalog. Room status is derived state owned by
// reconciliation; this service never computes occupancy itself.
type RoomService struct {
	rooms       persistence.RoomRepository
	bookings    persistence.BookingRepository
	equipment   persistence.EquipmentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room catalog operations.
func NewRoomService(rooms persistence.RoomRepository, bookings persistence.BookingRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, bookings, equipment, idGenerator, now, nil)
}

// NewRoomServiceWithLogger wires dependencies including a base logger.
func NewRoomServiceWithLogger(rooms persistence.RoomRepository, bookings persistence.BookingRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		bookings:    bookings,
		equipment:   equipment,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateRoom registers a new active room with a unique room number.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (persistence.Room, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.RoomNumber) == "" {
		vErr.add("room_number", "room number is required")
	}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "room name is required")
	}
	if params.Capacity < 1 {
		vErr.add("capacity", "capacity must be at least 1")
	}
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	if _, err := s.rooms.GetRoomByNumber(ctx, params.RoomNumber); err == nil {
		return persistence.Room{}, ErrAlreadyExists
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Room{}, err
	}

	now := s.now()
	room := persistence.Room{
		ID:         s.idGenerator(),
		RoomNumber: strings.TrimSpace(params.RoomNumber),
		Name:       strings.TrimSpace(params.Name),
		Capacity:   params.Capacity,
		Building:   params.Building,
		Floor:      params.Floor,
		Location:   params.Location,
		RoomType:   params.RoomType,
		Status:     persistence.RoomAvailable,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return persistence.Room{}, mapRepoError(err, "")
	}
	return room, nil
}

// UpdateRoom applies a partial patch. Nil patch fields leave the stored value
// untouched, so an omitted field can never null existing data.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) (persistence.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err, roomID)
	}

	if patch.RoomNumber != nil && *patch.RoomNumber != room.RoomNumber {
		if _, err := s.rooms.GetRoomByNumber(ctx, *patch.RoomNumber); err == nil {
			return persistence.Room{}, ErrAlreadyExists
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return persistence.Room{}, err
		}
		room.RoomNumber = *patch.RoomNumber
	}
	if patch.Name != nil {
		room.Name = *patch.Name
	}
	if patch.Capacity != nil {
		if *patch.Capacity < 1 {
			vErr := &ValidationError{}
			vErr.add("capacity", "capacity must be at least 1")
			return persistence.Room{}, vErr
		}
		room.Capacity = *patch.Capacity
	}
	if patch.Building != nil {
		room.Building = *patch.Building
	}
	if patch.Floor != nil {
		room.Floor = *patch.Floor
	}
	if patch.Location != nil {
		room.Location = *patch.Location
	}
	if patch.RoomType != nil {
		room.RoomType = *patch.RoomType
	}
	if patch.Active != nil {
		room.Active = *patch.Active
	}
	room.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, room); err != nil {
		return persistence.Room{}, mapRepoError(err, roomID)
	}
	return room, nil
}

// DeleteRoom removes a room. Rooms with confirmed bookings that have not yet
// ended cannot be deleted, and assigned equipment is detached first so no item
// is silently orphaned.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	logger := serviceLogger(ctx, s.logger, "room", "delete", "room_id", roomID)

	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return mapRepoError(err, roomID)
	}

	busy, err := s.bookings.HasConfirmedAfter(ctx, roomID, s.now())
	if err != nil {
		return err
	}
	if busy {
		vErr := &ValidationError{}
		vErr.add("bookings", "room has confirmed bookings that have not ended")
		return vErr
	}

	detached, err := s.equipment.DetachEquipmentFromRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if detached > 0 {
		logger.Info("detached equipment before room deletion", "count", detached)
	}

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		return mapRepoError(err, roomID)
	}
	return nil
}

// GetRoom fetches a room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (persistence.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err, roomID)
	}
	return room, nil
}

// GetRoomByNumber fetches a room by its unique room number.
func (s *RoomService) GetRoomByNumber(ctx context.Context, roomNumber string) (persistence.Room, error) {
	room, err := s.rooms.GetRoomByNumber(ctx, roomNumber)
	if err != nil {
		return persistence.Room{}, mapRepoError(err, "")
	}
	return room, nil
}

// ListActiveRooms returns every active room.
func (s *RoomService) ListActiveRooms(ctx context.Context) ([]persistence.Room, error) {
	return s.rooms.ListActiveRooms(ctx)
}

// FindAvailableRooms returns active rooms with no confirmed booking
// overlapping [start, end), optionally filtered by a minimum capacity.
func (s *RoomService) FindAvailableRooms(ctx context.Context, start, end time.Time, minCapacity int) ([]persistence.Room, error) {
	if !start.Before(end) {
		vErr := &ValidationError{}
		vErr.add("time", "end time must be after start time")
		return nil, vErr
	}

	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]persistence.Room, 0, len(rooms))
	for _, room := range rooms {
		if minCapacity > 0 && room.Capacity < minCapacity {
			continue
		}
		conflicts, err := s.bookings.CountConflicts(ctx, room.ID, start, end, "")
		if err != nil {
			return nil, err
		}
		if conflicts == 0 {
			available = append(available, room)
		}
	}
	return available, nil
}

// ListEquipment returns the equipment assigned to a room.
func (s *RoomService) ListEquipment(ctx context.Context, roomID string) ([]persistence.Equipment, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapRepoError(err, roomID)
	}
	return s.equipment.ListEquipmentForRoom(ctx, roomID)
}
