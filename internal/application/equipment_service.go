package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// EquipmentService manages equipment items. An item belongs to at most one
// room at a time and its lifecycle is independent of bookings.
type EquipmentService struct {
	equipment   persistence.EquipmentRepository
	rooms       persistence.RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEquipmentService wires dependencies for equipment operations.
func NewEquipmentService(equipment persistence.EquipmentRepository, rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time) *EquipmentService {
	return NewEquipmentServiceWithLogger(equipment, rooms, idGenerator, now, nil)
}

// NewEquipmentServiceWithLogger wires dependencies including a base logger.
func NewEquipmentServiceWithLogger(equipment persistence.EquipmentRepository, rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EquipmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EquipmentService{
		equipment:   equipment,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateEquipment registers an item, optionally assigned to a room.
func (s *EquipmentService) CreateEquipment(ctx context.Context, params CreateEquipmentParams) (persistence.Equipment, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "equipment name is required")
	}
	if params.Type == "" {
		vErr.add("type", "equipment type is required")
	}
	if vErr.HasErrors() {
		return persistence.Equipment{}, vErr
	}

	if params.RoomID != nil {
		if _, err := s.rooms.GetRoom(ctx, *params.RoomID); err != nil {
			return persistence.Equipment{}, mapRepoError(err, *params.RoomID)
		}
	}

	now := s.now()
	item := persistence.Equipment{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(params.Name),
		Type:        params.Type,
		Description: params.Description,
		Working:     true,
		RoomID:      params.RoomID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.equipment.CreateEquipment(ctx, item); err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}
	return item, nil
}

// UpdateEquipment applies a partial patch to an item.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, equipmentID string, patch EquipmentPatch) (persistence.Equipment, error) {
	item, err := s.equipment.GetEquipment(ctx, equipmentID)
	if err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			vErr := &ValidationError{}
			vErr.add("name", "equipment name must not be blank")
			return persistence.Equipment{}, vErr
		}
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Working != nil {
		item.Working = *patch.Working
	}
	item.UpdatedAt = s.now()

	if err := s.equipment.UpdateEquipment(ctx, item); err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}
	return item, nil
}

// AssignToRoom moves an item into a room.
func (s *EquipmentService) AssignToRoom(ctx context.Context, equipmentID, roomID string) (persistence.Equipment, error) {
	item, err := s.equipment.GetEquipment(ctx, equipmentID)
	if err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return persistence.Equipment{}, mapRepoError(err, roomID)
	}

	item.RoomID = &roomID
	item.UpdatedAt = s.now()
	if err := s.equipment.UpdateEquipment(ctx, item); err != nil {
		return persistence.Equipment{}, mapRepoError(err, roomID)
	}
	return item, nil
}

// Unassign removes an item from its room, leaving it unallocated.
func (s *EquipmentService) Unassign(ctx context.Context, equipmentID string) (persistence.Equipment, error) {
	item, err := s.equipment.GetEquipment(ctx, equipmentID)
	if err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}

	item.RoomID = nil
	item.UpdatedAt = s.now()
	if err := s.equipment.UpdateEquipment(ctx, item); err != nil {
		return persistence.Equipment{}, mapRepoError(err, "")
	}
	return item, nil
}

// DeleteEquipment removes an item.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, equipmentID string) error {
	if err := s.equipment.DeleteEquipment(ctx, equipmentID); err != nil {
		return mapRepoError(err, "")
	}
	return nil
}
