package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/persistence"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (persistence.Room, error)
	UpdateRoom(ctx context.Context, roomID string, patch application.RoomPatch) (persistence.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	GetRoom(ctx context.Context, roomID string) (persistence.Room, error)
	ListActiveRooms(ctx context.Context) ([]persistence.Room, error)
	FindAvailableRooms(ctx context.Context, start, end time.Time, minCapacity int) ([]persistence.Room, error)
	ListEquipment(ctx context.Context, roomID string) ([]persistence.Equipment, error)
}

type roomBookingReader interface {
	GetUpcomingBookingsForRoom(ctx context.Context, roomID string, now time.Time) ([]persistence.Booking, error)
}

// RoomHandler serves the room catalog and availability endpoints.
type RoomHandler struct {
	service   roomService
	bookings  roomBookingReader
	now       func() time.Time
	responder responder
}

func NewRoomHandler(service roomService, bookings roomBookingReader, now func() time.Time, logger *slog.Logger) *RoomHandler {
	if now == nil {
		now = time.Now
	}
	return &RoomHandler{service: service, bookings: bookings, now: now, responder: newResponder(logger)}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		Name:       strings.TrimSpace(req.Name),
		Capacity:   req.Capacity,
		Building:   strings.TrimSpace(req.Building),
		Floor:      strings.TrimSpace(req.Floor),
		Location:   strings.TrimSpace(req.Location),
		RoomType:   persistence.RoomType(strings.ToUpper(strings.TrimSpace(req.RoomType))),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	var req roomPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), roomID, req.toPatch())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	if err := h.service.DeleteRoom(r.Context(), roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms, err := h.service.ListActiveRooms(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

// Available filters active rooms down to those free for the requested window.
// Query parameters: start, end (RFC 3339) and optional min_capacity.
func (h *RoomHandler) Available(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	start := parseTimestamp(query.Get("start"))
	end := parseTimestamp(query.Get("end"))
	if start.IsZero() || end.IsZero() {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("start and end query parameters are required"))
		return
	}

	minCapacity := 0
	if raw := strings.TrimSpace(query.Get("min_capacity")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minCapacity = parsed
		}
	}

	rooms, err := h.service.FindAvailableRooms(r.Context(), start, end, minCapacity)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *RoomHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	items, err := h.service.ListEquipment(r.Context(), roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: toEquipmentDTOs(items)})
}

func (h *RoomHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	bookings, err := h.bookings.GetUpcomingBookingsForRoom(r.Context(), roomID, h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

type roomRequest struct {
	RoomNumber string `json:"room_number"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Building   string `json:"building"`
	Floor      string `json:"floor"`
	Location   string `json:"location"`
	RoomType   string `json:"room_type"`
}

type roomPatchRequest struct {
	RoomNumber *string `json:"room_number"`
	Name       *string `json:"name"`
	Capacity   *int    `json:"capacity"`
	Building   *string `json:"building"`
	Floor      *string `json:"floor"`
	Location   *string `json:"location"`
	RoomType   *string `json:"room_type"`
	Active     *bool   `json:"active"`
}

func (r roomPatchRequest) toPatch() application.RoomPatch {
	patch := application.RoomPatch{
		RoomNumber: r.RoomNumber,
		Name:       r.Name,
		Capacity:   r.Capacity,
		Building:   r.Building,
		Floor:      r.Floor,
		Location:   r.Location,
		Active:     r.Active,
	}
	if r.RoomType != nil {
		roomType := persistence.RoomType(strings.ToUpper(strings.TrimSpace(*r.RoomType)))
		patch.RoomType = &roomType
	}
	return patch
}

type roomDTO struct {
	ID         string `json:"id"`
	RoomNumber string `json:"room_number"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Building   string `json:"building"`
	Floor      string `json:"floor"`
	Location   string `json:"location"`
	RoomType   string `json:"room_type"`
	Status     string `json:"status"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		ID:         room.ID,
		RoomNumber: room.RoomNumber,
		Name:       room.Name,
		Capacity:   room.Capacity,
		Building:   room.Building,
		Floor:      room.Floor,
		Location:   room.Location,
		RoomType:   string(room.RoomType),
		Status:     string(room.Status),
		Active:     room.Active,
		CreatedAt:  room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}
