package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/persistence"
)

type equipmentService interface {
	CreateEquipment(ctx context.Context, params application.CreateEquipmentParams) (persistence.Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID string, patch application.EquipmentPatch) (persistence.Equipment, error)
	AssignToRoom(ctx context.Context, equipmentID, roomID string) (persistence.Equipment, error)
	Unassign(ctx context.Context, equipmentID string) (persistence.Equipment, error)
	DeleteEquipment(ctx context.Context, equipmentID string) error
}

// EquipmentHandler serves equipment management endpoints.
type EquipmentHandler struct {
	service   equipmentService
	responder responder
}

func NewEquipmentHandler(service equipmentService, logger *slog.Logger) *EquipmentHandler {
	return &EquipmentHandler{service: service, responder: newResponder(logger)}
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	item, err := h.service.CreateEquipment(r.Context(), application.CreateEquipmentParams{
		Name:        strings.TrimSpace(req.Name),
		Type:        persistence.EquipmentType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Description: strings.TrimSpace(req.Description),
		RoomID:      req.RoomID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if equipmentID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	var req equipmentPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	item, err := h.service.UpdateEquipment(r.Context(), equipmentID, application.EquipmentPatch{
		Name:        req.Name,
		Description: req.Description,
		Working:     req.Working,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if equipmentID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("room_id is required"))
		return
	}

	item, err := h.service.AssignToRoom(r.Context(), equipmentID, roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if equipmentID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	item, err := h.service.Unassign(r.Context(), equipmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if equipmentID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	if err := h.service.DeleteEquipment(r.Context(), equipmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type equipmentRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	RoomID      *string `json:"room_id"`
}

type equipmentPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Working     *bool   `json:"working"`
}

type assignRequest struct {
	RoomID string `json:"room_id"`
}

type equipmentDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Working     bool    `json:"working"`
	RoomID      *string `json:"room_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toEquipmentDTO(item persistence.Equipment) equipmentDTO {
	return equipmentDTO{
		ID:          item.ID,
		Name:        item.Name,
		Type:        string(item.Type),
		Description: item.Description,
		Working:     item.Working,
		RoomID:      item.RoomID,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toEquipmentDTOs(items []persistence.Equipment) []equipmentDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]equipmentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toEquipmentDTO(item))
	}
	return out
}

type equipmentResponse struct {
	Equipment equipmentDTO `json:"equipment"`
}

type listEquipmentResponse struct {
	Equipment []equipmentDTO `json:"equipment"`
}
