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

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (persistence.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (persistence.Booking, error)
	CancelBooking(ctx context.Context, bookingID, requesterUserID string) (persistence.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]persistence.Booking, error)
	ListCurrentBookings(ctx context.Context, now time.Time) ([]persistence.Booking, error)
}

type recurringPlanner interface {
	CreateRecurringBookings(ctx context.Context, params application.RecurringBookingParams) ([]persistence.Booking, error)
}

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	service   bookingService
	planner   recurringPlanner
	now       func() time.Time
	responder responder
}

func NewBookingHandler(service bookingService, planner recurringPlanner, now func() time.Time, logger *slog.Logger) *BookingHandler {
	if now == nil {
		now = time.Now
	}
	return &BookingHandler{service: service, planner: planner, now: now, responder: newResponder(logger)}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		RoomID:  strings.TrimSpace(req.RoomID),
		UserID:  principal.UserID,
		Start:   parseTimestamp(req.Start),
		End:     parseTimestamp(req.End),
		Purpose: strings.TrimSpace(req.Purpose),
		Notes:   req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.planner == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	weekday, err := parseWeekday(req.Weekday)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	series, err := h.planner.CreateRecurringBookings(r.Context(), application.RecurringBookingParams{
		RoomID:        strings.TrimSpace(req.RoomID),
		UserID:        principal.UserID,
		SemesterStart: parseTimestamp(req.SemesterStart),
		SemesterEnd:   parseTimestamp(req.SemesterEnd),
		Weekday:       weekday,
		StartHour:     req.StartHour,
		StartMinute:   req.StartMinute,
		EndHour:       req.EndHour,
		EndMinute:     req.EndMinute,
		IntervalWeeks: req.IntervalWeeks,
		Purpose:       strings.TrimSpace(req.Purpose),
		Notes:         req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, seriesResponse{
		Bookings: toBookingDTOs(series),
		Count:    len(series),
	})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req bookingPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		BookingID:         bookingID,
		RequesterUsername: principal.Username,
		Patch:             req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.CancelBooking(r.Context(), bookingID, principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bookings, err := h.service.ListUserBookings(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

func (h *BookingHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookings, err := h.service.ListCurrentBookings(r.Context(), h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

type bookingRequest struct {
	RoomID  string  `json:"room_id"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Purpose string  `json:"purpose"`
	Notes   *string `json:"notes"`
}

type recurringRequest struct {
	RoomID        string  `json:"room_id"`
	SemesterStart string  `json:"semester_start"`
	SemesterEnd   string  `json:"semester_end"`
	Weekday       string  `json:"weekday"`
	StartHour     int     `json:"start_hour"`
	StartMinute   int     `json:"start_minute"`
	EndHour       int     `json:"end_hour"`
	EndMinute     int     `json:"end_minute"`
	IntervalWeeks int     `json:"interval_weeks"`
	Purpose       string  `json:"purpose"`
	Notes         *string `json:"notes"`
}

type bookingPatchRequest struct {
	Start   *string `json:"start"`
	End     *string `json:"end"`
	Purpose *string `json:"purpose"`
	Notes   *string `json:"notes"`
}

func (r bookingPatchRequest) toPatch() application.BookingPatch {
	patch := application.BookingPatch{
		Purpose: r.Purpose,
		Notes:   r.Notes,
	}
	if r.Start != nil {
		ts := parseTimestamp(*r.Start)
		patch.Start = &ts
	}
	if r.End != nil {
		ts := parseTimestamp(*r.End)
		patch.End = &ts
	}
	return patch
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func parseWeekday(value string) (time.Weekday, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "SUNDAY":
		return time.Sunday, nil
	case "MONDAY":
		return time.Monday, nil
	case "TUESDAY":
		return time.Tuesday, nil
	case "WEDNESDAY":
		return time.Wednesday, nil
	case "THURSDAY":
		return time.Thursday, nil
	case "FRIDAY":
		return time.Friday, nil
	case "SATURDAY":
		return time.Saturday, nil
	default:
		return time.Sunday, errors.New("invalid weekday")
	}
}

type bookingDTO struct {
	ID               string  `json:"id"`
	RoomID           string  `json:"room_id"`
	UserID           string  `json:"user_id"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	Purpose          string  `json:"purpose"`
	Status           string  `json:"status"`
	Notes            *string `json:"notes,omitempty"`
	Recurring        bool    `json:"recurring"`
	RecurringGroupID *string `json:"recurring_group_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toBookingDTO(booking persistence.Booking) bookingDTO {
	return bookingDTO{
		ID:               booking.ID,
		RoomID:           booking.RoomID,
		UserID:           booking.UserID,
		Start:            booking.Start.UTC().Format(time.RFC3339),
		End:              booking.End.UTC().Format(time.RFC3339),
		Purpose:          booking.Purpose,
		Status:           string(booking.Status),
		Notes:            booking.Notes,
		Recurring:        booking.Recurring,
		RecurringGroupID: booking.RecurringGroupID,
		CreatedAt:        booking.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        booking.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type seriesResponse struct {
	Bookings []bookingDTO `json:"bookings"`
	Count    int          `json:"count"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}
