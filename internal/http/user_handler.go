package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/persistence"
)

type userService interface {
	GetProfile(ctx context.Context, userID string) (application.UserProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]persistence.User, error)
}

// UserHandler serves profile and gamification reads.
type UserHandler struct {
	service   userService
	responder responder
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(logger)}
}

// Me returns the authenticated caller's profile including the derived booking
// total.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

// Leaderboard returns active users ranked by points.
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	users, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leaderboardResponse{Users: out})
}

type userDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	Points      int    `json:"points"`
	UsageStreak int    `json:"usage_streak"`
	LastBooking string `json:"last_booking,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toUserDTO(user persistence.User) userDTO {
	dto := userDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Department:  user.Department,
		Role:        string(user.Role),
		Active:      user.Active,
		Points:      user.Points,
		UsageStreak: user.UsageStreak,
		CreatedAt:   user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastBooking != nil {
		dto.LastBooking = user.LastBooking.UTC().Format(time.RFC3339)
	}
	return dto
}

type profileDTO struct {
	userDTO
	TotalBookings int `json:"total_bookings"`
}

func toProfileDTO(profile application.UserProfile) profileDTO {
	return profileDTO{
		userDTO:       toUserDTO(profile.User),
		TotalBookings: profile.TotalBookings,
	}
}

type leaderboardResponse struct {
	Users []userDTO `json:"users"`
}
