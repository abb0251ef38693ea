package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the handlers and authentication pieces into one mux.
type RouterConfig struct {
	Auth      *AuthHandler
	Bookings  *BookingHandler
	Rooms     *RoomHandler
	Equipment *EquipmentHandler
	Users     *UserHandler
	Verifier  TokenVerifier
	Logger    *slog.Logger
}

// NewRouter assembles the API routes. Everything except /health and /auth/*
// sits behind bearer token authentication; catalog and equipment mutations
// additionally require the admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(RequestLogger(cfg.Logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if cfg.Auth != nil {
		router.Post("/auth/register", cfg.Auth.Register)
		router.Post("/auth/login", cfg.Auth.Login)
	}

	router.Group(func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(RequireAuth(cfg.Verifier, cfg.Logger))
		}

		if cfg.Rooms != nil {
			r.Get("/rooms", cfg.Rooms.List)
			r.Get("/rooms/available", cfg.Rooms.Available)
			r.Get("/rooms/{id}", cfg.Rooms.Get)
			r.Get("/rooms/{id}/equipment", cfg.Rooms.Equipment)
			r.Get("/rooms/{id}/upcoming", cfg.Rooms.Upcoming)
		}

		if cfg.Bookings != nil {
			r.Post("/bookings", cfg.Bookings.Create)
			r.Post("/bookings/recurring", cfg.Bookings.CreateRecurring)
			r.Patch("/bookings/{id}", cfg.Bookings.Update)
			r.Post("/bookings/{id}/cancel", cfg.Bookings.Cancel)
			r.Get("/bookings/mine", cfg.Bookings.Mine)
			r.Get("/bookings/current", cfg.Bookings.Current)
		}

		if cfg.Users != nil {
			r.Get("/users/me", cfg.Users.Me)
			r.Get("/leaderboard", cfg.Users.Leaderboard)
		}

		r.Group(func(admin chi.Router) {
			admin.Use(RequireAdmin(cfg.Logger))

			if cfg.Rooms != nil {
				admin.Post("/rooms", cfg.Rooms.Create)
				admin.Patch("/rooms/{id}", cfg.Rooms.Update)
				admin.Delete("/rooms/{id}", cfg.Rooms.Delete)
			}

			if cfg.Equipment != nil {
				admin.Post("/equipment", cfg.Equipment.Create)
				admin.Patch("/equipment/{id}", cfg.Equipment.Update)
				admin.Put("/equipment/{id}/room", cfg.Equipment.Assign)
				admin.Delete("/equipment/{id}/room", cfg.Equipment.Unassign)
				admin.Delete("/equipment/{id}", cfg.Equipment.Delete)
			}
		})
	})

	return router
}
