package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/smartroom/internal/application"
	"github.com/example/smartroom/internal/config"
	httptransport "github.com/example/smartroom/internal/http"
	"github.com/example/smartroom/internal/notify"
	"github.com/example/smartroom/internal/persistence/sqlite"
	"github.com/example/smartroom/internal/reconcile"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development. A missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	bookingRepo := sqlite.NewBookingRepository(storage)
	roomRepo := sqlite.NewRoomRepository(storage)
	userRepo := sqlite.NewUserRepository(storage)
	equipmentRepo := sqlite.NewEquipmentRepository(storage)

	var notifier application.Notifier
	if cfg.RedisURL != "" {
		publisher, err := notify.NewRedisPublisher(cfg.RedisURL, cfg.NotifyChannel, logger)
		if err != nil {
			logger.Error("failed to connect notification publisher", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Error("failed to close notification publisher", "error", cerr)
			}
		}()
		notifier = publisher
	} else {
		notifier = notify.NewLogger(logger)
	}

	pointsPolicy := application.PointsPolicy{PerBooking: cfg.PointsPerBooking}

	userService := application.NewUserServiceWithLogger(userRepo, bookingRepo, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, userRepo, notifier, userService, pointsPolicy, idGenerator, now, logger)
	planner := application.NewRecurringPlannerWithLogger(bookingRepo, roomRepo, userRepo, notifier, userService, pointsPolicy, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, bookingRepo, equipmentRepo, idGenerator, now, logger)
	equipmentService := application.NewEquipmentServiceWithLogger(equipmentRepo, roomRepo, idGenerator, now, logger)

	jobs := reconcile.NewJobs(bookingRepo, roomRepo, bookingService, cfg.Retention, logger)
	runner := reconcile.NewRunner(jobs, reconcile.Intervals{
		Purge:         cfg.PurgeInterval,
		OccupancySync: cfg.OccupancyTick,
		AutoComplete:  cfg.CompleteTick,
	}, now, logger)
	runner.Start(ctx)

	issuer := httptransport.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(userService, issuer, logger),
		Bookings:  httptransport.NewBookingHandler(bookingService, planner, now, logger),
		Rooms:     httptransport.NewRoomHandler(roomService, bookingService, now, logger),
		Equipment: httptransport.NewEquipmentHandler(equipmentService, logger),
		Users:     httptransport.NewUserHandler(userService, logger),
		Verifier:  issuer,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("smartroom API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}

	runner.Wait()
}
