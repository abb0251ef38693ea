package application

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/smartroom/internal/persistence"
)

// UserService manages accounts and the gamification counters. It also serves
// as the PointsSink for the booking services.
type UserService struct {
	users       persistence.UserRepository
	bookings    persistence.BookingRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

var _ PointsSink = (*UserService)(nil)

// NewUserService wires dependencies for account operations.
func NewUserService(users persistence.UserRepository, bookings persistence.BookingRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, bookings, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies including a base logger.
func NewUserServiceWithLogger(users persistence.UserRepository, bookings persistence.BookingRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		bookings:    bookings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Register creates an account with a bcrypt-hashed password. Role defaults to
// STUDENT when unspecified.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (persistence.User, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.Username) == "" {
		vErr.add("username", "username is required")
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		vErr.add("email", "a valid email address is required")
	}
	if len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	if _, err := s.users.GetUserByUsername(ctx, params.Username); err == nil {
		return persistence.User{}, ErrAlreadyExists
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return persistence.User{}, err
	}

	role := params.Role
	if role == "" {
		role = persistence.RoleStudent
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Username:     strings.TrimSpace(params.Username),
		Email:        strings.TrimSpace(params.Email),
		PasswordHash: string(hash),
		FullName:     params.FullName,
		Department:   params.Department,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return persistence.User{}, mapRepoError(err, "")
	}
	return user, nil
}

// Authenticate verifies a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (persistence.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrInvalidCredentials
		}
		return persistence.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return persistence.User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return persistence.User{}, ErrAccountDisabled
	}
	return user, nil
}

// GetProfile returns a user together with the derived booking total. The
// total is recomputed from the booking table on every read, never stored.
func (s *UserService) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return UserProfile{}, mapRepoError(err, "")
	}
	total, err := s.bookings.CountByUser(ctx, userID)
	if err != nil {
		return UserProfile{}, err
	}
	return UserProfile{User: user, TotalBookings: total}, nil
}

// GetByUsername fetches a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (persistence.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return persistence.User{}, mapRepoError(err, "")
	}
	return user, nil
}

// Leaderboard lists the top users by points.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]persistence.User, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.users.ListUsersByPoints(ctx, limit)
}

// AddPoints awards gamification points and maintains the usage streak: a
// booking on the day after the previous one extends the streak, a booking on
// the same day leaves it alone, and a longer gap resets it.
func (s *UserService) AddPoints(ctx context.Context, userID string, delta int, when time.Time) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return mapRepoError(err, "")
	}

	user.Points += delta

	switch {
	case user.LastBooking == nil:
		user.UsageStreak = 1
	case sameDay(*user.LastBooking, when):
		// Streak unchanged within a day.
	case sameDay(user.LastBooking.AddDate(0, 0, 1), when):
		user.UsageStreak++
	default:
		user.UsageStreak = 1
	}
	stamp := when
	user.LastBooking = &stamp
	user.UpdatedAt = s.now()

	return mapRepoError(s.users.UpdateUser(ctx, user), "")
}

// Deactivate soft-deletes an account.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return mapRepoError(err, "")
	}
	user.Active = false
	user.UpdatedAt = s.now()
	return mapRepoError(s.users.UpdateUser(ctx, user), "")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
