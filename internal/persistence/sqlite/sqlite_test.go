package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// setupTestPool opens a throwaway database file and applies the real schema so
// the tests exercise the same constraints production runs against.
func setupTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	pool, err := Open("file:" + dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return pool
}

var testBase = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func seedRoom(t *testing.T, pool *ConnectionPool, id string) persistence.Room {
	t.Helper()

	room := persistence.Room{
		ID:         id,
		RoomNumber: "RN-" + id,
		Name:       "Room " + id,
		Capacity:   20,
		RoomType:   persistence.RoomTypeSeminar,
		Status:     persistence.RoomAvailable,
		Active:     true,
		CreatedAt:  testBase,
		UpdatedAt:  testBase,
	}
	if err := NewRoomRepository(pool).CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("failed to seed room %s: %v", id, err)
	}
	return room
}

func seedUser(t *testing.T, pool *ConnectionPool, id string) persistence.User {
	t.Helper()

	user := persistence.User{
		ID:           id,
		Username:     "user-" + id,
		Email:        id + "@example.edu",
		PasswordHash: "$2a$10$notarealhash",
		Role:         persistence.RoleStudent,
		Active:       true,
		CreatedAt:    testBase,
		UpdatedAt:    testBase,
	}
	if err := NewUserRepository(pool).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
	return user
}

func testBooking(id, roomID, userID string, start, end time.Time) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		Start:     start,
		End:       end,
		Purpose:   "study session",
		Status:    persistence.BookingConfirmed,
		CreatedAt: testBase,
		UpdatedAt: testBase,
	}
}
