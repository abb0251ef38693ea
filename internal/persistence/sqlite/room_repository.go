package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/smartroom/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

var _ persistence.RoomRepository = (*RoomRepository)(nil)

// NewRoomRepository creates a SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, room_number, name, capacity, building, floor, location, room_type, status, active, created_at, updated_at`

// CreateRoom inserts a room row.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.RoomNumber,
		room.Name,
		room.Capacity,
		room.Building,
		room.Floor,
		room.Location,
		string(room.RoomType),
		string(room.Status),
		boolToInt(room.Active),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateRoom rewrites a room row.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE rooms
		SET room_number = ?, name = ?, capacity = ?, building = ?, floor = ?, location = ?,
		    room_type = ?, status = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		room.RoomNumber,
		room.Name,
		room.Capacity,
		room.Building,
		room.Floor,
		room.Location,
		string(room.RoomType),
		string(room.Status),
		boolToInt(room.Active),
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// GetRoomByNumber retrieves a room by its unique room number.
func (r *RoomRepository) GetRoomByNumber(ctx context.Context, roomNumber string) (persistence.Room, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_number = ?`, roomNumber)
	return scanRoom(row)
}

// ListActiveRooms returns active rooms ordered by room number.
func (r *RoomRepository) ListActiveRooms(ctx context.Context) ([]persistence.Room, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms WHERE active = 1 ORDER BY room_number ASC`)
}

// ListRooms returns every room ordered by room number.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number ASC`)
}

// DeleteRoom removes a room row. Callers detach equipment first; bookings
// referencing the room keep it deletable only once the FK allows it.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RoomRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return rooms, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                   persistence.Room
		roomType, status       string
		active                 int
		createdStr, updatedStr string
	)

	err := row.Scan(
		&room.ID,
		&room.RoomNumber,
		&room.Name,
		&room.Capacity,
		&room.Building,
		&room.Floor,
		&room.Location,
		&roomType,
		&status,
		&active,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapSQLiteError(err)
	}

	room.RoomType = persistence.RoomType(roomType)
	room.Status = persistence.RoomStatus(status)
	room.Active = active != 0
	if room.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
