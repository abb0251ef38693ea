package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

var _ persistence.BookingRepository = (*BookingRepository)(nil)

// NewBookingRepository creates a SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, room_id, user_id, start_time, end_time, purpose, status, notes, recurring, recurring_group_id, created_at, updated_at`

// CreateBooking inserts a booking. The conflict check runs inside the same
// transaction as the insert, so two racing requests for one slot cannot both
// commit: the loser observes the winner's row and fails with ErrConflict.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertGuarded(tx, booking)
	})
}

// CreateBookings inserts a whole series atomically. The first conflicting slot
// aborts the transaction and nothing is persisted.
func (r *BookingRepository) CreateBookings(ctx context.Context, bookings []persistence.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, booking := range bookings {
			if booking.ID == "" {
				return persistence.ErrConstraintViolation
			}
			if err := r.insertGuarded(tx, booking); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BookingRepository) insertGuarded(tx *sql.Tx, booking persistence.Booking) error {
	if booking.Status == persistence.BookingConfirmed {
		count, err := countConflictsTx(tx, booking.RoomID, booking.Start, booking.End, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return persistence.ErrConflict
		}
	}

	_, err := tx.Exec(`
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.RoomID,
		booking.UserID,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Purpose,
		string(booking.Status),
		nullString(booking.Notes),
		boolToInt(booking.Recurring),
		nullString(booking.RecurringGroupID),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateBooking rewrites a booking row. When the updated booking is still
// CONFIRMED its interval is re-verified against the rest of the room's
// schedule inside the transaction, excluding its own row.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if booking.Status == persistence.BookingConfirmed {
			count, err := countConflictsTx(tx, booking.RoomID, booking.Start, booking.End, booking.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return persistence.ErrConflict
			}
		}

		result, err := tx.Exec(`
			UPDATE bookings
			SET start_time = ?, end_time = ?, purpose = ?, status = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			formatTime(booking.Start),
			formatTime(booking.End),
			booking.Purpose,
			string(booking.Status),
			nullString(booking.Notes),
			formatTime(booking.UpdatedAt),
			booking.ID,
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
	})
}

// GetBooking retrieves a booking by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// CountConflicts reports how many confirmed bookings overlap [start, end) on
// the room, optionally excluding one booking id.
func (r *BookingRepository) CountConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ? AND status = 'CONFIRMED'
		  AND start_time < ? AND end_time > ?`
	args := []any{roomID, formatTime(end), formatTime(start)}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := r.pool.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapSQLiteError(err)
	}
	return count, nil
}

func countConflictsTx(tx *sql.Tx, roomID string, start, end time.Time, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ? AND status = 'CONFIRMED'
		  AND start_time < ? AND end_time > ?`
	args := []any{roomID, formatTime(end), formatTime(start)}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, mapSQLiteError(err)
	}
	return count, nil
}

// ListByUser returns every booking owned by the user, newest start first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]persistence.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = ?
		ORDER BY start_time DESC, id ASC`, userID)
}

// CountByUser counts bookings owned by the user.
func (r *BookingRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	return count, nil
}

// ListUpcomingForRoom returns confirmed bookings on the room starting after now.
func (r *BookingRepository) ListUpcomingForRoom(ctx context.Context, roomID string, now time.Time) ([]persistence.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND status = 'CONFIRMED' AND start_time > ?
		ORDER BY start_time ASC, id ASC`, roomID, formatTime(now))
}

// ListCurrent returns confirmed bookings straddling now.
func (r *BookingRepository) ListCurrent(ctx context.Context, now time.Time) ([]persistence.Booking, error) {
	stamp := formatTime(now)
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'CONFIRMED' AND start_time <= ? AND end_time >= ?
		ORDER BY start_time ASC, id ASC`, stamp, stamp)
}

// ListConfirmedEndedBefore returns confirmed bookings whose end precedes now.
func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, now time.Time) ([]persistence.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'CONFIRMED' AND end_time < ?
		ORDER BY end_time ASC, id ASC`, formatTime(now))
}

// HasConfirmedAfter reports whether the room has a confirmed booking that has
// not ended at the reference time.
func (r *BookingRepository) HasConfirmedAfter(ctx context.Context, roomID string, now time.Time) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ? AND status = 'CONFIRMED' AND end_time > ?`,
		roomID, formatTime(now)).Scan(&count)
	if err != nil {
		return false, mapSQLiteError(err)
	}
	return count > 0, nil
}

// DeleteCancelledBefore removes cancelled bookings last touched before the
// threshold and returns the number of rows deleted.
func (r *BookingRepository) DeleteCancelledBefore(ctx context.Context, threshold time.Time) (int, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		DELETE FROM bookings
		WHERE status = 'CANCELLED' AND updated_at < ?`, formatTime(threshold))
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking                                  persistence.Booking
		startStr, endStr, createdStr, updatedStr string
		status                                   string
		notes, groupID                           sql.NullString
		recurring                                int
	)

	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.UserID,
		&startStr,
		&endStr,
		&booking.Purpose,
		&status,
		&notes,
		&recurring,
		&groupID,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapSQLiteError(err)
	}

	booking.Status = persistence.BookingStatus(status)
	booking.Recurring = recurring != 0
	if notes.Valid {
		booking.Notes = &notes.String
	}
	if groupID.Valid {
		booking.RecurringGroupID = &groupID.String
	}
	if booking.Start, err = parseTime(startStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(endStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
