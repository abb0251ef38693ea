package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/smartroom/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

var _ persistence.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, full_name, department, role, active, points, usage_streak, last_booking, created_at, updated_at`

// CreateUser inserts a user row.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Department,
		string(user.Role),
		boolToInt(user.Active),
		user.Points,
		user.UsageStreak,
		nullTime(user.LastBooking),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateUser rewrites a user row.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, password_hash = ?, full_name = ?, department = ?, role = ?,
		    active = ?, points = ?, usage_streak = ?, last_booking = ?, updated_at = ?
		WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Department,
		string(user.Role),
		boolToInt(user.Active),
		user.Points,
		user.UsageStreak,
		nullTime(user.LastBooking),
		formatTime(user.UpdatedAt),
		user.ID,
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

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsersByPoints returns active users ordered by points descending.
func (r *UserRepository) ListUsersByPoints(ctx context.Context, limit int) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE active = 1
		ORDER BY points DESC, username ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return users, nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                   persistence.User
		role                   string
		active                 int
		lastBooking            sql.NullString
		createdStr, updatedStr string
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Department,
		&role,
		&active,
		&user.Points,
		&user.UsageStreak,
		&lastBooking,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapSQLiteError(err)
	}

	user.Role = persistence.UserRole(role)
	user.Active = active != 0
	if lastBooking.Valid {
		stamp, err := parseTime(lastBooking.String)
		if err != nil {
			return persistence.User{}, err
		}
		user.LastBooking = &stamp
	}
	if user.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
