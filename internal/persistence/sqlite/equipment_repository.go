package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/smartroom/internal/persistence"
)

// EquipmentRepository implements persistence.EquipmentRepository using SQLite.
type EquipmentRepository struct {
	pool *ConnectionPool
}

var _ persistence.EquipmentRepository = (*EquipmentRepository)(nil)

// NewEquipmentRepository creates a SQLite equipment repository.
func NewEquipmentRepository(pool *ConnectionPool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

const equipmentColumns = `id, name, type, description, working, room_id, created_at, updated_at`

// CreateEquipment inserts an equipment row.
func (r *EquipmentRepository) CreateEquipment(ctx context.Context, item persistence.Equipment) error {
	if item.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO equipment (`+equipmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Name,
		string(item.Type),
		item.Description,
		boolToInt(item.Working),
		nullString(item.RoomID),
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateEquipment rewrites an equipment row.
func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, item persistence.Equipment) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE equipment
		SET name = ?, type = ?, description = ?, working = ?, room_id = ?, updated_at = ?
		WHERE id = ?`,
		item.Name,
		string(item.Type),
		item.Description,
		boolToInt(item.Working),
		nullString(item.RoomID),
		formatTime(item.UpdatedAt),
		item.ID,
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

// GetEquipment retrieves an equipment item by id.
func (r *EquipmentRepository) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	if id == "" {
		return persistence.Equipment{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id)
	return scanEquipment(row)
}

// ListEquipmentForRoom returns the items assigned to a room.
func (r *EquipmentRepository) ListEquipmentForRoom(ctx context.Context, roomID string) ([]persistence.Equipment, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+equipmentColumns+` FROM equipment
		WHERE room_id = ?
		ORDER BY name ASC, id ASC`, roomID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var items []persistence.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return items, nil
}

// DetachEquipmentFromRoom clears room_id on every item assigned to the room.
func (r *EquipmentRepository) DetachEquipmentFromRoom(ctx context.Context, roomID string) (int, error) {
	result, err := r.pool.db.ExecContext(ctx, `UPDATE equipment SET room_id = NULL WHERE room_id = ?`, roomID)
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// DeleteEquipment removes an equipment row.
func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
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

func scanEquipment(row rowScanner) (persistence.Equipment, error) {
	var (
		item                   persistence.Equipment
		itemType               string
		working                int
		roomID                 sql.NullString
		createdStr, updatedStr string
	)

	err := row.Scan(
		&item.ID,
		&item.Name,
		&itemType,
		&item.Description,
		&working,
		&roomID,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Equipment{}, persistence.ErrNotFound
		}
		return persistence.Equipment{}, mapSQLiteError(err)
	}

	item.Type = persistence.EquipmentType(itemType)
	item.Working = working != 0
	if roomID.Valid {
		item.RoomID = &roomID.String
	}
	if item.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Equipment{}, err
	}
	if item.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Equipment{}, err
	}
	return item, nil
}
