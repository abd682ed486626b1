package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/smartstay/internal/model"
)

// RoomRepo provides data access to the occupancy ledger (`rooms` table).
// Occupant lists are stored as JSON arrays and decoded at this boundary;
// a row whose arrays cannot be decoded is reported as an error rather than
// returned half-populated.
//
// Schema: rooms(number VARCHAR PK, capacity INT, occupants JSON,
// occupant_details JSON, status VARCHAR, version BIGINT UNSIGNED,
// created_at, updated_at).
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the provided database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying sql.DB so that services can open transactions
// spanning the room and allocation tables.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `number, capacity, occupants, occupant_details, status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(s rowScanner) (*model.Room, error) {
	var (
		room              model.Room
		occupants, detail []byte
	)
	if err := s.Scan(&room.Number, &room.Capacity, &occupants, &detail, &room.Status, &room.Version, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONList(occupants, &room.Occupants); err != nil {
		return nil, fmt.Errorf("room %s occupants: %w", room.Number, err)
	}
	if err := decodeJSONList(detail, &room.OccupantDetails); err != nil {
		return nil, fmt.Errorf("room %s occupant_details: %w", room.Number, err)
	}
	if room.Occupants == nil {
		room.Occupants = []string{}
	}
	if room.OccupantDetails == nil {
		room.OccupantDetails = []model.Occupant{}
	}
	return &room, nil
}

func decodeJSONList(raw []byte, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeOccupants(room *model.Room) (occupants, details []byte, err error) {
	ids := room.Occupants
	if ids == nil {
		ids = []string{}
	}
	det := room.OccupantDetails
	if det == nil {
		det = []model.Occupant{}
	}
	if occupants, err = json.Marshal(ids); err != nil {
		return nil, nil, err
	}
	if details, err = json.Marshal(det); err != nil {
		return nil, nil, err
	}
	return occupants, details, nil
}

// GetForUpdateTx loads a room and locks its row until the transaction
// ends.  It returns ErrNotFound when the room does not exist.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, number string) (*model.Room, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE number = ? FOR UPDATE`, number)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return room, err
}

// InsertTx creates a room row with version 1.  A duplicate key means a
// concurrent transaction created the room first and is reported as
// ErrTxConflict so the caller can retry against the existing row.
func (r *RoomRepo) InsertTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	occupants, details, err := encodeOccupants(room)
	if err != nil {
		return err
	}
	const q = `INSERT INTO rooms (number, capacity, occupants, occupant_details, status, version) VALUES (?, ?, ?, ?, ?, 1)`
	if _, err := tx.ExecContext(ctx, q, room.Number, room.Capacity, occupants, details, room.Status); err != nil {
		if IsRetryable(err) {
			return fmt.Errorf("%w: %v", ErrTxConflict, err)
		}
		return err
	}
	room.Version = 1
	return nil
}

// UpdateOccupantsTx writes both occupant lists and the status, guarded by
// a compare-and-swap on the version read earlier in the transaction.  If
// another writer bumped the version the update matches no row and
// ErrTxConflict is returned.  On success room.Version is advanced.
func (r *RoomRepo) UpdateOccupantsTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	occupants, details, err := encodeOccupants(room)
	if err != nil {
		return err
	}
	const q = `UPDATE rooms
	           SET occupants = ?, occupant_details = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	           WHERE number = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, occupants, details, room.Status, room.Number, room.Version)
	if err != nil {
		if IsRetryable(err) {
			return fmt.Errorf("%w: %v", ErrTxConflict, err)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTxConflict
	}
	room.Version++
	return nil
}

// DeleteTx removes the room row.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, number string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE number = ?`, number)
	return err
}

// Get returns a single room without locking.
func (r *RoomRepo) Get(ctx context.Context, number string) (*model.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return room, err
}

// List returns all rooms ordered by number.  An optional status narrows
// the result to vacant, occupied or full rooms.
func (r *RoomRepo) List(ctx context.Context, status string) ([]*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// SearchByNumber returns up to limit rooms whose number starts with
// prefix, ordered by number.
func (r *RoomRepo) SearchByNumber(ctx context.Context, prefix string, limit int) ([]*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE number >= ? AND number <= ? ORDER BY number LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, prefix, prefix+prefixEnd, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
