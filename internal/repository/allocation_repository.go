package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/smartstay/internal/model"
)

// AllocationRepo reads and updates the student directory (`allocations`).
//
// Schema: allocations(student_id VARCHAR PK, name, roll_no, email, room).
type AllocationRepo struct{ db *sql.DB }

func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// Get returns the directory entry for a student.
func (r *AllocationRepo) Get(ctx context.Context, studentID string) (*model.Allocation, error) {
	var a model.Allocation
	err := r.db.QueryRowContext(ctx,
		"SELECT student_id, name, roll_no, email, room FROM allocations WHERE student_id=? LIMIT 1",
		studentID).Scan(&a.StudentID, &a.Name, &a.RollNo, &a.Email, &a.Room)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetRoomTx records the student's current room inside the caller's
// transaction.  Students without a directory entry are left alone.
func (r *AllocationRepo) SetRoomTx(ctx context.Context, tx *sql.Tx, studentID, room string) error {
	_, err := tx.ExecContext(ctx, "UPDATE allocations SET room=? WHERE student_id=?", room, studentID)
	return err
}

// ClearRoomTx empties the student's room when it still points at room.
func (r *AllocationRepo) ClearRoomTx(ctx context.Context, tx *sql.Tx, studentID, room string) error {
	_, err := tx.ExecContext(ctx, "UPDATE allocations SET room='' WHERE student_id=? AND room=?", studentID, room)
	return err
}

// SearchByName returns up to limit students whose name starts with prefix.
func (r *AllocationRepo) SearchByName(ctx context.Context, prefix string, limit int) ([]model.Allocation, error) {
	return r.searchPrefix(ctx, "name", prefix, limit)
}

// SearchByRollNo returns up to limit students whose roll number starts
// with prefix.
func (r *AllocationRepo) SearchByRollNo(ctx context.Context, prefix string, limit int) ([]model.Allocation, error) {
	return r.searchPrefix(ctx, "roll_no", prefix, limit)
}

// searchPrefix runs an ordered range scan on col.  col is always one of
// the fixed column names above, never user input.
func (r *AllocationRepo) searchPrefix(ctx context.Context, col, prefix string, limit int) ([]model.Allocation, error) {
	q := "SELECT student_id, name, roll_no, email, room FROM allocations WHERE " + col + " >= ? AND " + col + " <= ? ORDER BY " + col + " LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, prefix, prefix+prefixEnd, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Allocation{}
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.StudentID, &a.Name, &a.RollNo, &a.Email, &a.Room); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
