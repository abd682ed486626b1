package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/smartstay/internal/model"
)

// FacilityRepo manages the `facilities` table.
type FacilityRepo struct{ db *sql.DB }

func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, name, description, icon, sort_order, created_at, updated_at`

func scanFacility(s rowScanner) (*model.Facility, error) {
	var f model.Facility
	if err := s.Scan(&f.ID, &f.Name, &f.Description, &f.Icon, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns facilities in display order.
func (r *FacilityRepo) List(ctx context.Context) ([]*model.Facility, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+facilityColumns+` FROM facilities ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Facility{}
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Get returns a facility by id or ErrNotFound.
func (r *FacilityRepo) Get(ctx context.Context, id uint64) (*model.Facility, error) {
	f, err := scanFacility(r.db.QueryRowContext(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// Create appends a facility after the current last one.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities (name, description, icon, sort_order)
	           SELECT ?, ?, ?, COALESCE(MAX(sort_order), 0) + 1 FROM facilities`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Description, f.Icon)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*f = *created
	return nil
}

// Update overwrites name, description and icon.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE facilities SET name = ?, description = ?, icon = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		f.Name, f.Description, f.Icon, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for an unchanged row as well.
		if _, err := r.Get(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a facility or returns ErrNotFound.
func (r *FacilityRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder rewrites sort_order so that ids appear in the given order.  Every
// id must exist; otherwise nothing is changed and ErrNotFound is returned.
func (r *FacilityRepo) Reorder(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities WHERE id IN (`+marks+`) FOR UPDATE`, args...).Scan(&n); err != nil {
		return err
	}
	if n != len(ids) {
		return ErrNotFound
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE facilities SET sort_order = ? WHERE id = ?`, i+1, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// HostelInfoRepo reads and writes the single `hostel_info` row (id = 1).
type HostelInfoRepo struct{ db *sql.DB }

func NewHostelInfoRepo(db *sql.DB) *HostelInfoRepo { return &HostelInfoRepo{db: db} }

// Get returns the hostel info or ErrNotFound when it was never written.
func (r *HostelInfoRepo) Get(ctx context.Context) (*model.HostelInfo, error) {
	var h model.HostelInfo
	err := r.db.QueryRowContext(ctx,
		`SELECT name, address, warden_name, warden_phone, emergency_phone, rules, updated_at FROM hostel_info WHERE id = 1`).
		Scan(&h.Name, &h.Address, &h.WardenName, &h.WardenPhone, &h.EmergencyPhone, &h.Rules, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Upsert writes the hostel info row, creating it on first use.
func (r *HostelInfoRepo) Upsert(ctx context.Context, h *model.HostelInfo) error {
	const q = `INSERT INTO hostel_info (id, name, address, warden_name, warden_phone, emergency_phone, rules)
	           VALUES (1, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), address = VALUES(address), warden_name = VALUES(warden_name),
	           warden_phone = VALUES(warden_phone), emergency_phone = VALUES(emergency_phone), rules = VALUES(rules),
	           updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q, h.Name, h.Address, h.WardenName, h.WardenPhone, h.EmergencyPhone, h.Rules)
	return err
}
