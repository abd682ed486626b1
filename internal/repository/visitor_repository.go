package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/smartstay/internal/model"
)

// VisitorRepo provides CRUD operations and guarded status updates for the
// visitors table.  All timestamps are stored in UTC.
type VisitorRepo struct {
	db *sql.DB
}

// NewVisitorRepo returns a new VisitorRepo bound to the given database.
func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

const visitorColumns = `v.id, v.student_id, v.visitor_name, v.visitor_phone, v.visitor_relation, v.purpose,
	DATE_FORMAT(v.expected_date, '%Y-%m-%d'), v.expected_time_in, v.expected_time_out, v.room_number, v.status,
	v.approved_by, v.approved_at, v.checked_in_at, v.checked_out_at, v.admin_remarks, v.qr_code,
	v.created_at, v.updated_at`

func scanVisitor(s rowScanner) (*model.Visitor, error) {
	var (
		v                                 model.Visitor
		status                            string
		approvedBy, remarks, qr           sql.NullString
		approvedAt, checkedIn, checkedOut sql.NullTime
	)
	err := s.Scan(&v.ID, &v.StudentID, &v.VisitorName, &v.VisitorPhone, &v.VisitorRelation, &v.Purpose,
		&v.ExpectedDate, &v.ExpectedTimeIn, &v.ExpectedTimeOut, &v.RoomNumber, &status,
		&approvedBy, &approvedAt, &checkedIn, &checkedOut, &remarks, &qr,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Status = model.VisitorStatus(status)
	v.ApprovedBy = stringPtr(approvedBy)
	v.AdminRemarks = stringPtr(remarks)
	v.QRCode = stringPtr(qr)
	v.ApprovedAt = timePtr(approvedAt)
	v.CheckedInAt = timePtr(checkedIn)
	v.CheckedOutAt = timePtr(checkedOut)
	return &v, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// Create inserts a new visitor and populates the generated ID and the
// database defaults on v.
func (r *VisitorRepo) Create(ctx context.Context, v *model.Visitor) error {
	const q = `INSERT INTO visitors (student_id, visitor_name, visitor_phone, visitor_relation, purpose,
	           expected_date, expected_time_in, expected_time_out, room_number, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.StudentID, v.VisitorName, v.VisitorPhone, v.VisitorRelation, v.Purpose,
		v.ExpectedDate, v.ExpectedTimeIn, v.ExpectedTimeOut, v.RoomNumber, string(v.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = *created
	return nil
}

// GetByID returns a visitor by primary key or ErrNotFound.
func (r *VisitorRepo) GetByID(ctx context.Context, id uint64) (*model.Visitor, error) {
	v, err := scanVisitor(r.db.QueryRowContext(ctx, `SELECT `+visitorColumns+` FROM visitors v WHERE v.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// GetByQRCode returns the visitor holding the given pass token or
// ErrNotFound.
func (r *VisitorRepo) GetByQRCode(ctx context.Context, code string) (*model.Visitor, error) {
	v, err := scanVisitor(r.db.QueryRowContext(ctx, `SELECT `+visitorColumns+` FROM visitors v WHERE v.qr_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// ListByStudent returns the visitors registered by a student, newest first.
func (r *VisitorRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.Visitor, error) {
	return r.query(ctx, `SELECT `+visitorColumns+` FROM visitors v WHERE v.student_id = ? ORDER BY v.created_at DESC, v.id DESC`, studentID)
}

// ListByStatus returns visitors in any of the given statuses ordered by
// expected date.
func (r *VisitorRepo) ListByStatus(ctx context.Context, statuses ...model.VisitorStatus) ([]*model.Visitor, error) {
	if len(statuses) == 0 {
		return []*model.Visitor{}, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, string(s))
	}
	q := `SELECT ` + visitorColumns + ` FROM visitors v WHERE v.status IN (` + marks + `) ORDER BY v.expected_date ASC, v.id ASC`
	return r.query(ctx, q, args...)
}

// List returns visitors matching the admin filter, newest first.  The
// student email filter joins the student directory.
func (r *VisitorRepo) List(ctx context.Context, f model.VisitorFilter) ([]*model.Visitor, error) {
	where := []string{}
	args := []any{}
	from := `visitors v`
	if f.Status != "" {
		where = append(where, "v.status = ?")
		args = append(args, string(f.Status))
	}
	if f.StartDate != "" {
		where = append(where, "v.expected_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "v.expected_date <= ?")
		args = append(args, f.EndDate)
	}
	if f.StudentID != "" {
		where = append(where, "v.student_id = ?")
		args = append(args, f.StudentID)
	}
	if f.StudentEmail != "" {
		from += ` JOIN allocations a ON a.student_id = v.student_id`
		where = append(where, "LOWER(a.email) = ?")
		args = append(args, strings.ToLower(f.StudentEmail))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT ` + visitorColumns + ` FROM ` + from + ` WHERE ` + cond + ` ORDER BY v.created_at DESC, v.id DESC`
	return r.query(ctx, q, args...)
}

func (r *VisitorRepo) query(ctx context.Context, q string, args ...any) ([]*model.Visitor, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// VisitorUpdate carries the audit columns written together with a status
// change.  Nil fields are left untouched.
type VisitorUpdate struct {
	ApprovedBy   *string
	ApprovedAt   *time.Time
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	AdminRemarks *string
	QRCode       *string
}

// Transition moves a visitor from one status to another.  The update is a
// compare-and-swap on the current status: when the row is no longer in
// from (another admin acted first, or the status was never from) nothing
// is written and ErrInvalidTransition is returned.
func (r *VisitorRepo) Transition(ctx context.Context, id uint64, from, to model.VisitorStatus, u VisitorUpdate) error {
	sets := []string{"status = ?", "updated_at = CURRENT_TIMESTAMP"}
	args := []any{string(to)}
	if u.ApprovedBy != nil {
		sets = append(sets, "approved_by = ?")
		args = append(args, *u.ApprovedBy)
	}
	if u.ApprovedAt != nil {
		sets = append(sets, "approved_at = ?")
		args = append(args, u.ApprovedAt.UTC())
	}
	if u.CheckedInAt != nil {
		sets = append(sets, "checked_in_at = ?")
		args = append(args, u.CheckedInAt.UTC())
	}
	if u.CheckedOutAt != nil {
		sets = append(sets, "checked_out_at = ?")
		args = append(args, u.CheckedOutAt.UTC())
	}
	if u.AdminRemarks != nil {
		sets = append(sets, "admin_remarks = ?")
		args = append(args, *u.AdminRemarks)
	}
	if u.QRCode != nil {
		sets = append(sets, "qr_code = ?")
		args = append(args, *u.QRCode)
	}
	args = append(args, id, string(from))
	q := `UPDATE visitors SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}
