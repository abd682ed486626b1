package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/smartstay/internal/model"
)

// PaymentRepo provides access to the `payment_requests` and `payments`
// tables.  Amounts are read back as decimal strings.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying sql.DB for services that verify a request and
// insert its payment in one transaction.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const requestColumns = `id, student_id, student_name, CAST(amount AS CHAR), type, status, method,
	DATE_FORMAT(due_date, '%Y-%m-%d'), remarks, receipt_number, created_at, paid_at, verified_at`

const paymentColumns = `id, student_id, student_name, CAST(amount AS CHAR), type, method, receipt_number,
	remarks, request_id, paid_at, created_at`

func scanRequest(s rowScanner) (*model.PaymentRequest, error) {
	var (
		pr                       model.PaymentRequest
		method, remarks, receipt sql.NullString
		paidAt, verifiedAt       sql.NullTime
	)
	err := s.Scan(&pr.ID, &pr.StudentID, &pr.StudentName, &pr.Amount, &pr.Type, &pr.Status, &method,
		&pr.DueDate, &remarks, &receipt, &pr.CreatedAt, &paidAt, &verifiedAt)
	if err != nil {
		return nil, err
	}
	pr.Method = stringPtr(method)
	pr.Remarks = stringPtr(remarks)
	pr.ReceiptNumber = stringPtr(receipt)
	pr.PaidAt = timePtr(paidAt)
	pr.VerifiedAt = timePtr(verifiedAt)
	return &pr, nil
}

func scanPayment(s rowScanner) (*model.Payment, error) {
	var (
		p         model.Payment
		remarks   sql.NullString
		requestID sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.StudentID, &p.StudentName, &p.Amount, &p.Type, &p.Method, &p.ReceiptNumber,
		&remarks, &requestID, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Remarks = stringPtr(remarks)
	if requestID.Valid {
		id := uint64(requestID.Int64)
		p.RequestID = &id
	}
	return &p, nil
}

// CreateRequest inserts a pending payment request and sets its ID and
// creation time.
func (r *PaymentRepo) CreateRequest(ctx context.Context, pr *model.PaymentRequest) error {
	const q = `INSERT INTO payment_requests (student_id, student_name, amount, type, status, due_date, remarks)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q, pr.StudentID, pr.StudentName, pr.Amount, pr.Type, pr.Status, pr.DueDate, nullString(pr.Remarks))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	pr.ID = uint64(id)
	pr.CreatedAt = now
	return nil
}

// GetRequest returns a payment request or ErrNotFound.
func (r *PaymentRepo) GetRequest(ctx context.Context, id uint64) (*model.PaymentRequest, error) {
	return r.getRequest(ctx, r.db, `SELECT `+requestColumns+` FROM payment_requests WHERE id = ?`, id)
}

// GetRequestForUpdateTx loads a request and locks its row for the rest of
// the transaction.
func (r *PaymentRepo) GetRequestForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.PaymentRequest, error) {
	return r.getRequest(ctx, tx, `SELECT `+requestColumns+` FROM payment_requests WHERE id = ? FOR UPDATE`, id)
}

func (r *PaymentRepo) getRequest(ctx context.Context, q dbtx, query string, id uint64) (*model.PaymentRequest, error) {
	pr, err := scanRequest(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return pr, err
}

// MarkPaid moves a request from one of the payable statuses to
// paid_unverified.  A request that is no longer in from is left untouched
// and ErrInvalidTransition is returned.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id uint64, from, method string, paidAt time.Time) error {
	const q = `UPDATE payment_requests SET status = ?, method = ?, paid_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.RequestPaidUnverified, method, paidAt.UTC(), id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkVerifiedTx sets a request to verified with its receipt number.  The
// update is guarded on the status read under lock.
func (r *PaymentRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64, from, receipt string, verifiedAt time.Time) error {
	const q = `UPDATE payment_requests SET status = ?, receipt_number = ?, verified_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.RequestVerified, receipt, verifiedAt.UTC(), id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkOverdue flips pending requests whose due date is before today to
// overdue and returns how many rows changed.
func (r *PaymentRepo) MarkOverdue(ctx context.Context, today string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_requests SET status = ? WHERE status = ? AND due_date < ?`,
		model.RequestOverdue, model.RequestPending, today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListRequests returns requests newest first, optionally narrowed to one
// status.
func (r *PaymentRepo) ListRequests(ctx context.Context, status string) ([]*model.PaymentRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM payment_requests`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.PaymentRequest{}
	for rows.Next() {
		pr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// CreatePayment inserts a settled payment outside of any transaction.
func (r *PaymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.createPayment(ctx, r.db, p)
}

// CreatePaymentTx inserts a settled payment inside the caller's
// transaction.
func (r *PaymentRepo) CreatePaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	return r.createPayment(ctx, tx, p)
}

func (r *PaymentRepo) createPayment(ctx context.Context, q dbtx, p *model.Payment) error {
	const stmt = `INSERT INTO payments (student_id, student_name, amount, type, method, receipt_number, remarks, request_id, paid_at)
	              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var reqID sql.NullInt64
	if p.RequestID != nil {
		reqID = sql.NullInt64{Int64: int64(*p.RequestID), Valid: true}
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	res, err := q.ExecContext(ctx, stmt, p.StudentID, p.StudentName, p.Amount, p.Type, p.Method, p.ReceiptNumber,
		nullString(p.Remarks), reqID, p.PaidAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt = p.PaidAt
	return nil
}

// ListRecent returns the most recent payments, newest first.
func (r *PaymentRepo) ListRecent(ctx context.Context, limit int) ([]*model.Payment, error) {
	return r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC, id DESC LIMIT ?`, limit)
}

// ListByStudent returns every payment of a student, newest first.
func (r *PaymentRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.Payment, error) {
	return r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments WHERE student_id = ? ORDER BY paid_at DESC, id DESC`, studentID)
}

// ListBetween returns payments with paid_at in [from, to), oldest first.
func (r *PaymentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*model.Payment, error) {
	return r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments WHERE paid_at >= ? AND paid_at < ? ORDER BY paid_at, id`,
		from.UTC(), to.UTC())
}

func (r *PaymentRepo) queryPayments(ctx context.Context, q string, args ...any) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePayment hard-deletes a payment.  It returns ErrNotFound when no
// row matched.
func (r *PaymentRepo) DeletePayment(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
