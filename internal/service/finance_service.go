package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/metrics"
	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/queue"
	"github.com/iliyamo/smartstay/internal/repository"
	"github.com/iliyamo/smartstay/internal/utils"
)

// FinanceService implements fee requests and payments.  A request moves
// pending → paid_unverified when the student pays and to verified when an
// admin confirms it; verification also records the settled payment.
type FinanceService struct {
	payments    *repository.PaymentRepo
	students    StudentDirectory
	recentLimit int
	events      events
	log         *zap.Logger
	metrics     *metrics.Metrics

	now        func() time.Time
	newReceipt func(time.Time) string
}

func NewFinanceService(payments *repository.PaymentRepo, students StudentDirectory, recentLimit int, pub EventPublisher, log *zap.Logger, m *metrics.Metrics) *FinanceService {
	if recentLimit <= 0 {
		recentLimit = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FinanceService{
		payments: payments, students: students, recentLimit: recentLimit,
		events: events{pub: pub, log: log, m: m}, log: log, metrics: m,
		now:        func() time.Time { return time.Now().UTC() },
		newReceipt: utils.NewReceiptNumber,
	}
}

func (s *FinanceService) studentName(ctx context.Context, studentID string) (string, error) {
	a, err := s.students.Get(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", &model.ValidationError{Field: "student_id", Message: "unknown student"}
	}
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

// CreatePaymentRequest raises a pending fee request.  The student name is
// looked up when the caller did not supply one.
func (s *FinanceService) CreatePaymentRequest(ctx context.Context, in model.PaymentRequestInput, adminID string) (*model.PaymentRequest, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	amount, _ := model.NormalizeAmount(in.Amount.String())
	name := strings.TrimSpace(in.StudentName)
	if name == "" {
		var err error
		if name, err = s.studentName(ctx, in.StudentID); err != nil {
			return nil, err
		}
	}
	pr := &model.PaymentRequest{
		StudentID:   in.StudentID,
		StudentName: name,
		Amount:      amount,
		Type:        in.Type,
		Status:      model.RequestPending,
		DueDate:     in.DueDate,
		Remarks:     in.Remarks,
	}
	if err := s.payments.CreateRequest(ctx, pr); err != nil {
		return nil, err
	}
	s.log.Info("payment request created", zap.Uint64("request_id", pr.ID), zap.String("student_id", pr.StudentID), zap.String("amount", amount))
	s.emit(ctx, queue.PaymentEvent{Kind: queue.PaymentRequested, RequestID: pr.ID, StudentID: pr.StudentID, Amount: amount, Type: pr.Type, Actor: adminID})
	return pr, nil
}

// RecordPayment stores a payment settled at the desk and returns it with a
// freshly generated receipt number.
func (s *FinanceService) RecordPayment(ctx context.Context, in model.RecordPaymentInput, adminID string) (*model.Payment, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	amount, _ := model.NormalizeAmount(in.Amount.String())
	name, err := s.studentName(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p := &model.Payment{
		StudentID:     in.StudentID,
		StudentName:   name,
		Amount:        amount,
		Type:          in.Type,
		Method:        in.Method,
		ReceiptNumber: s.newReceipt(now),
		Remarks:       in.Remarks,
		PaidAt:        now,
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("payment recorded", zap.Uint64("payment_id", p.ID), zap.String("receipt", p.ReceiptNumber))
	s.emit(ctx, queue.PaymentEvent{Kind: queue.PaymentRecorded, PaymentID: p.ID, StudentID: p.StudentID, Amount: amount, Type: p.Type, ReceiptNumber: p.ReceiptNumber, Actor: adminID})
	return p, nil
}

// PayRequest marks the caller's pending or overdue request as paid with
// method.  The request then waits for admin verification.
func (s *FinanceService) PayRequest(ctx context.Context, requestID uint64, studentID, method string) (*model.PaymentRequest, error) {
	if !model.ValidPaymentMethod(method) {
		return nil, &model.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	pr, err := s.payments.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if pr.StudentID != studentID {
		return nil, repository.ErrForbidden
	}
	if pr.Status != model.RequestPending && pr.Status != model.RequestOverdue {
		return nil, fmt.Errorf("%w: cannot pay a %s request", repository.ErrInvalidTransition, pr.Status)
	}
	if err := s.payments.MarkPaid(ctx, requestID, pr.Status, method, s.now()); err != nil {
		return nil, err
	}
	s.log.Info("payment request paid", zap.Uint64("request_id", requestID), zap.String("method", method))
	s.emit(ctx, queue.PaymentEvent{Kind: queue.PaymentPaid, RequestID: requestID, StudentID: studentID, Amount: pr.Amount, Type: pr.Type, Actor: studentID})
	return s.payments.GetRequest(ctx, requestID)
}

// VerifyPaymentRequest confirms a request and records its payment in the
// same transaction.  Requests that are already verified are rejected.
func (s *FinanceService) VerifyPaymentRequest(ctx context.Context, requestID uint64, adminID string) (*model.Payment, error) {
	tx, err := s.payments.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pr, err := s.payments.GetRequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	switch pr.Status {
	case model.RequestPending, model.RequestPaidUnverified, model.RequestOverdue:
	default:
		return nil, fmt.Errorf("%w: cannot verify a %s request", repository.ErrInvalidTransition, pr.Status)
	}
	now := s.now()
	receipt := s.newReceipt(now)
	if err := s.payments.MarkVerifiedTx(ctx, tx, requestID, pr.Status, receipt, now); err != nil {
		return nil, err
	}
	method := model.MethodCash
	if pr.Method != nil && *pr.Method != "" {
		method = *pr.Method
	}
	paidAt := now
	if pr.PaidAt != nil {
		paidAt = *pr.PaidAt
	}
	id := pr.ID
	p := &model.Payment{
		StudentID:     pr.StudentID,
		StudentName:   pr.StudentName,
		Amount:        pr.Amount,
		Type:          pr.Type,
		Method:        method,
		ReceiptNumber: receipt,
		Remarks:       pr.Remarks,
		RequestID:     &id,
		PaidAt:        paidAt,
	}
	if err := s.payments.CreatePaymentTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.log.Info("payment request verified", zap.Uint64("request_id", requestID), zap.String("receipt", receipt), zap.String("admin_id", adminID))
	s.emit(ctx, queue.PaymentEvent{Kind: queue.PaymentVerified, RequestID: requestID, PaymentID: p.ID, StudentID: p.StudentID, Amount: p.Amount, Type: p.Type, ReceiptNumber: receipt, Actor: adminID})
	return p, nil
}

// DeletePayment removes a payment permanently.
func (s *FinanceService) DeletePayment(ctx context.Context, paymentID uint64, adminID string) error {
	if err := s.payments.DeletePayment(ctx, paymentID); err != nil {
		return err
	}
	s.log.Info("payment deleted", zap.Uint64("payment_id", paymentID), zap.String("admin_id", adminID))
	s.emit(ctx, queue.PaymentEvent{Kind: queue.PaymentDeleted, PaymentID: paymentID, Actor: adminID})
	return nil
}

// MaxRecentPayments caps the limit accepted by RecentPayments.
const MaxRecentPayments = 500

// RecentPayments returns up to limit of the latest payments across all
// students.  A limit of zero or less uses the configured default; larger
// limits are capped at MaxRecentPayments.
func (s *FinanceService) RecentPayments(ctx context.Context, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	if limit > MaxRecentPayments {
		limit = MaxRecentPayments
	}
	return s.payments.ListRecent(ctx, limit)
}

// StudentPayments returns a student's payments.  Students may only read
// their own.
func (s *FinanceService) StudentPayments(ctx context.Context, caller model.Caller, studentID string) ([]*model.Payment, error) {
	if !caller.IsAdmin() && caller.ID != studentID {
		return nil, repository.ErrForbidden
	}
	return s.payments.ListByStudent(ctx, studentID)
}

// AllRequests lists fee requests, optionally filtered by status.  Pending
// requests past their due date are marked overdue first.
func (s *FinanceService) AllRequests(ctx context.Context, status string) ([]*model.PaymentRequest, error) {
	if status != "" && !model.ValidRequestStatus(status) {
		return nil, &model.ValidationError{Field: "status", Message: "unknown request status"}
	}
	n, err := s.payments.MarkOverdue(ctx, s.now().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.log.Info("payment requests marked overdue", zap.Int64("count", n))
	}
	return s.payments.ListRequests(ctx, status)
}

func (s *FinanceService) emit(ctx context.Context, ev queue.PaymentEvent) {
	s.metrics.PaymentEvent(ev.Kind)
	ev.At = nowRFC3339()
	s.events.emit(ctx, queue.PaymentQueue, ev)
}
