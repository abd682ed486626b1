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

// VisitorStore is the persistence needed by VisitorService.
// *repository.VisitorRepo satisfies it.
type VisitorStore interface {
	Create(ctx context.Context, v *model.Visitor) error
	GetByID(ctx context.Context, id uint64) (*model.Visitor, error)
	GetByQRCode(ctx context.Context, code string) (*model.Visitor, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Visitor, error)
	ListByStatus(ctx context.Context, statuses ...model.VisitorStatus) ([]*model.Visitor, error)
	List(ctx context.Context, f model.VisitorFilter) ([]*model.Visitor, error)
	Transition(ctx context.Context, id uint64, from, to model.VisitorStatus, u repository.VisitorUpdate) error
}

// StudentDirectory resolves a student's directory entry.
// *repository.AllocationRepo satisfies it.
type StudentDirectory interface {
	Get(ctx context.Context, studentID string) (*model.Allocation, error)
}

// VisitorService implements the visitor pass workflow:
//
//	pending → approved | rejected | cancelled
//	approved → checked_in | cancelled
//	checked_in → checked_out
//
// Every status write is conditioned on the status that was read, so two
// admins acting on the same visitor cannot both succeed.
type VisitorService struct {
	store    VisitorStore
	students StudentDirectory
	events   events
	log      *zap.Logger
	metrics  *metrics.Metrics

	now      func() time.Time
	newToken func() string
}

// NewVisitorService wires the workflow.  pub and m may be nil.
func NewVisitorService(store VisitorStore, students StudentDirectory, pub EventPublisher, log *zap.Logger, m *metrics.Metrics) *VisitorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VisitorService{
		store:    store,
		students: students,
		events:   events{pub: pub, log: log, m: m},
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: utils.NewPassToken,
	}
}

// RegisterVisitor validates in and creates a pending visitor owned by
// studentID.  The room number is copied from the student's allocation.
func (s *VisitorService) RegisterVisitor(ctx context.Context, studentID string, in model.VisitorInput) (*model.Visitor, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	room := ""
	if s.students != nil {
		a, err := s.students.Get(ctx, studentID)
		switch {
		case err == nil:
			room = a.Room
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, fmt.Errorf("lookup student %s: %w", studentID, err)
		}
	}
	v := &model.Visitor{
		StudentID:       studentID,
		VisitorName:     in.VisitorName,
		VisitorPhone:    in.VisitorPhone,
		VisitorRelation: in.VisitorRelation,
		Purpose:         in.Purpose,
		ExpectedDate:    in.ExpectedDate,
		ExpectedTimeIn:  in.ExpectedTimeIn,
		ExpectedTimeOut: in.ExpectedTimeOut,
		RoomNumber:      room,
		Status:          model.VisitorPending,
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	s.log.Info("visitor registered", zap.Uint64("visitor_id", v.ID), zap.String("student_id", studentID))
	s.events.emit(ctx, queue.VisitorQueue, queue.VisitorEvent{
		VisitorID: v.ID, StudentID: studentID, VisitorName: v.VisitorName, RoomNumber: room,
		To: string(v.Status), Actor: studentID, At: nowRFC3339(),
	})
	return v, nil
}

// ApproveVisitor moves a pending visitor to approved and issues a fresh
// pass token.
func (s *VisitorService) ApproveVisitor(ctx context.Context, id uint64, adminID string, remarks *string) (*model.Visitor, error) {
	now := s.now()
	token := s.newToken()
	u := repository.VisitorUpdate{ApprovedBy: &adminID, ApprovedAt: &now, QRCode: &token}
	if remarks != nil && strings.TrimSpace(*remarks) != "" {
		r := strings.TrimSpace(*remarks)
		u.AdminRemarks = &r
	}
	return s.transition(ctx, id, model.ActionApprove, adminID, u)
}

// RejectVisitor moves a pending visitor to rejected.  Remarks are required
// and checked before the visitor is read.
func (s *VisitorService) RejectVisitor(ctx context.Context, id uint64, adminID, remarks string) (*model.Visitor, error) {
	if err := model.ValidateRemarks(remarks); err != nil {
		return nil, err
	}
	now := s.now()
	r := strings.TrimSpace(remarks)
	return s.transition(ctx, id, model.ActionReject, adminID, repository.VisitorUpdate{ApprovedBy: &adminID, ApprovedAt: &now, AdminRemarks: &r})
}

// CheckInVisitor records arrival of an approved visitor.
func (s *VisitorService) CheckInVisitor(ctx context.Context, id uint64, adminID string) (*model.Visitor, error) {
	now := s.now()
	return s.transition(ctx, id, model.ActionCheckIn, adminID, repository.VisitorUpdate{CheckedInAt: &now})
}

// CheckOutVisitor records departure of a checked-in visitor.
func (s *VisitorService) CheckOutVisitor(ctx context.Context, id uint64, adminID string) (*model.Visitor, error) {
	now := s.now()
	return s.transition(ctx, id, model.ActionCheckOut, adminID, repository.VisitorUpdate{CheckedOutAt: &now})
}

// CancelVisitor lets the owning student withdraw a pending or approved
// visit.
func (s *VisitorService) CancelVisitor(ctx context.Context, id uint64, studentID string) (*model.Visitor, error) {
	v, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.StudentID != studentID {
		return nil, repository.ErrForbidden
	}
	return s.apply(ctx, v, model.ActionCancel, studentID, repository.VisitorUpdate{})
}

func (s *VisitorService) transition(ctx context.Context, id uint64, action model.VisitorAction, actor string, u repository.VisitorUpdate) (*model.Visitor, error) {
	v, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, v, action, actor, u)
}

func (s *VisitorService) apply(ctx context.Context, v *model.Visitor, action model.VisitorAction, actor string, u repository.VisitorUpdate) (*model.Visitor, error) {
	to, ok := model.NextVisitorStatus(action, v.Status)
	if !ok {
		s.metrics.VisitorTransition(string(action), repository.ErrInvalidTransition)
		return nil, fmt.Errorf("%w: cannot %s a %s visitor", repository.ErrInvalidTransition, action, v.Status)
	}
	err := s.store.Transition(ctx, v.ID, v.Status, to, u)
	s.metrics.VisitorTransition(string(action), err)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: visitor %d changed concurrently", repository.ErrInvalidTransition, v.ID)
		}
		return nil, err
	}
	from := v.Status
	s.log.Info("visitor status changed",
		zap.Uint64("visitor_id", v.ID), zap.String("from", string(from)), zap.String("to", string(to)), zap.String("actor", actor))
	s.events.emit(ctx, queue.VisitorQueue, queue.VisitorEvent{
		VisitorID: v.ID, StudentID: v.StudentID, VisitorName: v.VisitorName, RoomNumber: v.RoomNumber,
		From: string(from), To: string(to), Actor: actor, At: nowRFC3339(),
	})

	updated, err := s.store.GetByID(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// VerifyPass returns the visitor holding code when the pass may be used at
// the gate.  Unknown codes are ErrNotFound; passes of visitors in any
// status other than approved or checked_in are ErrInvalidTransition.
func (s *VisitorService) VerifyPass(ctx context.Context, code string) (*model.Visitor, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, repository.ErrNotFound
	}
	v, err := s.store.GetByQRCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !v.Status.PassValid() {
		return nil, fmt.Errorf("%w: pass for a %s visitor", repository.ErrInvalidTransition, v.Status)
	}
	return v, nil
}

// MyVisitors lists a student's visitors, newest first.
func (s *VisitorService) MyVisitors(ctx context.Context, studentID string) ([]*model.Visitor, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// GetVisitor returns a visitor to its owner or to an admin.
func (s *VisitorService) GetVisitor(ctx context.Context, id uint64, caller model.Caller) (*model.Visitor, error) {
	v, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && v.StudentID != caller.ID {
		return nil, repository.ErrForbidden
	}
	return v, nil
}

// PendingVisitors lists visitors awaiting a decision.
func (s *VisitorService) PendingVisitors(ctx context.Context) ([]*model.Visitor, error) {
	return s.store.ListByStatus(ctx, model.VisitorPending)
}

// ActiveVisitors lists approved and checked-in visitors.
func (s *VisitorService) ActiveVisitors(ctx context.Context) ([]*model.Visitor, error) {
	return s.store.ListByStatus(ctx, model.VisitorApproved, model.VisitorCheckedIn)
}

// AllVisitors lists visitors matching f.  Malformed filter values are
// rejected rather than ignored.
func (s *VisitorService) AllVisitors(ctx context.Context, f model.VisitorFilter) ([]*model.Visitor, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &model.ValidationError{Field: "status", Message: "unknown visitor status"}
	}
	if f.StartDate != "" && !model.ValidDate(f.StartDate) {
		return nil, &model.ValidationError{Field: "startDate", Message: "start date must be YYYY-MM-DD"}
	}
	if f.EndDate != "" && !model.ValidDate(f.EndDate) {
		return nil, &model.ValidationError{Field: "endDate", Message: "end date must be YYYY-MM-DD"}
	}
	return s.store.List(ctx, f)
}
