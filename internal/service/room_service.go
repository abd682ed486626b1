package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/metrics"
	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/queue"
	"github.com/iliyamo/smartstay/internal/repository"
)

// RoomOptions tunes the room transaction runner.
type RoomOptions struct {
	DefaultCapacity int           // capacity of rooms created by a first allocation
	MaxAttempts     int           // transaction attempts before giving up
	Backoff         time.Duration // sleep before attempt n is n*Backoff
}

// RoomService keeps the occupancy ledger consistent.  Every mutation is a
// single read-modify-write: the room row is locked, the capacity rule is
// checked against the locked state and the write is guarded by the row
// version.  Attempts that lose a race are retried.
type RoomService struct {
	db          *sql.DB
	rooms       *repository.RoomRepo
	allocations *repository.AllocationRepo
	opts        RoomOptions
	events      events
	log         *zap.Logger
	metrics     *metrics.Metrics
}

func NewRoomService(db *sql.DB, rooms *repository.RoomRepo, allocations *repository.AllocationRepo, opts RoomOptions, pub EventPublisher, log *zap.Logger, m *metrics.Metrics) *RoomService {
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = model.DefaultRoomCapacity
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomService{
		db: db, rooms: rooms, allocations: allocations, opts: opts,
		events: events{pub: pub, log: log, m: m}, log: log, metrics: m,
	}
}

// runTx executes fn in a transaction, retrying from scratch when an
// attempt fails with repository.ErrTxConflict.
func (s *RoomService) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err = s.attempt(ctx, fn); err == nil || !errors.Is(err, repository.ErrTxConflict) {
			return err
		}
		if attempt == s.opts.MaxAttempts {
			break
		}
		s.metrics.RoomRetry()
		s.log.Debug("room transaction conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if s.opts.Backoff > 0 {
			t := time.NewTimer(time.Duration(attempt) * s.opts.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", s.opts.MaxAttempts, err)
}

func (s *RoomService) attempt(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		if repository.IsRetryable(err) && !errors.Is(err, repository.ErrTxConflict) {
			return fmt.Errorf("%w: %v", repository.ErrTxConflict, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if repository.IsRetryable(err) {
			return fmt.Errorf("%w: %v", repository.ErrTxConflict, err)
		}
		return err
	}
	committed = true
	return nil
}

func requireRoomArgs(roomNo, studentID string) error {
	if strings.TrimSpace(roomNo) == "" {
		return &model.ValidationError{Field: "number", Message: "room number is required"}
	}
	if strings.TrimSpace(studentID) == "" {
		return &model.ValidationError{Field: "student_id", Message: "student id is required"}
	}
	return nil
}

// AllocateRoom adds studentID to roomNo, creating the room with the
// default capacity when it does not exist.  Allocating a student who is
// already an occupant changes nothing.  A full room yields
// repository.ErrCapacity.
func (s *RoomService) AllocateRoom(ctx context.Context, roomNo, studentID, studentName string) (*model.Room, error) {
	roomNo, studentID = strings.TrimSpace(roomNo), strings.TrimSpace(studentID)
	if err := requireRoomArgs(roomNo, studentID); err != nil {
		return nil, err
	}
	var (
		result  *model.Room
		changed bool
	)
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		result, changed = nil, false
		room, err := s.rooms.GetForUpdateTx(ctx, tx, roomNo)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			room = &model.Room{
				Number:          roomNo,
				Capacity:        s.opts.DefaultCapacity,
				Occupants:       []string{studentID},
				OccupantDetails: []model.Occupant{{ID: studentID, Name: studentName}},
				Status:          model.RoomStatus(1, s.opts.DefaultCapacity),
			}
			if err := s.rooms.InsertTx(ctx, tx, room); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			ok, full := room.AddOccupant(studentID, studentName)
			if full {
				return repository.ErrCapacity
			}
			if !ok {
				result = room
				return nil
			}
			if err := s.rooms.UpdateOccupantsTx(ctx, tx, room); err != nil {
				return err
			}
		}
		if err := s.allocations.SetRoomTx(ctx, tx, studentID, roomNo); err != nil {
			return err
		}
		result, changed = room, true
		return nil
	})
	s.metrics.RoomOperation("allocate", err)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("room allocated", zap.String("room", roomNo), zap.String("student_id", studentID),
			zap.Int("occupants", len(result.Occupants)), zap.String("status", result.Status))
		s.emitRoom(ctx, queue.RoomAllocated, studentID, result)
	}
	return result, nil
}

// DeallocateRoom removes studentID from roomNo.  Removing a student who is
// not listed changes nothing.
func (s *RoomService) DeallocateRoom(ctx context.Context, roomNo, studentID string) (*model.Room, error) {
	roomNo, studentID = strings.TrimSpace(roomNo), strings.TrimSpace(studentID)
	if err := requireRoomArgs(roomNo, studentID); err != nil {
		return nil, err
	}
	var (
		result  *model.Room
		changed bool
	)
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		result, changed = nil, false
		room, err := s.rooms.GetForUpdateTx(ctx, tx, roomNo)
		if err != nil {
			return err
		}
		if !room.RemoveOccupant(studentID) {
			result = room
			return nil
		}
		if err := s.rooms.UpdateOccupantsTx(ctx, tx, room); err != nil {
			return err
		}
		if err := s.allocations.ClearRoomTx(ctx, tx, studentID, roomNo); err != nil {
			return err
		}
		result, changed = room, true
		return nil
	})
	s.metrics.RoomOperation("deallocate", err)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("room deallocated", zap.String("room", roomNo), zap.String("student_id", studentID),
			zap.Int("occupants", len(result.Occupants)), zap.String("status", result.Status))
		s.emitRoom(ctx, queue.RoomDeallocated, studentID, result)
	}
	return result, nil
}

// DeleteRoom removes an empty room.  Rooms with occupants yield
// repository.ErrRoomOccupied.
func (s *RoomService) DeleteRoom(ctx context.Context, roomNo string) error {
	roomNo = strings.TrimSpace(roomNo)
	if roomNo == "" {
		return &model.ValidationError{Field: "number", Message: "room number is required"}
	}
	var deleted *model.Room
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		room, err := s.rooms.GetForUpdateTx(ctx, tx, roomNo)
		if err != nil {
			return err
		}
		if len(room.Occupants) > 0 {
			return repository.ErrRoomOccupied
		}
		deleted = room
		return s.rooms.DeleteTx(ctx, tx, roomNo)
	})
	s.metrics.RoomOperation("delete", err)
	if err != nil {
		return err
	}
	s.log.Info("room deleted", zap.String("room", roomNo))
	s.emitRoom(ctx, queue.RoomDeleted, "", deleted)
	return nil
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, roomNo string) (*model.Room, error) {
	return s.rooms.Get(ctx, strings.TrimSpace(roomNo))
}

// ListRooms returns every room, optionally narrowed to a status.
func (s *RoomService) ListRooms(ctx context.Context, status string) ([]*model.Room, error) {
	switch status {
	case "", model.RoomVacant, model.RoomOccupied, model.RoomFull:
	default:
		return nil, &model.ValidationError{Field: "status", Message: "status must be vacant, occupied or full"}
	}
	return s.rooms.List(ctx, status)
}

func (s *RoomService) emitRoom(ctx context.Context, kind, studentID string, room *model.Room) {
	s.events.emit(ctx, queue.RoomQueue, queue.RoomEvent{
		Kind: kind, Room: room.Number, StudentID: studentID,
		Occupants: len(room.Occupants), Capacity: room.EffectiveCapacity(), Status: room.Status, At: nowRFC3339(),
	})
}
