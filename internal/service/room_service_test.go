package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/repository"
)

const (
	selectRoomForUpdate = `SELECT number, capacity, occupants, occupant_details, status, version, created_at, updated_at FROM rooms WHERE number = \? FOR UPDATE`
	insertRoom          = `INSERT INTO rooms`
	updateRoom          = `UPDATE rooms\s+SET occupants = \?, occupant_details = \?, status = \?, version = version \+ 1`
	setAllocationRoom   = `UPDATE allocations SET room=\? WHERE student_id=\?`
	clearAllocationRoom = `UPDATE allocations SET room='' WHERE student_id=\? AND room=\?`
)

var roomCols = []string{"number", "capacity", "occupants", "occupant_details", "status", "version", "created_at", "updated_at"}

func roomRow(number string, capacity int, occupants, details, status string, version uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(roomCols).AddRow(number, capacity, []byte(occupants), []byte(details), status, version, now, now)
}

func newRoomFixture(t *testing.T, attempts int) (*RoomService, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	pub := &recordingPublisher{}
	svc := NewRoomService(db, repository.NewRoomRepo(db), repository.NewAllocationRepo(db),
		RoomOptions{DefaultCapacity: 2, MaxAttempts: attempts}, pub, nil, nil)
	return svc, mock, pub
}

func TestAllocateCreatesMissingRoom(t *testing.T) {
	svc, mock, pub := newRoomFixture(t, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").WillReturnRows(sqlmock.NewRows(roomCols))
	mock.ExpectExec(insertRoom).
		WithArgs("101", 2, []byte(`["s1"]`), []byte(`[{"id":"s1","name":"Asha"}]`), model.RoomOccupied).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setAllocationRoom).WithArgs("101", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := svc.AllocateRoom(context.Background(), "101", "s1", "Asha")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, room.Occupants)
	assert.Equal(t, model.RoomOccupied, room.Status)
	assert.Equal(t, uint64(1), room.Version)
	assert.Len(t, pub.events, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateFillsRoom(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s1"]`, `[{"id":"s1","name":"Asha"}]`, model.RoomOccupied, 4))
	mock.ExpectExec(updateRoom).
		WithArgs([]byte(`["s1","s2"]`), []byte(`[{"id":"s1","name":"Asha"},{"id":"s2","name":"Bela"}]`), model.RoomFull, "101", uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setAllocationRoom).WithArgs("101", "s2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := svc.AllocateRoom(context.Background(), "101", "s2", "Bela")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, room.Occupants)
	assert.Equal(t, model.RoomFull, room.Status)
	assert.Equal(t, uint64(5), room.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateFullRoomIsCapacityError(t *testing.T) {
	svc, mock, pub := newRoomFixture(t, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s1","s2"]`, `[{"id":"s1","name":"A"},{"id":"s2","name":"B"}]`, model.RoomFull, 2))
	mock.ExpectRollback()

	_, err := svc.AllocateRoom(context.Background(), "101", "s3", "C")
	assert.ErrorIs(t, err, repository.ErrCapacity)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateExistingOccupantIsNoop(t *testing.T) {
	svc, mock, pub := newRoomFixture(t, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s1"]`, `[{"id":"s1","name":"Asha"}]`, model.RoomOccupied, 1))
	mock.ExpectCommit()

	room, err := svc.AllocateRoom(context.Background(), "101", "s1", "Asha")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, room.Occupants)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateRetriesOnVersionConflict(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)

	// first attempt: a concurrent writer bumped the version
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `[]`, `[]`, model.RoomVacant, 1))
	mock.ExpectExec(updateRoom).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	// second attempt sees the other writer's occupant and fills the room
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s9"]`, `[{"id":"s9","name":"Z"}]`, model.RoomOccupied, 2))
	mock.ExpectExec(updateRoom).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setAllocationRoom).WithArgs("101", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := svc.AllocateRoom(context.Background(), "101", "s1", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"s9", "s1"}, room.Occupants)
	assert.Equal(t, model.RoomFull, room.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateRetriesOnDeadlockAndDuplicateInsert(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)

	// two first allocations race: ours loses the insert
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("202").WillReturnRows(sqlmock.NewRows(roomCols))
	mock.ExpectExec(insertRoom).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '202'"})
	mock.ExpectRollback()
	// then a deadlock on the update
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("202").
		WillReturnRows(roomRow("202", 2, `["s2"]`, `[{"id":"s2","name":"B"}]`, model.RoomOccupied, 1))
	mock.ExpectExec(updateRoom).WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()
	// third attempt succeeds
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("202").
		WillReturnRows(roomRow("202", 2, `["s2"]`, `[{"id":"s2","name":"B"}]`, model.RoomOccupied, 1))
	mock.ExpectExec(updateRoom).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setAllocationRoom).WithArgs("202", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := svc.AllocateRoom(context.Background(), "202", "s1", "A")
	require.NoError(t, err)
	assert.Len(t, room.Occupants, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateGivesUpAfterMaxAttempts(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 2)

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
			WillReturnRows(roomRow("101", 2, `[]`, `[]`, model.RoomVacant, 1))
		mock.ExpectExec(updateRoom).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
	}

	_, err := svc.AllocateRoom(context.Background(), "101", "s1", "A")
	assert.ErrorIs(t, err, repository.ErrTxConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateValidatesArguments(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 1)
	_, err := svc.AllocateRoom(context.Background(), " ", "s1", "A")
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	_, err = svc.AllocateRoom(context.Background(), "101", "", "A")
	assert.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeallocateRemovesFromBothLists(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)

	mock.ExpectBegin()
	// details drifted: s1 appears only in occupant_details
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s2"]`, `[{"id":"s1","name":"A"},{"id":"s2","name":"B"}]`, model.RoomOccupied, 7))
	mock.ExpectExec(updateRoom).
		WithArgs([]byte(`["s2"]`), []byte(`[{"id":"s2","name":"B"}]`), model.RoomOccupied, "101", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(clearAllocationRoom).WithArgs("s1", "101").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	room, err := svc.DeallocateRoom(context.Background(), "101", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, room.Occupants)
	assert.Equal(t, []model.Occupant{{ID: "s2", Name: "B"}}, room.OccupantDetails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeallocateAbsentStudentWritesNothing(t *testing.T) {
	svc, mock, pub := newRoomFixture(t, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s2"]`, `[{"id":"s2","name":"B"}]`, model.RoomOccupied, 7))
	mock.ExpectCommit()

	room, err := svc.DeallocateRoom(context.Background(), "101", "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), room.Version)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeallocateMissingRoom(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("404").WillReturnRows(sqlmock.NewRows(roomCols))
	mock.ExpectRollback()

	_, err := svc.DeallocateRoom(context.Background(), "404", "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOccupiedRoomIsConflict(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `["s1"]`, `[{"id":"s1","name":"A"}]`, model.RoomOccupied, 1))
	mock.ExpectRollback()

	err := svc.DeleteRoom(context.Background(), "101")
	assert.ErrorIs(t, err, repository.ErrRoomOccupied)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmptyRoom(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)
	mock.ExpectBegin()
	mock.ExpectQuery(selectRoomForUpdate).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `[]`, `[]`, model.RoomVacant, 3))
	mock.ExpectExec(`DELETE FROM rooms WHERE number = \?`).WithArgs("101").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteRoom(context.Background(), "101"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedOccupantsFailFast(t *testing.T) {
	svc, mock, _ := newRoomFixture(t, 3)
	mock.ExpectQuery(`SELECT .* FROM rooms WHERE number = \?`).WithArgs("101").
		WillReturnRows(roomRow("101", 2, `{"not":"a list"}`, `[]`, model.RoomOccupied, 1))

	_, err := svc.GetRoom(context.Background(), "101")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoomsRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newRoomFixture(t, 1)
	_, err := svc.ListRooms(context.Background(), "haunted")
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}
