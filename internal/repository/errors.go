// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. ErrForbidden indicates that the caller does not own the
// record, ErrConflict signals that an operation cannot proceed because of
// existing state (e.g. deleting an occupied room) and ErrCapacity that a
// room has no free bed.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a room that still has occupants. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCapacity is returned when allocating a student to a room that is
// already full.
var ErrCapacity = errors.New("room is full")

// ErrRoomOccupied is the ErrConflict returned when deleting a room that
// still has occupants.
var ErrRoomOccupied = fmt.Errorf("%w: room has occupants", ErrConflict)

// ErrInvalidTransition is returned when a status change is attempted from
// a status that does not allow it, including when another writer changed
// the status first.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("not found")

// ErrTxConflict marks a transaction attempt that lost a race with a
// concurrent writer (version mismatch, duplicate insert or deadlock).
// Transaction runners retry on it.
var ErrTxConflict = errors.New("transaction conflict")

// MySQL error numbers that indicate a concurrent writer.
const (
	mysqlDuplicateEntry = 1062
	mysqlLockWait       = 1205
	mysqlDeadlock       = 1213
)

// IsRetryable reports whether err is a MySQL error caused by a concurrent
// transaction touching the same rows.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry, mysqlLockWait, mysqlDeadlock:
			return true
		}
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "deadlock")
}
