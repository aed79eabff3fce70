package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("user not found")
	// ErrTypeNotFound is returned when a measurement type lookup matches no row.
	ErrTypeNotFound = errors.New("measurement type not found")
	// ErrDuplicateSchedule is returned by CreateSchedule when the owner already
	// has a schedule with the same day and time.
	ErrDuplicateSchedule = errors.New("duplicate schedule")
	// ErrScheduleNotFound is returned when a schedule does not exist or does
	// not belong to the given owner.
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrDuplicateType is returned when a custom type name is already taken.
	ErrDuplicateType = errors.New("duplicate measurement type")
	// ErrTypeInUse is returned when deleting a custom type that still has
	// recorded measurements.
	ErrTypeInUse = errors.New("measurement type has recorded measurements")
	// ErrRequestNotFound is returned for operations on missing coach requests.
	ErrRequestNotFound = errors.New("coach request not found")
	// ErrDuplicateRequest is returned when a pending request between the same
	// coach and athlete already exists.
	ErrDuplicateRequest = errors.New("request already pending")
	// ErrAlreadyLinked is returned when the coach already supervises the athlete.
	ErrAlreadyLinked = errors.New("coach already supervises athlete")
)

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
// The unique index is the backing guarantee for duplicate checks, so two
// concurrent inserts cannot both pass.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3.SQLITE_CONSTRAINT
}
