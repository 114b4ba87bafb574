package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing record.
// The store's unique constraints are the source of truth for uniqueness;
// callers must treat this as the authoritative duplicate signal, not any
// pre-insert check they ran themselves.
var ErrConflict = errors.New("conflict")

// ErrDuplicateEmail and ErrDuplicateUsername narrow ErrConflict for user
// inserts. Both satisfy errors.Is(err, ErrConflict).
var (
	ErrDuplicateEmail    = wrapConflict("email already exists")
	ErrDuplicateUsername = wrapConflict("username already exists")
)

type conflictError struct {
	msg string
}

func (e *conflictError) Error() string { return e.msg }

func (e *conflictError) Is(target error) bool { return target == ErrConflict }

func wrapConflict(msg string) error {
	return &conflictError{msg: msg}
}

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
