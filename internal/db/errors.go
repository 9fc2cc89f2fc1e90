package db

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("record already exists")
	// ErrNoSQLUnavailable is returned by document-store operations while MongoDB is not connected.
	ErrNoSQLUnavailable = errors.New("document store unavailable")
)
