package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("record already exists")
	// ErrReferenced reports a delete blocked by rows that still point at the record.
	ErrReferenced = errors.New("record is still referenced")
)
