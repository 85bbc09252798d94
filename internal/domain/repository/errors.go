package repository

import "errors"

var (
	// ErrDuplicateID is returned when a record with the same id is already stored.
	ErrDuplicateID = errors.New("signal id already exists")

	// ErrUnknownBackend is returned for an unsupported store.backend value.
	ErrUnknownBackend = errors.New("unknown store backend")
)
