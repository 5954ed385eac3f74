package storage

import "errors"

var (
	// ErrNotFound indicates no value exists for the given key.
	ErrNotFound = errors.New("storage: record not found")

	// ErrEmptyKey indicates an operation was attempted with an empty key.
	ErrEmptyKey = errors.New("storage: key must not be empty")

	// ErrEmptyBatch indicates Apply was called with no operations.
	ErrEmptyBatch = errors.New("storage: batch is empty")

	// ErrClosed indicates the store has already been closed.
	ErrClosed = errors.New("storage: store is closed")

	// ErrIOFailure indicates the backing database failed to read or write.
	ErrIOFailure = errors.New("storage: I/O failure")
)
