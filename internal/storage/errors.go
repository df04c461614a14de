package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates that the resource is not in the state the
	// operation requires, for example a question that was already answered.
	ErrConflict = errors.New("resource state conflict")
)
