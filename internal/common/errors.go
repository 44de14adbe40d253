// Package common defines shared constants and sentinel errors used across
// the storage, API, and sync layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Local mirror errors.
	ErrCapacityExceeded = errors.New("capacity exceeded: delete a document before adding another")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
