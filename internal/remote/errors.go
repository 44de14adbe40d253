package remote

import "errors"

var (
	// ErrUnavailable covers unreachable hosts, timeouts, and non-auth
	// server errors. The sync coordinator treats it as the signal to fall
	// back to the local mirror.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized covers 401/403. It is handled globally by the
	// OnAuthFailure hook; business logic never branches on it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers a 404 on a single resource.
	ErrNotFound = errors.New("remote resource not found")
)
