package tenant

import "errors"

var (
	// ErrNotFound is returned when no tenant matches a lookup.
	ErrNotFound = errors.New("tenant not found")

	// ErrConflict is returned when a write would duplicate a subdomain or
	// custom domain.
	ErrConflict = errors.New("tenant identifier already in use")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid tenant input")
)
