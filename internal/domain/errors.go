package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict signals a uniqueness violation, e.g. a duplicate policy name.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable wraps transient persistence failures.
	// Read paths may retry it with bounded backoff; write paths surface it immediately
	// so a retrying caller cannot silently duplicate lockout or session rows.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
)
