package domain

import "errors"

// Errors returned by the client lifecycle API.
// Check them with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start is called on a running client.
	ErrAlreadyRunning = errors.New("telship: already running")

	// ErrNotRunning is returned when Stop is called on a stopped client.
	ErrNotRunning = errors.New("telship: not running")

	// ErrShutdownTimeout is returned when in-flight transmissions outlive the
	// shutdown timeout.
	ErrShutdownTimeout = errors.New("telship: shutdown timeout")

	// ErrInvalidConfig is returned when settings fail validation.
	ErrInvalidConfig = errors.New("telship: invalid configuration")
)
