package domain

import "errors"

// Domain errors returned by the public API. Check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a session that is
	// connecting or active.
	ErrAlreadyRunning = errors.New("dronelink: already running")

	// ErrNotRunning is returned when an operation needs an active session.
	ErrNotRunning = errors.New("dronelink: not running")

	// ErrShutdownTimeout is returned when the session loops do not exit in time.
	ErrShutdownTimeout = errors.New("dronelink: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dronelink: invalid configuration")

	// ErrTransport wraps socket failures seen by a receive loop or the send path.
	ErrTransport = errors.New("dronelink: transport failure")
)
