package dronelink

import "github.com/bft-labs/dronelink/internal/domain"

// Errors returned by Session. Check with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrTransport       = domain.ErrTransport
)
