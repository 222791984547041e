package dronelink

import (
	"fmt"
	"time"

	"github.com/bft-labs/dronelink/internal/app"
	"github.com/bft-labs/dronelink/internal/domain"
)

// Default ports used by the vehicle.
const (
	DefaultCommandPort uint16 = 8889
	DefaultVideoPort   uint16 = 6037
)

// Config describes where the vehicle is and how the session behaves.
type Config struct {
	// Host is the vehicle's address. Required.
	Host string

	// CommandPort carries commands and telemetry.
	// Default: 8889
	CommandPort uint16

	// VideoPort carries the video stream.
	// Default: 6037
	VideoPort uint16

	// ReadBufferBytes is the receive buffer size for both sockets.
	// Datagrams larger than this are truncated.
	// Default: 4096
	ReadBufferBytes int

	// ShutdownTimeout bounds how long Stop waits for the session loops.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.CommandPort == 0 {
		c.CommandPort = DefaultCommandPort
	}
	if c.VideoPort == 0 {
		c.VideoPort = DefaultVideoPort
	}
	if c.ReadBufferBytes <= 0 {
		c.ReadBufferBytes = app.DefaultReadBufferBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = app.DefaultShutdownTimeout
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", domain.ErrInvalidConfig)
	}
	if c.CommandPort == c.VideoPort {
		return fmt.Errorf("%w: command and video port must differ (both %d)", domain.ErrInvalidConfig, c.CommandPort)
	}
	return nil
}
