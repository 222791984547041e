// Package dronelink drives a small UDP-controlled quadcopter: it keeps the
// command and video sockets open, decodes telemetry and sends commands with
// a monotonically increasing sequence number.
//
// Example usage:
//
//	cfg := dronelink.Config{Host: "192.168.10.1"}
//	s, err := dronelink.New(cfg, dronelink.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.SubscribeFunc(func(ev telemetry.Event) { fmt.Println(ev.Kind()) })
//	if err := s.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//	_ = s.TakeOff()
package dronelink

import (
	session "github.com/bft-labs/dronelink/pkg/dronelink"
)

// Config holds the session configuration.
type Config = session.Config

// Session is a running connection to one vehicle.
type Session = session.Session

// Option configures a Session.
type Option = session.Option

// State is the session lifecycle state.
type State = session.State

const (
	StateStopped    = session.StateStopped
	StateConnecting = session.StateConnecting
	StateActive     = session.StateActive
	StateStopping   = session.StateStopping
	StateFaulted    = session.StateFaulted
)

// Default vehicle ports.
const (
	DefaultCommandPort = session.DefaultCommandPort
	DefaultVideoPort   = session.DefaultVideoPort
)

var (
	ErrAlreadyRunning  = session.ErrAlreadyRunning
	ErrNotRunning      = session.ErrNotRunning
	ErrShutdownTimeout = session.ErrShutdownTimeout
	ErrInvalidConfig   = session.ErrInvalidConfig
	ErrTransport       = session.ErrTransport
)

// New creates a session. See pkg/dronelink for the available options.
func New(cfg Config, opts ...Option) (*Session, error) {
	return session.New(cfg, opts...)
}

var (
	WithLogger       = session.WithLogger
	WithStateHandler = session.WithStateHandler
	WithPlugin       = session.WithPlugin
	WithDialer       = session.WithDialer
)
