package dronelink

import (
	"github.com/bft-labs/dronelink/internal/adapters/udp"
	"github.com/bft-labs/dronelink/internal/app"
	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// Re-exported types so callers need a single import for the common cases.
type (
	// Logger is the structured logger from pkg/log.
	Logger = log.Logger

	// Subscriber receives telemetry events on the dispatcher goroutine.
	Subscriber = app.Subscriber

	// SubscriberFunc adapts a function to Subscriber.
	SubscriberFunc = app.SubscriberFunc

	// Stats is a snapshot of the session counters.
	Stats = app.Stats

	// ChannelStats counts traffic on one socket.
	ChannelStats = app.ChannelStats

	// DatagramConn is a connected datagram socket. *net.UDPConn satisfies it.
	DatagramConn = ports.DatagramConn

	// Dialer opens the session sockets.
	Dialer = ports.Dialer

	// FrameSource yields recorded command-channel datagrams for Replay.
	FrameSource = ports.FrameSource
)

// Option configures optional behavior of a Session.
type Option func(*options)

type options struct {
	logger       log.Logger
	stateHandler StateHandler
	plugins      []Plugin
	codec        wire.Codec
	registry     *telemetry.Registry
	dialer       ports.Dialer
}

func defaultOptions() options {
	return options{
		logger:   log.NewNoopLogger(),
		codec:    wire.NewCodec(),
		registry: telemetry.DefaultRegistry(),
		dialer:   udp.NewDialer(0),
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStateHandler sets a handler for lifecycle transitions.
func WithStateHandler(handler StateHandler) Option {
	return func(o *options) {
		o.stateHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the session starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithCodec replaces the wire codec.
func WithCodec(codec wire.Codec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// WithRegistry replaces the set of telemetry readers. Commands with no reader
// in the registry are dropped.
func WithRegistry(registry *telemetry.Registry) Option {
	return func(o *options) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithDialer replaces the UDP dialer, typically with an in-memory fake in
// tests.
func WithDialer(dialer Dialer) Option {
	return func(o *options) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}
