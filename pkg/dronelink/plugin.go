package dronelink

import (
	"context"

	"github.com/bft-labs/dronelink/pkg/log"
)

// Plugin extends a Session with optional behavior.
// Plugins are initialized in registration order when the session starts and
// shut down in reverse order when it stops.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called from Start before any socket is opened. ctx is
	// cancelled when the session stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop after the session loops have exited.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin gets to work with.
type PluginConfig struct {
	Host        string
	CommandPort uint16
	VideoPort   uint16
	Logger      log.Logger

	// Events lets a plugin subscribe to telemetry.
	Events EventSource
}

// EventSource registers telemetry subscribers. Session implements it.
type EventSource interface {
	Subscribe(s Subscriber) string
	Unsubscribe(id string) bool
}
