// Package eventlog writes every telemetry event to a size-rotated JSON-lines
// file.
//
// Each line looks like:
//
//	{"kind":"wifi_status","command":"WifiStatus","event":{"strength":90,"interference":0},"time":"2024-05-01T10:00:00Z"}
package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bft-labs/dronelink/pkg/dronelink"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
)

// Config holds configuration options for the event log plugin.
type Config struct {
	// Path is the log file. Required.
	Path string

	// MaxSizeMB rotates the file once it reaches this size.
	// Default: 10
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep. Zero keeps all.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxSizeMB: 10, MaxBackups: 5}
}

// Plugin subscribes to telemetry and appends each event to the log file.
type Plugin struct {
	cfg Config

	mu      sync.Mutex
	out     *lumberjack.Logger
	enc     zerolog.Logger
	events  dronelink.EventSource
	subID   string
	written uint64
	logger  log.Logger
}

// New creates an event log plugin.
func New(cfg Config) *Plugin {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	return &Plugin{cfg: cfg, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "eventlog"
}

// Initialize opens the log and subscribes to telemetry.
func (p *Plugin) Initialize(_ context.Context, cfg dronelink.PluginConfig) error {
	if p.cfg.Path == "" {
		return fmt.Errorf("eventlog: path is required")
	}
	if cfg.Events == nil {
		return fmt.Errorf("eventlog: no event source")
	}
	if cfg.Logger != nil {
		p.logger = cfg.Logger.With(log.String("plugin", p.Name()))
	}

	p.mu.Lock()
	p.out = &lumberjack.Logger{
		Filename:   p.cfg.Path,
		MaxSize:    p.cfg.MaxSizeMB,
		MaxBackups: p.cfg.MaxBackups,
		Compress:   p.cfg.Compress,
	}
	p.enc = zerolog.New(p.out).With().Timestamp().Logger()
	p.events = cfg.Events
	p.mu.Unlock()

	p.subID = cfg.Events.Subscribe(p)
	p.logger.Info("writing telemetry events", log.String("path", p.cfg.Path))
	return nil
}

// OnEvent implements dronelink.Subscriber.
func (p *Plugin) OnEvent(ev telemetry.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}

	// Log carries no level, so the global log level never filters it.
	p.enc.Log().
		Str("kind", ev.Kind()).
		Stringer("command", ev.CommandID()).
		Interface("event", ev).
		Send()
	p.written++
}

// Written returns the number of events written.
func (p *Plugin) Written() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Shutdown unsubscribes and closes the log.
func (p *Plugin) Shutdown(context.Context) error {
	if p.events != nil {
		p.events.Unsubscribe(p.subID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out = nil
	p.logger.Info("event log closed", log.Uint64("events", p.written))
	return err
}

// WithEventLog returns a dronelink Option that enables the event log.
func WithEventLog(cfg Config) dronelink.Option {
	return dronelink.WithPlugin(New(cfg))
}

var (
	_ dronelink.Plugin     = (*Plugin)(nil)
	_ dronelink.Subscriber = (*Plugin)(nil)
)
