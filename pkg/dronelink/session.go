package dronelink

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/dronelink/internal/adapters/pcap"
	"github.com/bft-labs/dronelink/internal/app"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// Session is a connection to one vehicle: a command socket carrying commands
// and telemetry, and a video socket whose frames are received and discarded.
// Use New to create one, then Start.
//
// All methods are safe for concurrent use.
type Session struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	runtime   *app.Runtime
	logger    log.Logger

	mu          sync.Mutex
	initialized []Plugin

	errMu sync.RWMutex
	err   error
}

// New creates a session in StateStopped. No sockets are opened until Start.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With(log.String("host", cfg.Host))
	lifecycle := app.NewLifecycle(logger, &stateEmitter{handler: o.stateHandler})
	runtime := app.NewRuntime(app.RuntimeConfig{
		Host:            cfg.Host,
		CommandPort:     cfg.CommandPort,
		VideoPort:       cfg.VideoPort,
		ReadBufferBytes: cfg.ReadBufferBytes,
	}, o.dialer, o.codec, o.registry, logger)

	return &Session{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		runtime:   runtime,
		logger:    logger,
	}, nil
}

// Start initializes plugins, opens both sockets, starts the command receive
// loop, the video receive loop and the event dispatcher, then sends the
// connection request. On success the session is Active.
//
// ctx bounds the session: cancelling it ends the loops and the session
// becomes Faulted with ctx's error. Stop is the normal way to end a session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateConnecting, "Start() called"); err != nil {
		return err
	}
	s.setErr(nil)

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Host:        s.config.Host,
		CommandPort: s.config.CommandPort,
		VideoPort:   s.config.VideoPort,
		Logger:      s.logger,
		Events:      s,
	}
	for _, p := range s.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			s.fault(fmt.Errorf("plugin %s: %w", p.Name(), err))
			return err
		}
		s.initialized = append(s.initialized, p)
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if err := s.runtime.Open(runCtx); err != nil {
		s.fault(err)
		return err
	}

	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()

		err := s.runtime.Run(runCtx)
		if err == nil {
			// Loops exit cleanly on Stop and when the owner's ctx ends.
			err = context.Cause(ctx)
		}
		if err != nil {
			s.fault(err)
		}
	}()

	if err := s.runtime.SendRaw(wire.ConnectionRequest(s.config.VideoPort)); err != nil {
		s.logger.Error("connection request failed", log.Err(err))
		s.fault(err)
		return err
	}

	if err := s.lifecycle.TransitionTo(app.StateActive, "connection request sent"); err != nil {
		if fault := s.Err(); fault != nil {
			return fault
		}
		return err
	}
	return nil
}

// Stop cancels the session loops, closes both sockets and waits for the loops
// to exit, bounded by Config.ShutdownTimeout. Queued commands not yet
// dispatched are discarded. Plugins are shut down in reverse order.
// Returns ErrShutdownTimeout if the loops did not exit in time.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	plugins := s.initialized
	s.initialized = nil
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(s.config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(shutdownErr))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}

	if err != nil {
		s.recordErr(err)
		_ = s.lifecycle.TransitionTo(app.StateFaulted, "shutdown timeout")
		return err
	}
	_ = s.lifecycle.TransitionTo(app.StateStopped, "stopped")
	return nil
}

// Send encodes cmd with the next sequence number and writes it to the
// command socket. Concurrent sends are serialized; the sequence number
// advances only on a successful write. It returns the sequence number the
// frame carried.
func (s *Session) Send(cmd wire.Command) (uint16, error) {
	if s.lifecycle.State() != app.StateActive {
		return 0, ErrNotRunning
	}
	return s.runtime.Send(cmd)
}

// SendRaw writes b unchanged to the command socket, under the same lock as
// Send. It does not consume a sequence number.
func (s *Session) SendRaw(b []byte) error {
	if s.lifecycle.State() != app.StateActive {
		return ErrNotRunning
	}
	return s.runtime.SendRaw(b)
}

// TakeOff sends the take-off command.
func (s *Session) TakeOff() error {
	_, err := s.Send(wire.NewCommand(wire.CmdTakeOff, wire.PacketTypeSet, nil))
	return err
}

// Land sends the land command.
func (s *Session) Land() error {
	_, err := s.Send(wire.NewCommand(wire.CmdLand, wire.PacketTypeSet, nil))
	return err
}

// Subscribe registers sub for telemetry events and returns an id for
// Unsubscribe. Subscriptions survive Stop and Start.
func (s *Session) Subscribe(sub Subscriber) string {
	return s.runtime.Subscribe(sub)
}

// SubscribeFunc registers fn for telemetry events.
func (s *Session) SubscribeFunc(fn func(telemetry.Event)) string {
	return s.runtime.Subscribe(SubscriberFunc(fn))
}

// Unsubscribe removes a subscriber. It reports whether the id was known.
func (s *Session) Unsubscribe(id string) bool {
	return s.runtime.Unsubscribe(id)
}

// Status returns the current lifecycle state.
func (s *Session) Status() State {
	return convertState(s.lifecycle.State())
}

// Err returns the error that faulted the session, or nil.
func (s *Session) Err() error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.err
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return s.runtime.Stats()
}

// Sequence returns the sequence number the next command will carry.
func (s *Session) Sequence() uint16 {
	return s.runtime.Sequence()
}

// Replay feeds recorded command-channel datagrams through the same frame
// classification and dispatch as a live session; subscribers receive the
// resulting events. It runs on the calling goroutine and needs no sockets.
//
// Replay is only allowed while the session is Stopped; otherwise it returns
// ErrAlreadyRunning. Start blocks until a running replay finishes.
func (s *Session) Replay(ctx context.Context, src FrameSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifecycle.State() != app.StateStopped {
		return ErrAlreadyRunning
	}
	return s.runtime.Replay(ctx, src)
}

// ReplayCapture replays the command-port UDP payloads of a pcap file.
func (s *Session) ReplayCapture(ctx context.Context, path string) error {
	src, err := pcap.Open(path, s.config.CommandPort)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := s.Replay(ctx, src); err != nil {
		return err
	}
	read, skipped := src.Packets()
	s.logger.Info("capture replayed",
		log.String("path", path),
		log.Uint64("packets", read),
		log.Uint64("skipped", skipped),
	)
	return nil
}

// fault records the first error and moves a connecting or active session to
// Faulted.
func (s *Session) fault(err error) {
	s.recordErr(err)
	if s.lifecycle.Fault(err.Error()) {
		s.lifecycle.Cancel()
	}
}

// recordErr keeps the first error of a run.
func (s *Session) recordErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.err = err
}

var _ EventSource = (*Session)(nil)
