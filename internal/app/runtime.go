package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// RuntimeConfig contains the addressing for one session.
type RuntimeConfig struct {
	Host            string
	CommandPort     uint16
	VideoPort       uint16
	ReadBufferBytes int
}

// Runtime wires the two transport channels, the command queue, the dispatcher
// and the send path. The hub, sender and counters outlive a single run so that
// subscriptions and the sequence counter survive a restart.
type Runtime struct {
	config   RuntimeConfig
	dialer   ports.Dialer
	codec    wire.Codec
	registry *telemetry.Registry
	logger   log.Logger

	metrics *Metrics
	hub     *Hub
	sender  *Sender

	mu        sync.Mutex
	cmdConn   ports.DatagramConn
	videoConn ports.DatagramConn
	replaying bool
}

// NewRuntime creates a runtime. No sockets are opened until Open.
func NewRuntime(config RuntimeConfig, dialer ports.Dialer, codec wire.Codec, registry *telemetry.Registry, logger log.Logger) *Runtime {
	metrics := &Metrics{}
	return &Runtime{
		config:   config,
		dialer:   dialer,
		codec:    codec,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		hub:      NewHub(logger, metrics),
		sender:   NewSender(codec, logger, metrics),
	}
}

// Open dials the command and video sockets and attaches the command socket to
// the send path.
func (r *Runtime) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmdConn != nil || r.replaying {
		return domain.ErrAlreadyRunning
	}

	cmdConn, err := r.dialer.Dial(ctx, r.config.Host, r.config.CommandPort)
	if err != nil {
		return fmt.Errorf("%w: dial command port %d: %w", domain.ErrTransport, r.config.CommandPort, err)
	}
	videoConn, err := r.dialer.Dial(ctx, r.config.Host, r.config.VideoPort)
	if err != nil {
		_ = cmdConn.Close()
		return fmt.Errorf("%w: dial video port %d: %w", domain.ErrTransport, r.config.VideoPort, err)
	}

	r.logger.Info("sockets open",
		log.String("host", r.config.Host),
		log.Stringer("command_local", cmdConn.LocalAddr()),
		log.Stringer("video_local", videoConn.LocalAddr()),
	)

	r.cmdConn = cmdConn
	r.videoConn = videoConn
	r.sender.Attach(cmdConn)
	return nil
}

// Run runs the command receive loop, the video receive loop and the
// dispatcher until ctx is done or one of them fails. The first failure stops
// the others and is returned. Both sockets are closed when Run returns.
func (r *Runtime) Run(ctx context.Context) error {
	r.mu.Lock()
	cmdConn, videoConn := r.cmdConn, r.videoConn
	r.mu.Unlock()
	if cmdConn == nil {
		return domain.ErrNotRunning
	}
	defer r.release()

	queue := NewCommandQueue()
	frames := NewCommandFrameHandler(r.codec, queue, r.logger, r.metrics)

	cmdFrames, cmdBytes := r.metrics.channelCounters(false)
	videoFrames, videoBytes := r.metrics.channelCounters(true)
	command := NewChannel("command", cmdConn, frames.Handle, r.config.ReadBufferBytes, r.logger, cmdFrames, cmdBytes)
	video := NewChannel("video", videoConn, DiscardFrames, r.config.ReadBufferBytes, r.logger, videoFrames, videoBytes)
	dispatcher := NewDispatcher(queue, r.registry, r.hub, r.logger, r.metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return command.Run(gctx) })
	g.Go(func() error { return video.Run(gctx) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	return g.Wait()
}

// release detaches the sockets after a run. The channels have closed them.
func (r *Runtime) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sender.Attach(nil)
	r.cmdConn = nil
	r.videoConn = nil
}

// Close closes sockets opened by Open when Run was never called.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmdConn == nil {
		return
	}
	_ = r.cmdConn.Close()
	_ = r.videoConn.Close()
	r.sender.Attach(nil)
	r.cmdConn = nil
	r.videoConn = nil
}

// Send encodes and writes cmd. It returns the sequence number used.
func (r *Runtime) Send(cmd wire.Command) (uint16, error) {
	return r.sender.Send(cmd)
}

// SendRaw writes b as-is on the command socket.
func (r *Runtime) SendRaw(b []byte) error {
	return r.sender.SendRaw(b)
}

// Sequence returns the next outgoing sequence number.
func (r *Runtime) Sequence() uint16 {
	return r.sender.Sequence()
}

// Subscribe registers s for telemetry events.
func (r *Runtime) Subscribe(s Subscriber) string {
	return r.hub.Subscribe(s)
}

// Unsubscribe removes a subscriber.
func (r *Runtime) Unsubscribe(id string) bool {
	return r.hub.Unsubscribe(id)
}

// Stats returns a snapshot of the runtime counters.
func (r *Runtime) Stats() Stats {
	return r.metrics.Snapshot()
}
