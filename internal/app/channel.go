package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/log"
)

// DefaultReadBufferBytes fits the largest datagram the vehicle sends.
const DefaultReadBufferBytes = 4096

// Channel owns one socket and runs its receive loop.
type Channel struct {
	name    string
	conn    ports.DatagramConn
	handler ports.FrameHandler
	bufSize int
	logger  log.Logger

	frames *atomic.Uint64
	bytes  *atomic.Uint64

	closeOnce sync.Once
}

// NewChannel creates a channel. The handler is called on the receive loop's
// goroutine, one datagram at a time, in arrival order.
func NewChannel(name string, conn ports.DatagramConn, handler ports.FrameHandler, bufSize int, logger log.Logger, frames, bytes *atomic.Uint64) *Channel {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferBytes
	}
	if frames == nil {
		frames = new(atomic.Uint64)
	}
	if bytes == nil {
		bytes = new(atomic.Uint64)
	}
	return &Channel{
		name:    name,
		conn:    conn,
		handler: handler,
		bufSize: bufSize,
		logger:  logger.With(log.String("channel", name)),
		frames:  frames,
		bytes:   bytes,
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Run receives datagrams until ctx is done or the socket fails. Cancelling ctx
// closes the socket, which unblocks the pending receive; that is a clean exit
// and Run returns nil. Any other receive failure is returned wrapped in
// domain.ErrTransport. The socket is always closed when Run returns.
func (c *Channel) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.Close)
	defer stop()
	defer c.Close()

	c.logger.Debug("receive loop started", log.String("local", c.conn.LocalAddr().String()))

	buf := make([]byte, c.bufSize)
	for {
		n, err := c.conn.Read(buf)
		if ctx.Err() != nil {
			c.logger.Debug("receive loop stopped")
			return nil
		}
		if err != nil {
			// Connected UDP sockets report ICMP port unreachable on the next
			// read. The vehicle may simply not be listening yet.
			if errors.Is(err, syscall.ECONNREFUSED) {
				c.logger.Warn("peer refused datagram", log.Err(err))
				continue
			}
			c.logger.Error("receive failed", log.Err(err))
			return fmt.Errorf("%w: %s receive: %w", domain.ErrTransport, c.name, err)
		}

		c.frames.Add(1)
		c.bytes.Add(uint64(n))

		frame := make([]byte, n)
		copy(frame, buf[:n])
		c.handler(frame)
	}
}

// Close closes the socket once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("close socket", log.Err(err))
		}
	})
}

// DiscardFrames is the video channel handler: frames are counted by the
// channel and dropped.
func DiscardFrames([]byte) {}
